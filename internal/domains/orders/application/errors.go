package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
)

var (
	// ErrProductUnavailable rejects a purchase of a product that is
	// inactive, out of stock, or (for single-unit products) already
	// claimed by another order.
	ErrProductUnavailable = fmt.Errorf("%w: product is unavailable for purchase", domain.ErrInvalidTransition)

	// ErrPaymentNotConfirmed is returned when the gateway verify call
	// answers but does not report a successful charge. No local state
	// changes on this error.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed by gateway")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrConflict) {
		return err
	}
	return fmt.Errorf("order engine: %w", err)
}
