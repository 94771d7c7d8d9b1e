package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

const (
	// InitializeCheckoutActivityName creates the order and starts the
	// gateway checkout in one step.
	InitializeCheckoutActivityName = "orders.activities.InitializeCheckout"
)

// Activities groups activities operating on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the order engine into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// InitializeCheckout persists a pending order and opens a hosted checkout
// session with the payment gateway. The gateway call is not retried at this
// level; retry policy is decided by the workflow.
func (a *Activities) InitializeCheckout(ctx context.Context, input ordersports.CheckoutInput) (*ordersports.CheckoutResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("checkout activity not initialized", "productId", input.ProductID)
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("InitializeCheckout activity started", "buyerId", input.BuyerID, "productId", input.ProductID)
	result, err := a.service.InitializeCheckout(ctx, input)
	if err != nil {
		logger.Error("InitializeCheckout activity failed", "productId", input.ProductID, "error", err)
		return nil, err
	}
	logger.Info("InitializeCheckout activity completed", "orderId", result.OrderID, "reference", result.Reference)
	return result, nil
}
