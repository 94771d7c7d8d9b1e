package domain

import (
	"errors"
	"time"
)

// EscrowStatus tracks held funds for an order.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "HELD"
	EscrowReleased EscrowStatus = "RELEASED"
)

// ErrEscrowReleased signals an attempt to move a released escrow back to held.
var ErrEscrowReleased = errors.New("escrow is already released")

// Escrow pins gateway-held funds to exactly one order. It is created at the
// PAID transition and released at most once, at COMPLETED.
type Escrow struct {
	ID                   int64
	OrderID              int64
	Amount               int64
	Currency             string
	Status               EscrowStatus
	GatewayTransactionID string
	ReleasedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewEscrow builds the held-funds record for a freshly paid order.
// The escrow amount is fixed at creation to price plus delivery fee.
func NewEscrow(order *Order, currency string) *Escrow {
	return &Escrow{
		OrderID:              order.ID,
		Amount:               order.Total(),
		Currency:             currency,
		Status:               EscrowHeld,
		GatewayTransactionID: order.Reference,
	}
}

// Release marks the escrow released. RELEASED is terminal; releasing twice
// is rejected so callers can distinguish the winner of a racing transition.
func (e *Escrow) Release(at time.Time) error {
	if e.Status == EscrowReleased {
		return ErrEscrowReleased
	}
	e.Status = EscrowReleased
	e.ReleasedAt = &at
	return nil
}
