package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status enumerates order lifecycle progression.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrForbidden = errors.New("actor is not allowed to perform this transition")
	// ErrInvalidTransition is the match target for InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrConflict          = errors.New("conflicting order already exists")
)

// InvalidTransitionError reports a rejected state change together with the
// status the order currently holds and the status that was requested.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// NewInvalidTransition builds the guard-failure error for a state change.
func NewInvalidTransition(from, to Status) error {
	return &InvalidTransitionError{From: from, To: to}
}

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusPaid: true, StatusCancelled: true},
	StatusPaid:       {StatusProcessing: true},
	StatusProcessing: {StatusShipped: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {StatusCompleted: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether a status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	_, ok := validNext[s]
	return ok
}

// Order is the purchase aggregate tracked through the escrow lifecycle.
// Orders are never deleted; cancellation is a status, not a row removal.
type Order struct {
	ID          int64
	Reference   string
	ProductID   int64
	BuyerID     int64
	SellerID    int64
	Price       int64
	DeliveryFee int64
	Status      Status
	ReceivedAt  *time.Time
	Satisfied   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Total is the amount held in escrow for the order.
func (o *Order) Total() int64 {
	return o.Price + o.DeliveryFee
}

// PaidOrLater reports whether the order has reached PAID on the happy path.
// CANCELLED orders never count as paid.
func (o *Order) PaidOrLater() bool {
	switch o.Status {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted:
		return true
	default:
		return false
	}
}

// Validate enforces aggregate invariants.
func (o *Order) Validate() error {
	if o.Reference == "" {
		return errors.New("order reference is required")
	}
	if o.ProductID <= 0 {
		return errors.New("order product id must be greater than zero")
	}
	if o.BuyerID <= 0 || o.SellerID <= 0 {
		return errors.New("order buyer and seller ids must be greater than zero")
	}
	if o.BuyerID == o.SellerID {
		return ErrForbidden
	}
	if !o.Status.IsValid() {
		return NewInvalidTransition(o.Status, o.Status)
	}
	return nil
}
