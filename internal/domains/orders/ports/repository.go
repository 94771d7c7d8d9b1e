package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
)

// Repository persists orders and their escrows. Every state-changing method
// is a conditional write: it applies only when the stored status still
// matches the expected one and reports whether it did, so racing triggers
// resolve to exactly one winner without relying on uniqueness violations.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListPage(ctx context.Context, offset, limit int) ([]*domain.Order, error)

	// HasOrderForProduct reports whether any order on the product sits in
	// one of the given statuses. Used to keep single-unit products from
	// being sold twice.
	HasOrderForProduct(ctx context.Context, productID int64, statuses []domain.Status) (bool, error)

	// UpdateStatus moves the order from one status to another in a single
	// conditional write. ok is false when the stored status differed.
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.Status) (ok bool, err error)

	// MarkPaid sets the order PAID and inserts the HELD escrow in one
	// atomic unit, conditional on the order still being PENDING.
	MarkPaid(ctx context.Context, orderID int64, escrow *domain.Escrow) (ok bool, err error)

	// MarkDelivered sets DELIVERED and records receivedAt, conditional on
	// the order being SHIPPED.
	MarkDelivered(ctx context.Context, orderID int64, receivedAt time.Time) (ok bool, err error)

	// Complete sets satisfied and COMPLETED and flips the order's escrow
	// HELD to RELEASED in one atomic unit, conditional on the order being
	// DELIVERED. The buyer path and the auto-release sweep both funnel
	// through this write; at most one caller sees ok, and a failure leaves
	// the order DELIVERED so the sweep re-selects it.
	Complete(ctx context.Context, orderID int64, releasedAt time.Time) (ok bool, err error)

	GetEscrowByOrderID(ctx context.Context, orderID int64) (*domain.Escrow, error)

	// Sweep selections.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
	ListUnsatisfiedReceivedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
}
