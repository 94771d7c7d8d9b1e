package ports

import (
	"context"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
)

// CheckoutInput starts a purchase: order creation plus gateway checkout.
type CheckoutInput struct {
	BuyerID     int64
	BuyerEmail  string
	ProductID   int64
	CallbackURL string
}

// CheckoutResult carries the gateway redirect handle back to the client.
type CheckoutResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	OrderID          int64  `json:"order_id"`
}

// Service exposes the order lifecycle engine to adapters.
type Service interface {
	Create(ctx context.Context, buyerID, productID int64) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	GetEscrow(ctx context.Context, orderID int64) (*domain.Escrow, error)
	ListMine(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]*domain.Order, error)

	InitializeCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, reference string) (*domain.Order, error)
	MarkPaid(ctx context.Context, reference string) (*domain.Order, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error

	Advance(ctx context.Context, orderID, actorID int64, target domain.Status) (*domain.Order, error)
	ConfirmReceived(ctx context.Context, orderID, actorID int64) (*domain.Order, error)
	ConfirmSatisfied(ctx context.Context, orderID, actorID int64) (*domain.Order, error)

	// Sweep batch operations used by the reconciliation scheduler. Both
	// return how many orders actually transitioned.
	ReleaseExpired(ctx context.Context) (int, error)
	CancelStale(ctx context.Context) (int, error)
}

// CheckoutOrchestrator runs the checkout flow, either inline or on a
// durable workflow engine.
type CheckoutOrchestrator interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}
