package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

// ActiveOrderStatuses are the states in which an order still claims its
// product. A single-unit product with an order in any of these cannot be
// sold again.
var ActiveOrderStatuses = []domain.Status{
	domain.StatusPaid,
	domain.StatusProcessing,
	domain.StatusShipped,
	domain.StatusDelivered,
	domain.StatusCompleted,
}

const (
	// DefaultAutoReleaseWindow is how long after delivery an unsatisfied
	// order waits before the sweep releases its escrow (72h).
	DefaultAutoReleaseWindow = 4320 * time.Minute
	// CancelWindow is how long an unpaid PENDING order survives before
	// the auto-cancel sweep reclaims it (12h).
	CancelWindow = 720 * time.Minute

	defaultCurrency = "NGN"
)

// Service is the order lifecycle engine. It orchestrates the repository,
// the payment gateway, the catalog collaborator, and the notification sink.
type Service struct {
	repo        ports.Repository
	catalog     ports.Catalog
	gateway     ports.PaymentGateway
	notifier    ports.NotificationSink
	logger      *slog.Logger
	now         func() time.Time
	currency    string
	autoRelease time.Duration
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger attaches a structured logger, used mainly by the sweeps.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCurrency overrides the escrow currency.
func WithCurrency(currency string) Option {
	return func(s *Service) { s.currency = currency }
}

// WithAutoReleaseWindow overrides the delivery-to-auto-release window.
func WithAutoReleaseWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.autoRelease = window
		}
	}
}

// NewService wires the engine with its collaborators.
func NewService(repo ports.Repository, catalog ports.Catalog, gateway ports.PaymentGateway, notifier ports.NotificationSink, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		catalog:     catalog,
		gateway:     gateway,
		notifier:    notifier,
		now:         time.Now,
		currency:    defaultCurrency,
		autoRelease: DefaultAutoReleaseWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create places a PENDING order for the product after checking the
// availability guards. The reference minted here is the idempotency key
// shared with the payment gateway for the order's whole life.
func (s *Service) Create(ctx context.Context, buyerID, productID int64) (*domain.Order, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapError(err)
	}
	if buyerID == product.SellerID {
		return nil, fmt.Errorf("%w: sellers cannot buy their own product", domain.ErrForbidden)
	}
	if !product.Active || product.OutOfStock {
		return nil, ErrProductUnavailable
	}
	if product.SingleUnit {
		claimed, err := s.repo.HasOrderForProduct(ctx, productID, ActiveOrderStatuses)
		if err != nil {
			return nil, mapError(err)
		}
		if claimed {
			return nil, ErrProductUnavailable
		}
	}
	order := &domain.Order{
		Reference:   uuid.NewString(),
		ProductID:   product.ID,
		BuyerID:     buyerID,
		SellerID:    product.SellerID,
		Price:       product.Price,
		DeliveryFee: product.DeliveryFee,
		Status:      domain.StatusPending,
	}
	if err := order.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetByID loads a single order.
func (s *Service) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// GetEscrow loads the escrow held for an order. Absent before the order
// reaches PAID.
func (s *Service) GetEscrow(ctx context.Context, orderID int64) (*domain.Escrow, error) {
	escrow, err := s.repo.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return escrow, nil
}

// ListMine returns the orders where the user is buyer or seller.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListAll pages through every order, newest first.
func (s *Service) ListAll(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	orders, err := s.repo.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// InitializeCheckout creates the PENDING order and starts a hosted checkout
// with the gateway. A gateway failure is surfaced as-is: the order stays
// PENDING and the auto-cancel sweep reclaims it later.
func (s *Service) InitializeCheckout(ctx context.Context, input ports.CheckoutInput) (*ports.CheckoutResult, error) {
	order, err := s.Create(ctx, input.BuyerID, input.ProductID)
	if err != nil {
		return nil, err
	}
	session, err := s.gateway.Initialize(ctx, ports.InitializeRequest{
		Email: input.BuyerEmail,
		// Stored amounts are major units; the gateway speaks minor units.
		Amount:      order.Total() * 100,
		Reference:   order.Reference,
		Metadata:    map[string]any{"order_id": order.ID},
		CallbackURL: input.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	return &ports.CheckoutResult{
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        session.Reference,
		OrderID:          order.ID,
	}, nil
}

// VerifyPayment asks the gateway whether money moved for the reference and,
// only on confirmed success, applies the PAID transition. Safe to race with
// the webhook path: both funnel into the idempotent MarkPaid.
func (s *Service) VerifyPayment(ctx context.Context, reference string) (*domain.Order, error) {
	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, ErrPaymentNotConfirmed
	}
	return s.MarkPaid(ctx, reference)
}

// MarkPaid is the single path by which an order becomes PAID. It is
// idempotent: an order already PAID or later is returned unchanged with no
// second escrow. A CANCELLED order is never resurrected.
func (s *Service) MarkPaid(ctx context.Context, reference string) (*domain.Order, error) {
	order, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, mapError(err)
	}
	if order.Status == domain.StatusCancelled {
		return nil, domain.NewInvalidTransition(domain.StatusCancelled, domain.StatusPaid)
	}
	if order.PaidOrLater() {
		return order, nil
	}
	escrow := domain.NewEscrow(order, s.currency)
	ok, err := s.repo.MarkPaid(ctx, order.ID, escrow)
	if err != nil {
		return nil, mapError(err)
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, order.ID)
		if err != nil {
			return nil, mapError(err)
		}
		if current.PaidOrLater() {
			return current, nil
		}
		return nil, domain.NewInvalidTransition(current.Status, domain.StatusPaid)
	}
	order.Status = domain.StatusPaid
	s.notifyOrder(ctx, order.ID, ports.Event{
		Type:    ports.EventOrderPaid,
		OrderID: order.ID,
		Message: "Payment verified and funds held in escrow",
	})
	return order, nil
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// HandleWebhook authenticates the raw gateway callback and dispatches
// charge.success events into the verify path. Signature verification comes
// first; nothing is written for an unverified payload.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.gateway.VerifySignature(rawBody, signature) {
		return ports.ErrSignatureInvalid
	}
	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}
	if event.Event != "charge.success" {
		return nil
	}
	_, err := s.VerifyPayment(ctx, event.Data.Reference)
	return err
}

// Advance lets the seller move a paid order through fulfilment. Only
// PROCESSING and SHIPPED are seller-reachable targets.
func (s *Service) Advance(ctx context.Context, orderID, actorID int64, target domain.Status) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.SellerID != actorID {
		return nil, fmt.Errorf("%w: only the seller can advance the order", domain.ErrForbidden)
	}
	if target != domain.StatusProcessing && target != domain.StatusShipped {
		return nil, domain.NewInvalidTransition(order.Status, target)
	}
	if !domain.CanTransition(order.Status, target) {
		return nil, domain.NewInvalidTransition(order.Status, target)
	}
	ok, err := s.repo.UpdateStatus(ctx, orderID, order.Status, target)
	if err != nil {
		return nil, mapError(err)
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		return nil, domain.NewInvalidTransition(current.Status, target)
	}
	order.Status = target
	s.notifyOrder(ctx, orderID, ports.Event{
		Type:    ports.EventStatusChanged,
		OrderID: orderID,
		Message: fmt.Sprintf("Order moved to %s", target),
	})
	return order, nil
}

// ConfirmReceived records delivery: the buyer acknowledges the shipment,
// the auto-release window starts, and the catalog side effect is applied.
func (s *Service) ConfirmReceived(ctx context.Context, orderID, actorID int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.BuyerID != actorID {
		return nil, fmt.Errorf("%w: only the buyer can confirm receipt", domain.ErrForbidden)
	}
	if order.Status != domain.StatusShipped {
		return nil, domain.NewInvalidTransition(order.Status, domain.StatusDelivered)
	}
	receivedAt := s.now()
	ok, err := s.repo.MarkDelivered(ctx, orderID, receivedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		return nil, domain.NewInvalidTransition(current.Status, domain.StatusDelivered)
	}
	order.Status = domain.StatusDelivered
	order.ReceivedAt = &receivedAt
	if err := s.catalog.ApplyDeliverySideEffect(ctx, order.ProductID); err != nil {
		return nil, mapError(err)
	}
	s.notifyOrder(ctx, orderID, ports.Event{
		Type:    ports.EventOrderDelivered,
		OrderID: orderID,
		Message: "Buyer confirmed receipt",
	})
	return order, nil
}

// ConfirmSatisfied completes the order and releases the held escrow. The
// operation races with the auto-release sweep; whichever write lands first
// wins, and the loser observes the completed state and returns success
// without re-releasing or re-notifying.
func (s *Service) ConfirmSatisfied(ctx context.Context, orderID, actorID int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.BuyerID != actorID {
		return nil, fmt.Errorf("%w: only the buyer can confirm satisfaction", domain.ErrForbidden)
	}
	if order.Status == domain.StatusCompleted && order.Satisfied {
		return order, nil
	}
	if order.Status != domain.StatusDelivered {
		return nil, domain.NewInvalidTransition(order.Status, domain.StatusCompleted)
	}
	completed, err := s.repo.Complete(ctx, orderID, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	if !completed {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		if current.Status == domain.StatusCompleted {
			return current, nil
		}
		return nil, domain.NewInvalidTransition(current.Status, domain.StatusCompleted)
	}
	order.Status = domain.StatusCompleted
	order.Satisfied = true
	s.notifyOrder(ctx, orderID, ports.Event{
		Type:    ports.EventEscrowReleased,
		OrderID: orderID,
		Message: "Buyer satisfied; escrow released to seller",
	})
	return order, nil
}

// ReleaseExpired is the auto-release sweep body: orders delivered longer
// ago than the release window, still unsatisfied, are completed and their
// escrows released exactly as ConfirmSatisfied would.
func (s *Service) ReleaseExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.autoRelease)
	candidates, err := s.repo.ListUnsatisfiedReceivedBefore(ctx, cutoff)
	if err != nil {
		return 0, mapError(err)
	}
	released := 0
	for _, order := range candidates {
		// Complete releases the escrow in the same write; a failure leaves
		// the order DELIVERED and it is re-selected next tick.
		completed, err := s.repo.Complete(ctx, order.ID, s.now())
		if err != nil {
			s.logWarn(ctx, "auto-release skipped order", order.ID, err)
			continue
		}
		if !completed {
			// Buyer confirmed in the meantime; nothing left to do.
			continue
		}
		released++
		s.notifyOrder(ctx, order.ID, ports.Event{
			Type:    ports.EventAutoSatisfied,
			OrderID: order.ID,
			Message: "Order automatically confirmed after timeout",
		})
	}
	return released, nil
}

// CancelStale is the auto-cancel sweep body: PENDING orders older than the
// cancel window never saw their payment arrive and are reclaimed.
func (s *Service) CancelStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-CancelWindow)
	candidates, err := s.repo.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, mapError(err)
	}
	cancelled := 0
	for _, order := range candidates {
		ok, err := s.repo.UpdateStatus(ctx, order.ID, domain.StatusPending, domain.StatusCancelled)
		if err != nil {
			s.logWarn(ctx, "auto-cancel skipped order", order.ID, err)
			continue
		}
		if !ok {
			// Paid (or already cancelled) since selection; leave it alone.
			continue
		}
		cancelled++
		s.notifyOrder(ctx, order.ID, ports.Event{
			Type:    ports.EventOrderCancelled,
			OrderID: order.ID,
			Message: "Order cancelled due to payment timeout",
		})
	}
	return cancelled, nil
}

func (s *Service) notifyOrder(ctx context.Context, orderID int64, event ports.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyOrder(ctx, orderID, event)
	s.notifier.NotifyAdmins(ctx, event)
}

func (s *Service) logWarn(ctx context.Context, msg string, orderID int64, err error) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg,
		slog.Int64("order.id", orderID), slog.String("error", err.Error()))
}

var _ ports.Service = (*Service)(nil)
