package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

type fakeCatalog struct {
	products map[int64]ports.ProductInfo
	applied  []int64
}

func newFakeCatalog(products ...ports.ProductInfo) *fakeCatalog {
	f := &fakeCatalog{products: map[int64]ports.ProductInfo{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) GetProduct(_ context.Context, productID int64) (*ports.ProductInfo, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := p
	return &clone, nil
}

func (f *fakeCatalog) ApplyDeliverySideEffect(_ context.Context, productID int64) error {
	f.applied = append(f.applied, productID)
	return nil
}

type fakeGateway struct {
	initRequests []ports.InitializeRequest
	initErr      error
	verifyByRef  map[string]*ports.VerifyResult
	verifyErr    error
	validSig     string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{verifyByRef: map[string]*ports.VerifyResult{}, validSig: "good-signature"}
}

func (f *fakeGateway) Initialize(_ context.Context, req ports.InitializeRequest) (*ports.CheckoutSession, error) {
	f.initRequests = append(f.initRequests, req)
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &ports.CheckoutSession{
		AuthorizationURL: "https://checkout.example/" + req.Reference,
		AccessCode:       "access-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (*ports.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if result, ok := f.verifyByRef[reference]; ok {
		return result, nil
	}
	return &ports.VerifyResult{Status: "failed"}, nil
}

func (f *fakeGateway) VerifySignature(_ []byte, signature string) bool {
	return signature == f.validSig
}

type fakeNotifier struct {
	orderEvents []ports.Event
	adminEvents []ports.Event
}

func (f *fakeNotifier) NotifyOrder(_ context.Context, _ int64, event ports.Event) {
	f.orderEvents = append(f.orderEvents, event)
}

func (f *fakeNotifier) NotifyAdmins(_ context.Context, event ports.Event) {
	f.adminEvents = append(f.adminEvents, event)
}

type engineFixture struct {
	repo     *memory.Repository
	catalog  *fakeCatalog
	gateway  *fakeGateway
	notifier *fakeNotifier
	svc      *Service
	now      time.Time
}

func newEngineFixture(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()
	f := &engineFixture{
		repo:     memory.NewRepository(),
		notifier: &fakeNotifier{},
		gateway:  newFakeGateway(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.catalog = newFakeCatalog(
		ports.ProductInfo{ID: 1, SellerID: 2, Price: 1000, DeliveryFee: 200, Active: true, SingleUnit: true},
		ports.ProductInfo{ID: 2, SellerID: 2, Price: 500, DeliveryFee: 0, Active: true, SingleUnit: false},
		ports.ProductInfo{ID: 3, SellerID: 2, Price: 800, DeliveryFee: 100, Active: false, SingleUnit: true},
	)
	all := append([]Option{WithClock(func() time.Time { return f.now }), WithLogger(nil)}, opts...)
	f.svc = NewService(f.repo, f.catalog, f.gateway, f.notifier, all...)
	return f
}

const (
	buyerID  = int64(7)
	sellerID = int64(2)
)

func (f *engineFixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), buyerID, 1)
	require.NoError(t, err)
	return order
}

func (f *engineFixture) paidOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := f.createOrder(t)
	paid, err := f.svc.MarkPaid(context.Background(), order.Reference)
	require.NoError(t, err)
	return paid
}

func (f *engineFixture) deliveredOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := f.paidOrder(t)
	ctx := context.Background()
	_, err := f.svc.Advance(ctx, order.ID, sellerID, domain.StatusProcessing)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, order.ID, sellerID, domain.StatusShipped)
	require.NoError(t, err)
	delivered, err := f.svc.ConfirmReceived(ctx, order.ID, buyerID)
	require.NoError(t, err)
	return delivered
}

func TestCreate_PlacesPendingOrderWithReference(t *testing.T) {
	f := newEngineFixture(t)

	order := f.createOrder(t)
	require.Equal(t, domain.StatusPending, order.Status)
	require.NotEmpty(t, order.Reference)
	require.Equal(t, sellerID, order.SellerID)
	require.Equal(t, int64(1200), order.Total())
}

func TestCreate_SellerCannotBuyOwnProduct(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.svc.Create(context.Background(), sellerID, 1)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_InactiveProductRejected(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.svc.Create(context.Background(), buyerID, 3)
	require.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCreate_UnknownProductNotFound(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.svc.Create(context.Background(), buyerID, 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_SingleUnitClaimedBySecondBuyer(t *testing.T) {
	f := newEngineFixture(t)
	f.paidOrder(t)

	_, err := f.svc.Create(context.Background(), 8, 1)
	require.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCreate_SingleUnitPendingOrderDoesNotClaim(t *testing.T) {
	f := newEngineFixture(t)
	f.createOrder(t)

	// Only a paid-or-later order claims the unit; two pending orders may
	// coexist and the first to pay wins.
	other, err := f.svc.Create(context.Background(), 8, 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, other.Status)
}

func TestCreate_MultiUnitAllowsConcurrentOrders(t *testing.T) {
	f := newEngineFixture(t)

	first, err := f.svc.Create(context.Background(), buyerID, 2)
	require.NoError(t, err)
	firstPaid, err := f.svc.MarkPaid(context.Background(), first.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, firstPaid.Status)

	second, err := f.svc.Create(context.Background(), 8, 2)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, second.Status)
}

func TestInitializeCheckout_ConvertsAmountToMinorUnits(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.svc.InitializeCheckout(context.Background(), ports.CheckoutInput{
		BuyerID:    buyerID,
		BuyerEmail: "buyer@example.com",
		ProductID:  1,
	})
	require.NoError(t, err)
	require.NotZero(t, result.OrderID)
	require.Len(t, f.gateway.initRequests, 1)
	req := f.gateway.initRequests[0]
	require.Equal(t, int64(120000), req.Amount)
	require.Equal(t, result.Reference, req.Reference)
	require.Equal(t, "buyer@example.com", req.Email)
}

func TestInitializeCheckout_GatewayFailureLeavesOrderPending(t *testing.T) {
	f := newEngineFixture(t)
	f.gateway.initErr = &ports.GatewayError{Op: "initialize", Status: 503}

	_, err := f.svc.InitializeCheckout(context.Background(), ports.CheckoutInput{
		BuyerID:    buyerID,
		BuyerEmail: "buyer@example.com",
		ProductID:  1,
	})
	require.Error(t, err)

	orders, err := f.svc.ListMine(context.Background(), buyerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, domain.StatusPending, orders[0].Status)
}

func TestVerifyPayment_UnconfirmedChargeChangesNothing(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.VerifyPayment(context.Background(), order.Reference)
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, current.Status)
	_, err = f.repo.GetEscrowByOrderID(context.Background(), order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyPayment_SuccessMarksPaid(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	f.gateway.verifyByRef[order.Reference] = &ports.VerifyResult{Status: "success", Amount: 120000}

	paid, err := f.svc.VerifyPayment(context.Background(), order.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, paid.Status)
}

func TestMarkPaid_CreatesHeldEscrowForFullTotal(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)

	paid, err := f.svc.MarkPaid(context.Background(), order.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, paid.Status)

	escrow, err := f.repo.GetEscrowByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowHeld, escrow.Status)
	require.Equal(t, int64(1200), escrow.Amount)
	require.Equal(t, "NGN", escrow.Currency)
	require.Equal(t, order.Reference, escrow.GatewayTransactionID)
}

func TestMarkPaid_SecondCallIsNoOp(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.MarkPaid(context.Background(), order.Reference)
	require.NoError(t, err)
	notified := len(f.notifier.orderEvents)

	again, err := f.svc.MarkPaid(context.Background(), order.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, again.Status)
	require.Len(t, f.notifier.orderEvents, notified, "no duplicate notification on repeat mark-paid")

	escrow, err := f.repo.GetEscrowByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowHeld, escrow.Status)
}

func TestMarkPaid_CancelledOrderIsNeverResurrected(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	ok, err := f.repo.UpdateStatus(context.Background(), order.ID, domain.StatusPending, domain.StatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.MarkPaid(context.Background(), order.Reference)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, current.Status)
	_, err = f.repo.GetEscrowByOrderID(context.Background(), order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkPaid_UnknownReference(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.svc.MarkPaid(context.Background(), "no-such-reference")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleWebhook_RejectsBadSignatureBeforeAnyWrite(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	body := []byte(`{"event":"charge.success","data":{"reference":"` + order.Reference + `"}}`)
	f.gateway.verifyByRef[order.Reference] = &ports.VerifyResult{Status: "success"}

	err := f.svc.HandleWebhook(context.Background(), body, "forged")
	require.ErrorIs(t, err, ports.ErrSignatureInvalid)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, current.Status)
}

func TestHandleWebhook_ChargeSuccessVerifiesThenMarksPaid(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	body := []byte(`{"event":"charge.success","data":{"reference":"` + order.Reference + `"}}`)
	f.gateway.verifyByRef[order.Reference] = &ports.VerifyResult{Status: "success"}

	err := f.svc.HandleWebhook(context.Background(), body, f.gateway.validSig)
	require.NoError(t, err)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, current.Status)
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	body := []byte(`{"event":"transfer.success","data":{"reference":"` + order.Reference + `"}}`)

	err := f.svc.HandleWebhook(context.Background(), body, f.gateway.validSig)
	require.NoError(t, err)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, current.Status)
}

func TestAdvance_SellerWalksFulfilmentChain(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)
	ctx := context.Background()

	processing, err := f.svc.Advance(ctx, order.ID, sellerID, domain.StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, processing.Status)

	shipped, err := f.svc.Advance(ctx, order.ID, sellerID, domain.StatusShipped)
	require.NoError(t, err)
	require.Equal(t, domain.StatusShipped, shipped.Status)
}

func TestAdvance_BuyerCannotAdvance(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)

	_, err := f.svc.Advance(context.Background(), order.ID, buyerID, domain.StatusProcessing)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAdvance_SkippingStatesRejected(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)

	_, err := f.svc.Advance(context.Background(), order.ID, sellerID, domain.StatusShipped)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAdvance_DeliveredIsNotSellerReachable(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)
	ctx := context.Background()
	_, err := f.svc.Advance(ctx, order.ID, sellerID, domain.StatusProcessing)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, order.ID, sellerID, domain.StatusShipped)
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, order.ID, sellerID, domain.StatusDelivered)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConfirmReceived_RecordsDeliveryAndAppliesSideEffect(t *testing.T) {
	f := newEngineFixture(t)
	order := f.deliveredOrder(t)

	require.Equal(t, domain.StatusDelivered, order.Status)
	require.NotNil(t, order.ReceivedAt)
	require.Equal(t, f.now, *order.ReceivedAt)
	require.Equal(t, []int64{1}, f.catalog.applied)
}

func TestConfirmReceived_OnlyBuyer(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)
	ctx := context.Background()
	_, err := f.svc.Advance(ctx, order.ID, sellerID, domain.StatusProcessing)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, order.ID, sellerID, domain.StatusShipped)
	require.NoError(t, err)

	_, err = f.svc.ConfirmReceived(ctx, order.ID, sellerID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirmReceived_RequiresShipped(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)

	_, err := f.svc.ConfirmReceived(context.Background(), order.ID, buyerID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConfirmSatisfied_CompletesAndReleasesEscrowOnce(t *testing.T) {
	f := newEngineFixture(t)
	order := f.deliveredOrder(t)

	completed, err := f.svc.ConfirmSatisfied(context.Background(), order.ID, buyerID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, completed.Status)
	require.True(t, completed.Satisfied)

	escrow, err := f.repo.GetEscrowByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowReleased, escrow.Status)
	require.NotNil(t, escrow.ReleasedAt)
	require.Equal(t, f.now, *escrow.ReleasedAt)
}

func TestConfirmSatisfied_RepeatCallSucceedsWithoutSecondRelease(t *testing.T) {
	f := newEngineFixture(t)
	order := f.deliveredOrder(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmSatisfied(ctx, order.ID, buyerID)
	require.NoError(t, err)
	releasedEvents := countEvents(f.notifier.orderEvents, ports.EventEscrowReleased)
	require.Equal(t, 1, releasedEvents)

	again, err := f.svc.ConfirmSatisfied(ctx, order.ID, buyerID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, again.Status)
	require.Equal(t, 1, countEvents(f.notifier.orderEvents, ports.EventEscrowReleased),
		"release notification must fire exactly once")
}

func TestConfirmSatisfied_LoserOfRaceObservesCompletion(t *testing.T) {
	f := newEngineFixture(t)
	order := f.deliveredOrder(t)
	ctx := context.Background()

	// Simulate the sweep winning the Complete write between the read and
	// the conditional update.
	ok, err := f.repo.Complete(ctx, order.ID, f.now)
	require.NoError(t, err)
	require.True(t, ok)

	result, err := f.svc.ConfirmSatisfied(ctx, order.ID, buyerID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, result.Status)
}

func TestConfirmSatisfied_RequiresDelivered(t *testing.T) {
	f := newEngineFixture(t)
	order := f.paidOrder(t)

	_, err := f.svc.ConfirmSatisfied(context.Background(), order.ID, buyerID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReleaseExpired_ReleasesOnlyOrdersPastTheWindow(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	expired := f.deliveredOrder(t)
	// Age the delivery past the window.
	aged := f.now.Add(-DefaultAutoReleaseWindow)
	seeded := f.repo.SeedOrder(&domain.Order{
		ID:         expired.ID,
		Reference:  expired.Reference,
		ProductID:  expired.ProductID,
		BuyerID:    expired.BuyerID,
		SellerID:   expired.SellerID,
		Price:      expired.Price,
		Status:     domain.StatusDelivered,
		ReceivedAt: &aged,
		CreatedAt:  expired.CreatedAt,
	})

	released, err := f.svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, released)

	current, err := f.svc.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, current.Status)
	require.True(t, current.Satisfied)

	escrow, err := f.repo.GetEscrowByOrderID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowReleased, escrow.Status)
	require.Equal(t, 1, countEvents(f.notifier.orderEvents, ports.EventAutoSatisfied))
}

type flakyCompleteRepo struct {
	*memory.Repository
	failures int
}

func (r *flakyCompleteRepo) Complete(ctx context.Context, orderID int64, releasedAt time.Time) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, errors.New("storage unavailable")
	}
	return r.Repository.Complete(ctx, orderID, releasedAt)
}

func TestReleaseExpired_FailedWriteRetriedNextTick(t *testing.T) {
	repo := memory.NewRepository()
	flaky := &flakyCompleteRepo{Repository: repo, failures: 1}
	catalog := newFakeCatalog(
		ports.ProductInfo{ID: 1, SellerID: sellerID, Price: 1000, DeliveryFee: 200, Active: true, SingleUnit: true},
	)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(flaky, catalog, newFakeGateway(), &fakeNotifier{},
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	order, err := svc.Create(ctx, buyerID, 1)
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, order.Reference)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, order.ID, sellerID, domain.StatusProcessing)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, order.ID, sellerID, domain.StatusShipped)
	require.NoError(t, err)
	_, err = svc.ConfirmReceived(ctx, order.ID, buyerID)
	require.NoError(t, err)

	aged := now.Add(-DefaultAutoReleaseWindow)
	repo.SeedOrder(&domain.Order{
		ID:         order.ID,
		Reference:  order.Reference,
		ProductID:  order.ProductID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		Price:      order.Price,
		Status:     domain.StatusDelivered,
		ReceivedAt: &aged,
	})

	released, err := svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, released)

	// The failed write must leave the order DELIVERED with its escrow
	// still held, so the next tick re-selects it.
	current, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, current.Status)
	require.False(t, current.Satisfied)
	escrow, err := repo.GetEscrowByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowHeld, escrow.Status)

	released, err = svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, released)

	current, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, current.Status)
	escrow, err = repo.GetEscrowByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowReleased, escrow.Status)
}

func TestReleaseExpired_FreshDeliveryUntouched(t *testing.T) {
	f := newEngineFixture(t)
	order := f.deliveredOrder(t)

	released, err := f.svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, released)

	current, err := f.svc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, current.Status)
}

func TestReleaseExpired_BoundaryExactlyAtWindow(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	order := f.deliveredOrder(t)

	exact := f.now.Add(-DefaultAutoReleaseWindow)
	f.repo.SeedOrder(&domain.Order{
		ID:         order.ID,
		Reference:  order.Reference,
		ProductID:  order.ProductID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		Price:      order.Price,
		Status:     domain.StatusDelivered,
		ReceivedAt: &exact,
	})

	released, err := f.svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, released, "an order delivered exactly one window ago is due")
}

func TestCancelStale_CancelsOldPendingOrders(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	stale := f.repo.SeedOrder(&domain.Order{
		Reference: "stale-ref",
		ProductID: 2,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     500,
		Status:    domain.StatusPending,
		CreatedAt: f.now.Add(-CancelWindow),
	})
	fresh := f.repo.SeedOrder(&domain.Order{
		Reference: "fresh-ref",
		ProductID: 2,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     500,
		Status:    domain.StatusPending,
		CreatedAt: f.now.Add(-CancelWindow + time.Minute),
	})

	cancelled, err := f.svc.CancelStale(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cancelled)

	staleNow, err := f.svc.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, staleNow.Status)

	freshNow, err := f.svc.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, freshNow.Status)
	require.Equal(t, 1, countEvents(f.notifier.orderEvents, ports.EventOrderCancelled))
}

func TestCancelStale_SkipsOrdersPaidSinceSelection(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	order := f.repo.SeedOrder(&domain.Order{
		Reference: "paid-in-time",
		ProductID: 2,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     500,
		Status:    domain.StatusPaid,
		CreatedAt: f.now.Add(-2 * CancelWindow),
	})

	cancelled, err := f.svc.CancelStale(ctx)
	require.NoError(t, err)
	require.Zero(t, cancelled)

	current, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, current.Status)
}

func TestGetEscrow_VisibleOncePaid(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.GetEscrow(context.Background(), order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.MarkPaid(context.Background(), order.Reference)
	require.NoError(t, err)

	escrow, err := f.svc.GetEscrow(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EscrowHeld, escrow.Status)
	require.Equal(t, int64(1200), escrow.Amount)
}

func TestListMine_ReturnsBuyerAndSellerSides(t *testing.T) {
	f := newEngineFixture(t)
	order := f.createOrder(t)
	ctx := context.Background()

	asBuyer, err := f.svc.ListMine(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, asBuyer, 1)
	require.Equal(t, order.ID, asBuyer[0].ID)

	asSeller, err := f.svc.ListMine(ctx, sellerID)
	require.NoError(t, err)
	require.Len(t, asSeller, 1)

	asStranger, err := f.svc.ListMine(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, asStranger)
}

func countEvents(events []ports.Event, eventType string) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
