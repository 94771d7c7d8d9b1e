package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/observability/service"

// Service decorates the order engine with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Create(ctx context.Context, buyerID, productID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.Int64("order.buyer_id", buyerID), attribute.Int64("order.product_id", productID)))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int64("buyer_id", buyerID), slog.Int64("product_id", productID))
	result, err := s.inner.Create(ctx, buyerID, productID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("product_id", productID))
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created", slog.Int64("order_id", result.ID), slog.String("reference", result.Reference))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, orderID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order_id", orderID))
	}
	return result, nil
}

func (s *Service) GetEscrow(ctx context.Context, orderID int64) (*ordersdomain.Escrow, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetEscrow", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetEscrow(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load escrow", slog.Int64("order_id", orderID))
	}
	return result, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListMine", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	result, err := s.inner.ListMine(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.Int64("user_id", userID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListAll(ctx context.Context, offset, limit int) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListAll",
		trace.WithAttributes(attribute.Int("page.offset", offset), attribute.Int("page.limit", limit)))
	defer span.End()

	result, err := s.inner.ListAll(ctx, offset, limit)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) InitializeCheckout(ctx context.Context, input ordersports.CheckoutInput) (*ordersports.CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.InitializeCheckout",
		trace.WithAttributes(attribute.Int64("order.buyer_id", input.BuyerID), attribute.Int64("order.product_id", input.ProductID)))
	defer span.End()

	s.logInfo(ctx, "initializing checkout", slog.Int64("buyer_id", input.BuyerID), slog.Int64("product_id", input.ProductID))
	result, err := s.inner.InitializeCheckout(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to initialize checkout", slog.Int64("product_id", input.ProductID))
	}
	s.metrics.recordCheckoutStarted(ctx)
	s.logInfo(ctx, "checkout initialized", slog.Int64("order_id", result.OrderID), slog.String("reference", result.Reference))
	return result, nil
}

func (s *Service) VerifyPayment(ctx context.Context, reference string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.VerifyPayment",
		trace.WithAttributes(attribute.String("order.reference", reference)))
	defer span.End()

	s.logInfo(ctx, "verifying payment", slog.String("reference", reference))
	result, err := s.inner.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to verify payment", slog.String("reference", reference))
	}
	s.logInfo(ctx, "payment verified", slog.Int64("order_id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) MarkPaid(ctx context.Context, reference string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.MarkPaid",
		trace.WithAttributes(attribute.String("order.reference", reference)))
	defer span.End()

	result, err := s.inner.MarkPaid(ctx, reference)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark order paid", slog.String("reference", reference))
	}
	s.metrics.recordPaid(ctx)
	s.logInfo(ctx, "order marked paid", slog.Int64("order_id", result.ID))
	return result, nil
}

func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleWebhook")
	defer span.End()

	if err := s.inner.HandleWebhook(ctx, rawBody, signature); err != nil {
		return s.handleError(ctx, span, err, "failed to handle payment webhook")
	}
	s.logInfo(ctx, "payment webhook handled")
	return nil
}

func (s *Service) Advance(ctx context.Context, orderID, actorID int64, target ordersdomain.Status) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Advance",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.target_status", string(target))))
	defer span.End()

	result, err := s.inner.Advance(ctx, orderID, actorID, target)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to advance order",
			slog.Int64("order_id", orderID), slog.String("target", string(target)))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order advanced", slog.Int64("order_id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) ConfirmReceived(ctx context.Context, orderID, actorID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ConfirmReceived",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ConfirmReceived(ctx, orderID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to confirm delivery", slog.Int64("order_id", orderID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "delivery confirmed", slog.Int64("order_id", result.ID))
	return result, nil
}

func (s *Service) ConfirmSatisfied(ctx context.Context, orderID, actorID int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ConfirmSatisfied",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ConfirmSatisfied(ctx, orderID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to confirm satisfaction", slog.Int64("order_id", orderID))
	}
	s.metrics.recordReleased(ctx, "buyer")
	s.logInfo(ctx, "satisfaction confirmed", slog.Int64("order_id", result.ID))
	return result, nil
}

func (s *Service) ReleaseExpired(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ReleaseExpired")
	defer span.End()

	count, err := s.inner.ReleaseExpired(ctx)
	if err != nil {
		return count, s.handleError(ctx, span, err, "auto-release sweep failed")
	}
	span.SetAttributes(attribute.Int("orders.released", count))
	if count > 0 {
		s.metrics.recordSwept(ctx, "auto_release", count)
		s.logInfo(ctx, "auto-release sweep completed", slog.Int("released", count))
	}
	return count, nil
}

func (s *Service) CancelStale(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelStale")
	defer span.End()

	count, err := s.inner.CancelStale(ctx)
	if err != nil {
		return count, s.handleError(ctx, span, err, "auto-cancel sweep failed")
	}
	span.SetAttributes(attribute.Int("orders.cancelled", count))
	if count > 0 {
		s.metrics.recordSwept(ctx, "auto_cancel", count)
		s.logInfo(ctx, "auto-cancel sweep completed", slog.Int("cancelled", count))
	}
	return count, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated    metric.Int64Counter
	checkoutsStarted metric.Int64Counter
	ordersPaid       metric.Int64Counter
	transitions      metric.Int64Counter
	escrowsReleased  metric.Int64Counter
	ordersSwept      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	checkouts, _ := m.Int64Counter("orders.service.checkouts_started", metric.WithDescription("Number of gateway checkouts initialized"))
	paid, _ := m.Int64Counter("orders.service.paid", metric.WithDescription("Number of orders marked paid"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions"))
	released, _ := m.Int64Counter("orders.service.escrows_released", metric.WithDescription("Number of escrows released"))
	swept, _ := m.Int64Counter("orders.service.swept", metric.WithDescription("Number of orders transitioned by sweeps"))
	return serviceMetrics{
		ordersCreated:    created,
		checkoutsStarted: checkouts,
		ordersPaid:       paid,
		transitions:      transitions,
		escrowsReleased:  released,
		ordersSwept:      swept,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCheckoutStarted(ctx context.Context) {
	if m.checkoutsStarted != nil {
		m.checkoutsStarted.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPaid(ctx context.Context) {
	if m.ordersPaid != nil {
		m.ordersPaid.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status ordersdomain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

func (m serviceMetrics) recordReleased(ctx context.Context, trigger string) {
	if m.escrowsReleased != nil {
		m.escrowsReleased.Add(ctx, 1, metric.WithAttributes(attribute.String("release.trigger", trigger)))
	}
}

func (m serviceMetrics) recordSwept(ctx context.Context, sweep string, count int) {
	if m.ordersSwept != nil {
		m.ordersSwept.Add(ctx, int64(count), metric.WithAttributes(attribute.String("sweep.kind", sweep)))
	}
}

var _ ordersports.Service = (*Service)(nil)
