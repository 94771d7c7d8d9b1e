package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
	"github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

var _ ordersports.NotificationSink = (*Notifier)(nil)

// OrderGroup names the observer group for a single order.
func OrderGroup(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

// Notifier fans order events out to one or more brokers. Delivery is best
// effort: broker failures are logged and never surfaced to the transition
// that triggered them.
type Notifier struct {
	brokers []ports.Broker
	logger  *slog.Logger
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) { n.logger = logger }
}

// NewNotifier builds a fan-out over the given brokers. Nil brokers are
// skipped so callers can pass optional adapters straight through.
func NewNotifier(brokers []ports.Broker, opts ...Option) *Notifier {
	kept := make([]ports.Broker, 0, len(brokers))
	for _, b := range brokers {
		if b != nil {
			kept = append(kept, b)
		}
	}
	n := &Notifier{brokers: kept}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

func (n *Notifier) NotifyOrder(ctx context.Context, orderID int64, event ordersports.Event) {
	n.publish(ctx, OrderGroup(orderID), event)
}

func (n *Notifier) NotifyAdmins(ctx context.Context, event ordersports.Event) {
	n.publish(ctx, ports.AdminGroup, event)
}

func (n *Notifier) publish(ctx context.Context, group string, event ordersports.Event) {
	if n == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logWarn(ctx, "failed to encode notification", group, err)
		return
	}
	for _, broker := range n.brokers {
		if err := broker.Publish(ctx, group, payload); err != nil {
			n.logWarn(ctx, "failed to publish notification", group, err)
		}
	}
}

func (n *Notifier) logWarn(ctx context.Context, msg, group string, err error) {
	if n.logger == nil {
		return
	}
	n.logger.LogAttrs(ctx, slog.LevelWarn, msg,
		slog.String("group", group), slog.String("error", err.Error()))
}
