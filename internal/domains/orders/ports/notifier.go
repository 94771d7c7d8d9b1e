package ports

import "context"

// Event types fanned out to order and admin observers.
const (
	EventOrderPaid      = "ORDER_PAID"
	EventStatusChanged  = "STATUS_CHANGED"
	EventOrderDelivered = "ORDER_DELIVERED"
	EventEscrowReleased = "ESCROW_RELEASED"
	EventAutoSatisfied  = "AUTO_SATISFIED"
	EventOrderCancelled = "ORDER_CANCELLED"
)

// Event is the payload delivered to observers of an order.
type Event struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
	Message string `json:"message"`
}

// NotificationSink fans events out to interested observers. Delivery is
// best effort: implementations must never fail or block the transition
// that triggered them.
type NotificationSink interface {
	NotifyOrder(ctx context.Context, orderID int64, event Event)
	NotifyAdmins(ctx context.Context, event Event)
}
