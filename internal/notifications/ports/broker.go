package ports

import "context"

// Group names used by the order engine's fan-out.
const (
	// AdminGroup receives every order event.
	AdminGroup = "admin:orders"
)

// Broker delivers a payload to every observer of a named group.
type Broker interface {
	Publish(ctx context.Context, group string, payload []byte) error
}

// Subscriber attaches an observer to a group. The returned cancel func
// detaches the observer and closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, group string) (<-chan []byte, func(), error)
}
