package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

var (
	_ ports.Broker     = (*Hub)(nil)
	_ ports.Subscriber = (*Hub)(nil)
)

const subscriberBuffer = 16

// Hub is an in-process broker: publishes fan out to subscriber channels
// registered on the same hub. A subscriber whose buffer is full misses the
// message rather than blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{groups: map[string]map[chan []byte]struct{}{}}
}

func (h *Hub) Publish(_ context.Context, group string, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.groups[group] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, group string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	if h.groups[group] == nil {
		h.groups[group] = map[chan []byte]struct{}{}
	}
	h.groups[group][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.groups[group], ch)
			if len(h.groups[group]) == 0 {
				delete(h.groups, group)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
