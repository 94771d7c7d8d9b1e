package redis

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

var (
	_ ports.Broker     = (*Broker)(nil)
	_ ports.Subscriber = (*Broker)(nil)
)

// Broker fans notifications out over Redis pub/sub so every API instance
// sees events published by any of them.
type Broker struct {
	client *redis.Client
}

func NewBroker(client *redis.Client) (*Broker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Broker{client: client}, nil
}

func (b *Broker) Publish(ctx context.Context, group string, payload []byte) error {
	return b.client.Publish(ctx, group, payload).Err()
}

func (b *Broker) Subscribe(ctx context.Context, group string) (<-chan []byte, func(), error) {
	pubsub := b.client.Subscribe(ctx, group)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}
	out := make(chan []byte)
	done := make(chan struct{})
	go func() {
		defer close(out)
		src := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-done:
					return
				}
			}
		}
	}()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}
