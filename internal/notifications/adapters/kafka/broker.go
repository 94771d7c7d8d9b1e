package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

var _ ports.Broker = (*Broker)(nil)

// DefaultTopic is the stream downstream consumers (analytics, audit) read
// order events from.
const DefaultTopic = "order-events"

// Broker publishes order events to a Kafka topic, keyed by group so events
// for one order land on one partition in order.
type Broker struct {
	writer *kafka.Writer
}

// NewBroker builds a producer for the given brokers and topic.
func NewBroker(brokers []string, topic string) (*Broker, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Broker{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}, nil
}

func (b *Broker) Publish(ctx context.Context, group string, payload []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(group),
		Value: payload,
	})
}

func (b *Broker) Close() error {
	return b.writer.Close()
}
