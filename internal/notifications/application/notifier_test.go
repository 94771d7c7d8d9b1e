package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
	"github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"
)

type recordingBroker struct {
	mu       sync.Mutex
	err      error
	messages map[string][][]byte
}

func newRecordingBroker() *recordingBroker {
	return &recordingBroker{messages: map[string][][]byte{}}
}

func (b *recordingBroker) Publish(_ context.Context, group string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages[group] = append(b.messages[group], payload)
	return nil
}

func TestNotifier_FansOutToAllBrokers(t *testing.T) {
	first := newRecordingBroker()
	second := newRecordingBroker()
	notifier := NewNotifier([]ports.Broker{first, second})

	event := ordersports.Event{Type: ordersports.EventOrderPaid, OrderID: 7, Message: "order paid"}
	notifier.NotifyOrder(context.Background(), 7, event)

	for _, broker := range []*recordingBroker{first, second} {
		require.Len(t, broker.messages[OrderGroup(7)], 1)
		var decoded ordersports.Event
		require.NoError(t, json.Unmarshal(broker.messages[OrderGroup(7)][0], &decoded))
		assert.Equal(t, event, decoded)
	}
}

func TestNotifier_AdminEventsUseAdminGroup(t *testing.T) {
	broker := newRecordingBroker()
	notifier := NewNotifier([]ports.Broker{broker})

	notifier.NotifyAdmins(context.Background(), ordersports.Event{Type: ordersports.EventOrderCancelled, OrderID: 3})

	assert.Len(t, broker.messages[ports.AdminGroup], 1)
	assert.Empty(t, broker.messages[OrderGroup(3)])
}

func TestNotifier_SkipsNilBrokers(t *testing.T) {
	broker := newRecordingBroker()
	notifier := NewNotifier([]ports.Broker{nil, broker, nil})

	notifier.NotifyOrder(context.Background(), 1, ordersports.Event{Type: ordersports.EventStatusChanged, OrderID: 1})

	assert.Len(t, broker.messages[OrderGroup(1)], 1)
}

func TestNotifier_BrokerFailureDoesNotStopFanOut(t *testing.T) {
	failing := newRecordingBroker()
	failing.err = errors.New("broker down")
	healthy := newRecordingBroker()
	notifier := NewNotifier([]ports.Broker{failing, healthy})

	notifier.NotifyOrder(context.Background(), 2, ordersports.Event{Type: ordersports.EventEscrowReleased, OrderID: 2})

	assert.Len(t, healthy.messages[OrderGroup(2)], 1)
}
