package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_HappyPathChain(t *testing.T) {
	chain := []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
	}
}

func TestCanTransition_NoSkippingOrRewinding(t *testing.T) {
	assert.False(t, CanTransition(StatusPending, StatusProcessing))
	assert.False(t, CanTransition(StatusPaid, StatusShipped))
	assert.False(t, CanTransition(StatusShipped, StatusPaid))
	assert.False(t, CanTransition(StatusDelivered, StatusShipped))
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted, StatusCancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
		assert.True(t, terminal.Terminal())
	}
}

func TestCanTransition_OnlyPendingCancels(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	for _, from := range []Status{StatusPaid, StatusProcessing, StatusShipped, StatusDelivered} {
		assert.False(t, CanTransition(from, StatusCancelled), "%s must not cancel", from)
	}
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.False(t, Status("REFUNDED").IsValid())
}

func TestInvalidTransitionError_MatchesSentinel(t *testing.T) {
	err := NewInvalidTransition(StatusDelivered, StatusPaid)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusDelivered, transitionErr.From)
	assert.Equal(t, StatusPaid, transitionErr.To)
}

func TestOrder_Total(t *testing.T) {
	order := &Order{Price: 1000, DeliveryFee: 200}
	assert.Equal(t, int64(1200), order.Total())
}

func TestOrder_PaidOrLater(t *testing.T) {
	assert.False(t, (&Order{Status: StatusPending}).PaidOrLater())
	assert.False(t, (&Order{Status: StatusCancelled}).PaidOrLater())
	for _, status := range []Status{StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted} {
		assert.True(t, (&Order{Status: status}).PaidOrLater(), string(status))
	}
}

func TestOrder_Validate(t *testing.T) {
	valid := Order{Reference: "ref-1", ProductID: 1, BuyerID: 2, SellerID: 3, Status: StatusPending}
	require.NoError(t, valid.Validate())

	missingRef := valid
	missingRef.Reference = ""
	require.Error(t, missingRef.Validate())

	selfPurchase := valid
	selfPurchase.BuyerID = selfPurchase.SellerID
	require.ErrorIs(t, selfPurchase.Validate(), ErrForbidden)

	badStatus := valid
	badStatus.Status = "REFUNDED"
	require.ErrorIs(t, badStatus.Validate(), ErrInvalidTransition)
}

func TestEscrow_AmountFixedAtCreation(t *testing.T) {
	order := &Order{ID: 5, Reference: "ref-5", Price: 1000, DeliveryFee: 200}
	escrow := NewEscrow(order, "NGN")
	assert.Equal(t, int64(1200), escrow.Amount)
	assert.Equal(t, EscrowHeld, escrow.Status)
	assert.Equal(t, "ref-5", escrow.GatewayTransactionID)
	assert.Equal(t, int64(5), escrow.OrderID)
}

func TestEscrow_ReleaseIsTerminal(t *testing.T) {
	order := &Order{ID: 5, Reference: "ref-5", Price: 100}
	escrow := NewEscrow(order, "NGN")

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, escrow.Release(at))
	require.Equal(t, EscrowReleased, escrow.Status)
	require.NotNil(t, escrow.ReleasedAt)
	require.Equal(t, at, *escrow.ReleasedAt)

	err := escrow.Release(at.Add(time.Hour))
	require.True(t, errors.Is(err, ErrEscrowReleased))
	require.Equal(t, at, *escrow.ReleasedAt, "release timestamp must not move")
}
