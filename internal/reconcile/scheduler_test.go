package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

type sweepRecorder struct {
	ordersports.Service

	running int32
	overlap int32
	calls   int32
}

func (s *sweepRecorder) sweep() (int, error) {
	if atomic.AddInt32(&s.running, 1) > 1 {
		atomic.StoreInt32(&s.overlap, 1)
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&s.running, -1)
	atomic.AddInt32(&s.calls, 1)
	return 0, nil
}

func (s *sweepRecorder) ReleaseExpired(_ context.Context) (int, error) { return s.sweep() }
func (s *sweepRecorder) CancelStale(_ context.Context) (int, error)    { return s.sweep() }

func TestNewScheduler_RequiresService(t *testing.T) {
	_, err := NewScheduler(nil)
	require.Error(t, err)
}

func TestScheduler_SweepsNeverOverlapEachOther(t *testing.T) {
	recorder := &sweepRecorder{}
	s, err := NewScheduler(recorder)
	require.NoError(t, err)

	// Fire both sweeps from concurrent goroutines, the worst case of their
	// cron ticks coinciding.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); s.runReleaseExpired() }()
		go func() { defer wg.Done(); s.runCancelStale() }()
	}
	wg.Wait()

	require.EqualValues(t, 8, atomic.LoadInt32(&recorder.calls))
	require.Zero(t, atomic.LoadInt32(&recorder.overlap), "sweeps must run one at a time")
}
