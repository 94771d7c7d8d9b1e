package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

// Sweep cadences. The release sweep runs often enough that an expired hold
// is released within minutes of its window lapsing; the cancel sweep can be
// lazier because nothing is owed to anyone on an unpaid order.
const (
	releaseEvery = "@every 10m"
	cancelEvery  = "@every 30m"

	sweepTimeout = 5 * time.Minute
)

// Scheduler runs the periodic order sweeps. Each job skips its next tick if
// the previous run is still in flight, and the shared mutex keeps the two
// sweeps from running concurrently when their ticks coincide.
type Scheduler struct {
	service ordersports.Service
	logger  *slog.Logger
	cron    *cron.Cron

	sweepMu sync.Mutex
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler registers the auto-release and auto-cancel sweeps.
func NewScheduler(service ordersports.Service, opts ...Option) (*Scheduler, error) {
	if service == nil {
		return nil, errors.New("order service is required")
	}
	s := &Scheduler{service: service}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(releaseEvery, s.runReleaseExpired); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cancelEvery, s.runCancelStale); err != nil {
		return nil, err
	}
	s.cron = c
	return s, nil
}

// Start launches the sweep loop in its own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running sweeps to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runReleaseExpired() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	count, err := s.service.ReleaseExpired(ctx)
	if err != nil {
		s.logError(ctx, "auto-release sweep failed", err)
		return
	}
	if count > 0 {
		s.logInfo(ctx, "auto-release sweep released escrows", count)
	}
}

func (s *Scheduler) runCancelStale() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	count, err := s.service.CancelStale(ctx)
	if err != nil {
		s.logError(ctx, "auto-cancel sweep failed", err)
		return
	}
	if count > 0 {
		s.logInfo(ctx, "auto-cancel sweep cancelled orders", count)
	}
}

func (s *Scheduler) logInfo(ctx context.Context, msg string, count int) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.Int("count", count))
}

func (s *Scheduler) logError(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, slog.String("error", err.Error()))
}
