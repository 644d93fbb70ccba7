// Package cleanup runs the scheduled removal of departed buses.
package cleanup

import (
	"busbook/pkg/config"
	"busbook/pkg/logger"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const LeaseName = "bus-cleanup"

var ErrAlreadyStarted = errors.New("sweeper already started")

// Remover deletes every bus dated before today and reports how many went.
type Remover interface {
	RemoveExpiredBuses(ctx context.Context) (int64, error)
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// Sweeper runs the expired-bus cleanup once at start, every interval, and at
// each local midnight. Only the holder of the cleanup lease deletes.
type Sweeper struct {
	remover  Remover
	leases   LeaseRepository
	log      *logger.Logger
	interval time.Duration
	leaseTTL time.Duration
	owner    string
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(remover Remover, leases LeaseRepository, cfg *config.Config, opts ...Option) *Sweeper {
	s := &Sweeper{
		remover:  remover,
		leases:   leases,
		log:      cfg.Log.Component("cleanup"),
		interval: cfg.CleanupInterval,
		leaseTTL: cfg.CleanupLease,
		owner:    uuid.NewString(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)

	s.log.Info("Expired bus sweeper started",
		"interval", s.interval,
		"owner", s.owner,
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish. Calling it
// on a stopped sweeper does nothing.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("Expired bus sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.runLogged(ctx, "startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	midnight := time.NewTimer(untilNextMidnight(s.now()))
	defer midnight.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx, "interval")
		case <-midnight.C:
			s.runLogged(ctx, "midnight")
			midnight.Reset(untilMidnightAfterRun(s.now()))
		}
	}
}

func (s *Sweeper) runLogged(ctx context.Context, trigger string) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("Expired bus cleanup failed", "trigger", trigger, "error", err)
	}
}

// RunOnce performs one cleanup under the lease. A lease held elsewhere is not
// an error: the run is skipped and 0 is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	if s.leases != nil {
		acquired, err := s.leases.Acquire(ctx, LeaseName, s.owner, s.leaseTTL)
		if err != nil {
			return 0, err
		}
		if !acquired {
			s.log.Debug("Cleanup lease held by another instance, skipping run")
			return 0, nil
		}
		defer s.releaseLease()
	}

	count, err := s.remover.RemoveExpiredBuses(ctx)
	if err != nil {
		return 0, err
	}

	s.log.Info("Expired bus cleanup finished", "deleted", count)
	return count, nil
}

func (s *Sweeper) releaseLease() {
	// the run context may already be cancelled by Stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.leases.Release(ctx, LeaseName, s.owner); err != nil {
		s.log.Warn("Failed to release cleanup lease", "error", err)
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}

// untilMidnightAfterRun is the delay to the next local midnight once a midnight
// run finished. Days are 23 or 25 hours long across DST changes. A timer that
// fired a little early must not schedule the same midnight twice.
func untilMidnightAfterRun(now time.Time) time.Duration {
	d := untilNextMidnight(now)
	if d < time.Minute {
		d += untilNextMidnight(now.Add(d))
	}
	return d
}
