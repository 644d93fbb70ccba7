package cleanup

import (
	"busbook/pkg/config"
	"busbook/pkg/logger"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRemover struct {
	calls atomic.Int32
	count int64
	err   error
}

func (r *countingRemover) RemoveExpiredBuses(context.Context) (int64, error) {
	r.calls.Add(1)
	return r.count, r.err
}

type memLeases struct {
	mu       sync.Mutex
	holder   string
	until    time.Time
	released int
	err      error
}

func (l *memLeases) Acquire(_ context.Context, _, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	now := time.Now()
	if l.holder != "" && l.holder != owner && now.Before(l.until) {
		return false, nil
	}
	l.holder, l.until = owner, now.Add(ttl)
	return true, nil
}

func (l *memLeases) Release(_ context.Context, _, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == owner {
		l.holder = ""
		l.released++
	}
	return nil
}

func testConfig(interval time.Duration) *config.Config {
	return &config.Config{
		CleanupInterval: interval,
		CleanupLease:    time.Minute,
		Log:             logger.Discard(),
	}
}

func TestRunOnce_DeletesUnderLease(t *testing.T) {
	remover := &countingRemover{count: 4}
	leases := &memLeases{}
	s := NewSweeper(remover, leases, testConfig(time.Hour))

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 1, leases.released)
	assert.Empty(t, leases.holder)
}

func TestRunOnce_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	remover := &countingRemover{count: 4}
	leases := &memLeases{holder: "other-replica", until: time.Now().Add(time.Minute)}
	s := NewSweeper(remover, leases, testConfig(time.Hour))

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, remover.calls.Load())
}

func TestRunOnce_Errors(t *testing.T) {
	leaseErr := errors.New("mongo down")
	s := NewSweeper(&countingRemover{}, &memLeases{err: leaseErr}, testConfig(time.Hour))
	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, leaseErr)

	removeErr := errors.New("delete failed")
	leases := &memLeases{}
	s = NewSweeper(&countingRemover{err: removeErr}, leases, testConfig(time.Hour))
	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, removeErr)
	assert.Equal(t, 1, leases.released, "lease is released after a failed run")
}

func TestStart_RunsImmediatelyAndOnInterval(t *testing.T) {
	remover := &countingRemover{}
	s := NewSweeper(remover, nil, testConfig(10*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return remover.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStart_Twice(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) }
	s := NewSweeper(&countingRemover{}, nil, testConfig(time.Hour), WithClock(clock))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	s.Stop()
	s.Stop()
}

func TestStop_HaltsRuns(t *testing.T) {
	remover := &countingRemover{}
	s := NewSweeper(remover, nil, testConfig(5*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return remover.calls.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	after := remover.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, remover.calls.Load())
}

func TestUntilNextMidnight(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	assert.Equal(t, 2*time.Hour, untilNextMidnight(time.Date(2026, 3, 10, 22, 0, 0, 0, loc)))
	assert.Equal(t, 24*time.Hour, untilNextMidnight(time.Date(2026, 3, 10, 0, 0, 0, 0, loc)))
	assert.Equal(t, time.Second, untilNextMidnight(time.Date(2026, 12, 31, 23, 59, 59, 0, loc)))
}

func TestUntilMidnightAfterRun(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{name: "regular day", now: time.Date(2026, 3, 10, 0, 0, 0, 0, ny), want: 24 * time.Hour},
		{name: "clocks spring forward", now: time.Date(2026, 3, 8, 0, 0, 0, 0, ny), want: 23 * time.Hour},
		{name: "clocks fall back", now: time.Date(2026, 11, 1, 0, 0, 0, 0, ny), want: 25 * time.Hour},
		{name: "timer fired early", now: time.Date(2026, 3, 9, 23, 59, 59, 500_000_000, ny), want: 24*time.Hour + 500*time.Millisecond},
		{name: "run finished late", now: time.Date(2026, 3, 10, 0, 5, 0, 0, ny), want: 23*time.Hour + 55*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, untilMidnightAfterRun(tt.now))
		})
	}
}
