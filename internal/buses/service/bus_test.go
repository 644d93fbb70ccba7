package service

import (
	buserrors "busbook/internal/buses/errors"
	"busbook/internal/buses/validator"
	"busbook/internal/events"
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBusID = "65f1a2b3c4d5e6f708192a3b"

// memRepo is an in-memory seat map store with the same compare-and-swap
// contract as the Mongo repository.
type memRepo struct {
	mu    sync.Mutex
	buses map[string]*model.Bus
	saves int

	beforeSave func(bus *model.Bus)
	saveErr    error
	findErr    error
	searchErr  error

	deleteBefore string
	deleteCount  int64
	deleteErr    error
	created      []*model.Bus
}

func newMemRepo(buses ...*model.Bus) *memRepo {
	r := &memRepo{buses: map[string]*model.Bus{}}
	for _, b := range buses {
		r.buses[b.ID] = cloneBus(b)
	}
	return r
}

func cloneBus(b *model.Bus) *model.Bus {
	c := *b
	c.SeatsBooked = slices.Clone(b.SeatsBooked)
	c.SeatLocks = slices.Clone(b.SeatLocks)
	c.Confirmations = slices.Clone(b.Confirmations)
	return &c
}

func (r *memRepo) Create(_ context.Context, bus *model.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bus.ID = testBusID
	r.created = append(r.created, cloneBus(bus))
	r.buses[bus.ID] = cloneBus(bus)
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	b, ok := r.buses[id]
	if !ok {
		return nil, buserrors.ErrNotFound
	}
	return cloneBus(b), nil
}

func (r *memRepo) Search(_ context.Context, _ model.BusSearchFilter) ([]*model.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	out := []*model.Bus{}
	for _, b := range r.buses {
		out = append(out, cloneBus(b))
	}
	return out, nil
}

func (r *memRepo) SaveSeatState(_ context.Context, bus *model.Bus) error {
	r.mu.Lock()
	hook := r.beforeSave
	r.beforeSave = nil
	r.mu.Unlock()
	if hook != nil {
		hook(bus)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.buses[bus.ID]
	if !ok {
		return buserrors.ErrNotFound
	}
	if stored.Version != bus.Version {
		return buserrors.ErrVersionConflict
	}
	bus.Version++
	r.buses[bus.ID] = cloneBus(bus)
	r.saves++
	return nil
}

func (r *memRepo) DeleteDatedBefore(_ context.Context, date string) (int64, error) {
	r.deleteBefore = date
	return r.deleteCount, r.deleteErr
}

func (r *memRepo) FindWithBookedSeats(_ context.Context) ([]*model.Bus, error) {
	return nil, nil
}

func (r *memRepo) stored(t *testing.T) *model.Bus {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buses[testBusID]
	require.True(t, ok)
	return cloneBus(b)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc    BusService
	repo   *memRepo
	clock  *fakeClock
	events *events.Recorder
}

func testConfig() *config.Config {
	return &config.Config{
		SeatLockTTL:        config.DefaultSeatLockTTL,
		SeatCASRetries:     config.DefaultSeatCASRetries,
		MaxSeatsPerRequest: config.DefaultMaxSeatsPerRequest,
		Log:                logger.Discard(),
	}
}

func newFixture(t *testing.T, buses ...*model.Bus) *fixture {
	t.Helper()
	if len(buses) == 0 {
		buses = []*model.Bus{sampleBus()}
	}
	f := &fixture{
		repo:   newMemRepo(buses...),
		clock:  &fakeClock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)},
		events: &events.Recorder{},
	}
	cfg := testConfig()
	f.svc = NewBusService(f.repo, validator.NewBusValidator(cfg.Log), cfg,
		WithClock(f.clock.Now),
		WithPublisher(f.events),
	)
	return f
}

func sampleBus() *model.Bus {
	return &model.Bus{
		ID:            testBusID,
		BusName:       "Night Rider",
		Source:        "Pune",
		Destination:   "Goa",
		Date:          "2026-03-12",
		DepartureTime: "21:30",
		ArrivalTime:   "06:15",
		Price:         1200,
		TotalSeats:    40,
		SeatsBooked:   []int{},
		SeatLocks:     []model.SeatLock{},
	}
}

func lockReq(email string, seats ...int) *model.LockSeatsRequest {
	return &model.LockSeatsRequest{Seats: seats, PassengerName: "Asha Rao", PassengerEmail: email}
}

func confirmReq(email, txID string, seats ...int) *model.ConfirmBookingRequest {
	return &model.ConfirmBookingRequest{Seats: seats, PassengerEmail: email, TransactionID: txID}
}

func requireCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

// ────────────────────────────────────────────────
// LockSeats
// ────────────────────────────────────────────────

func TestLockSeats_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.LockSeats(ctx, testBusID, lockReq(" Asha@Example.com ", 4, 3))
	require.NoError(t, err)

	assert.Equal(t, "Seats locked for 5 minutes", resp.Message)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), resp.ExpiresAt)

	bus := f.repo.stored(t)
	require.Len(t, bus.SeatLocks, 2)
	assert.Equal(t, 3, bus.SeatLocks[0].SeatNumber)
	assert.Equal(t, 4, bus.SeatLocks[1].SeatNumber)
	assert.Equal(t, "asha@example.com", bus.SeatLocks[0].PassengerEmail)
	assert.Equal(t, f.clock.Now(), bus.SeatLocks[0].LockedAt)
	assert.Equal(t, int64(1), bus.Version)

	locked := f.events.OfType(events.SeatsLocked)
	require.Len(t, locked, 1)
	assert.Equal(t, []int{3, 4}, locked[0].Seats)
	assert.Equal(t, testBusID, locked[0].BusID)
}

func TestLockSeats_BookedSeatConflicts(t *testing.T) {
	bus := sampleBus()
	bus.SeatsBooked = []int{7}
	f := newFixture(t, bus)

	_, err := f.svc.LockSeats(context.Background(), testBusID, lockReq("a@example.com", 6, 7))
	appErr := requireCode(t, err, apperrors.CodeSeatConflict)
	assert.Equal(t, 400, appErr.StatusCode())
	assert.Equal(t, "Seat already locked or booked", appErr.Message)
	assert.Equal(t, []int{7}, appErr.Details["seats"])

	assert.Empty(t, f.repo.stored(t).SeatLocks, "no partial lock may be written")
	assert.Empty(t, f.events.Events())
}

func TestLockSeats_LiveLockConflictsEvenForSameHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)

	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	requireCode(t, err, apperrors.CodeSeatConflict)

	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	requireCode(t, err, apperrors.CodeSeatConflict)
}

func TestLockSeats_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)

	f.clock.Advance(5*time.Minute - time.Second)
	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	requireCode(t, err, apperrors.CodeSeatConflict)

	f.clock.Advance(time.Second)
	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	require.NoError(t, err, "a lock expiring exactly now no longer holds")

	bus := f.repo.stored(t)
	require.Len(t, bus.SeatLocks, 1, "expired lock is pruned on write")
	assert.Equal(t, "b@example.com", bus.SeatLocks[0].PassengerEmail)
}

func TestLockSeats_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *model.LockSeatsRequest
	}{
		{name: "empty seats", req: lockReq("a@example.com")},
		{name: "duplicate seats", req: lockReq("a@example.com", 2, 2)},
		{name: "zero seat", req: lockReq("a@example.com", 0)},
		{name: "bad email", req: lockReq("not-an-email", 1)},
		{name: "too many seats", req: lockReq("a@example.com", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)},
		{name: "beyond capacity", req: lockReq("a@example.com", 41)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.LockSeats(context.Background(), testBusID, tt.req)
			requireCode(t, err, apperrors.CodeInvalidInput)
			assert.Equal(t, 0, f.repo.saves)
		})
	}
}

func TestLockSeats_BusNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.LockSeats(context.Background(), "65f1a2b3c4d5e6f708192aff", lockReq("a@example.com", 1))
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestLockSeats_InvalidID(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = buserrors.ErrInvalidID
	_, err := f.svc.LockSeats(context.Background(), "xyz", lockReq("a@example.com", 1))
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestLockSeats_LoserOfRaceSeesWinnersLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var winnerErr error
	f.repo.beforeSave = func(_ *model.Bus) {
		// B commits between A's read and A's write.
		_, winnerErr = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	}

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, winnerErr)
	requireCode(t, err, apperrors.CodeSeatConflict)

	bus := f.repo.stored(t)
	require.Len(t, bus.SeatLocks, 1)
	assert.Equal(t, "b@example.com", bus.SeatLocks[0].PassengerEmail)
	assert.Len(t, f.events.OfType(events.SeatsLocked), 1)
}

func TestLockSeats_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicted, busy := 0, 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := string(rune('a'+i)) + "@example.com"
			_, err := f.svc.LockSeats(ctx, testBusID, lockReq(email, 3))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, apperrors.CodeSeatConflict):
				conflicted++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicted+busy)
	assert.Len(t, f.repo.stored(t).SeatLocks, 1)
}

func TestLockSeats_RetriesExhausted(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = buserrors.ErrVersionConflict

	_, err := f.svc.LockSeats(context.Background(), testBusID, lockReq("a@example.com", 1))
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, 409, appErr.StatusCode())
}

func TestLockSeats_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = errors.New("connection reset")

	_, err := f.svc.LockSeats(context.Background(), testBusID, lockReq("a@example.com", 1))
	requireCode(t, err, apperrors.CodeInternal)
}

func TestLockSeats_PublisherFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.events.Err = errors.New("broker down")

	_, err := f.svc.LockSeats(context.Background(), testBusID, lockReq("a@example.com", 1))
	require.NoError(t, err)
	assert.Len(t, f.repo.stored(t).SeatLocks, 1)
}

// ────────────────────────────────────────────────
// UnlockSeats / ReleaseExpiredLocks
// ────────────────────────────────────────────────

func TestUnlockSeats_RemovesAnyHolderAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 4, 5))
	require.NoError(t, err)

	resp, err := f.svc.UnlockSeats(ctx, testBusID, &model.UnlockSeatsRequest{Seats: []int{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, "Seat locks released", resp.Message)
	assert.Equal(t, 2, resp.Removed)

	savesBefore := f.repo.saves
	resp, err = f.svc.UnlockSeats(ctx, testBusID, &model.UnlockSeatsRequest{Seats: []int{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Removed)
	assert.Equal(t, savesBefore, f.repo.saves, "no write when nothing changed")

	bus := f.repo.stored(t)
	require.Len(t, bus.SeatLocks, 1)
	assert.Equal(t, 5, bus.SeatLocks[0].SeatNumber)
	assert.Len(t, f.events.OfType(events.SeatsUnlocked), 1)
}

func TestUnlockSeats_EmptyList(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UnlockSeats(context.Background(), testBusID, &model.UnlockSeatsRequest{Seats: []int{}})
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestUnlockSeats_RemovesExpiredLocksToo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	resp, err := f.svc.UnlockSeats(ctx, testBusID, &model.UnlockSeatsRequest{Seats: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Removed)
}

func TestReleaseExpiredLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 1, 2))
	require.NoError(t, err)
	f.clock.Advance(3 * time.Minute)
	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	resp, err := f.svc.ReleaseExpiredLocks(ctx, testBusID)
	require.NoError(t, err)
	assert.Equal(t, "Expired locks released", resp.Message)
	assert.Equal(t, 2, resp.Removed)

	bus := f.repo.stored(t)
	require.Len(t, bus.SeatLocks, 1)
	assert.Equal(t, 3, bus.SeatLocks[0].SeatNumber)

	resp, err = f.svc.ReleaseExpiredLocks(ctx, testBusID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Removed)
}

func TestReleaseExpiredLocks_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReleaseExpiredLocks(context.Background(), "65f1a2b3c4d5e6f708192aff")
	requireCode(t, err, apperrors.CodeNotFound)
}

// ────────────────────────────────────────────────
// ConfirmBooking
// ────────────────────────────────────────────────

func TestConfirmBooking_Success(t *testing.T) {
	bus := sampleBus()
	bus.SeatsBooked = []int{10}
	f := newFixture(t, bus)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3, 1))
	require.NoError(t, err)

	resp, err := f.svc.ConfirmBooking(ctx, testBusID, confirmReq("A@Example.com", "TXN_1", 1, 3))
	require.NoError(t, err)
	assert.Equal(t, "Booking confirmed", resp.Message)
	assert.Equal(t, []int{1, 3, 10}, resp.Bus.SeatsBooked)
	assert.Empty(t, resp.Bus.SeatLocks)

	stored := f.repo.stored(t)
	assert.Equal(t, []int{1, 3, 10}, stored.SeatsBooked)
	require.NotNil(t, stored.FindConfirmation("TXN_1"))

	confirmed := f.events.OfType(events.BookingConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "TXN_1", confirmed[0].TransactionID)
}

func TestConfirmBooking_RequiresLiveLockOfSameHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)

	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("b@example.com", "", 3))
	appErr := requireCode(t, err, apperrors.CodeLockMissing)
	assert.Equal(t, "Some seats were not locked by this passenger", appErr.Message)

	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "", 3, 4))
	appErr = requireCode(t, err, apperrors.CodeLockMissing)
	assert.Equal(t, []int{4}, appErr.Details["seats"])

	assert.Empty(t, f.repo.stored(t).SeatsBooked)
}

func TestConfirmBooking_ExpiredLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "", 3))
	requireCode(t, err, apperrors.CodeLockMissing)
}

func TestConfirmBooking_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)

	first, err := f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "TXN_42", 3))
	require.NoError(t, err)
	second, err := f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "TXN_42", 3))
	require.NoError(t, err)

	assert.Equal(t, first.Bus.SeatsBooked, second.Bus.SeatsBooked)
	assert.Equal(t, first.Bus.Version, second.Bus.Version)
	assert.Len(t, f.events.OfType(events.BookingConfirmed), 1)
	assert.Equal(t, []int{3}, f.repo.stored(t).SeatsBooked)
}

func TestConfirmBooking_ReusedKeyForOtherSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3, 4))
	require.NoError(t, err)
	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "TXN_7", 3))
	require.NoError(t, err)

	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "TXN_7", 4))
	requireCode(t, err, apperrors.CodeConflict)
}

func TestConfirmBooking_ReplayByOtherPassenger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "TXN_9", 3))
	require.NoError(t, err)

	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("b@example.com", "TXN_9", 3))
	requireCode(t, err, apperrors.CodeLockMissing)

	// the original passenger can still replay
	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("A@Example.com", "TXN_9", 3))
	require.NoError(t, err)
	assert.Len(t, f.events.OfType(events.BookingConfirmed), 1)
}

func TestConfirmBooking_BookedSeatCannotBeLockedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	_, err = f.svc.ConfirmBooking(ctx, testBusID, confirmReq("a@example.com", "", 3))
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.LockSeats(ctx, testBusID, lockReq("b@example.com", 3))
	requireCode(t, err, apperrors.CodeSeatConflict)
}

// ────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────

func TestGetByID_PrunesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	f.clock.Advance(6 * time.Minute)

	bus, err := f.svc.GetByID(ctx, testBusID)
	require.NoError(t, err)
	assert.Empty(t, bus.SeatLocks)
	assert.Empty(t, f.repo.stored(t).SeatLocks)
}

func TestGetByID_PersistFailureStillReturnsPrunedBus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockSeats(ctx, testBusID, lockReq("a@example.com", 3))
	require.NoError(t, err)
	f.clock.Advance(6 * time.Minute)
	f.repo.saveErr = errors.New("write concern timeout")

	bus, err := f.svc.GetByID(ctx, testBusID)
	require.NoError(t, err)
	assert.Empty(t, bus.SeatLocks)
	assert.Len(t, f.repo.stored(t).SeatLocks, 1)
}

func TestGetByID_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetByID(ctx, "")
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.svc.GetByID(ctx, "65f1a2b3c4d5e6f708192aff")
	requireCode(t, err, apperrors.CodeNotFound)

	f.repo.findErr = errors.New("server selection timeout")
	_, err = f.svc.GetByID(ctx, testBusID)
	appErr := requireCode(t, err, apperrors.CodeInternal)
	assert.Equal(t, 500, appErr.StatusCode())
}

func TestSearch_PrunesInMemoryOnly(t *testing.T) {
	bus := sampleBus()
	bus.SeatLocks = []model.SeatLock{{
		SeatNumber: 2,
		ExpiresAt:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local),
	}}
	f := newFixture(t, bus)

	buses, err := f.svc.Search(context.Background(), model.BusSearchFilter{Source: "  pune ", Date: "2026-03-12"})
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Empty(t, buses[0].SeatLocks)
	assert.Len(t, f.repo.stored(t).SeatLocks, 1)
	assert.Equal(t, 0, f.repo.saves)
}

func TestSearch_InvalidDate(t *testing.T) {
	f := newFixture(t)
	for _, date := range []string{"12-03-2026", "2026-02-30", "tomorrow"} {
		_, err := f.svc.Search(context.Background(), model.BusSearchFilter{Date: date})
		requireCode(t, err, apperrors.CodeInvalidInput)
	}
}

// ────────────────────────────────────────────────
// Create / cleanup
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)
	bus := sampleBus()
	bus.ID = ""
	bus.BusName = "  Night   Rider "
	bus.SeatsBooked = nil
	bus.SeatLocks = nil

	require.NoError(t, f.svc.Create(context.Background(), bus))
	require.Len(t, f.repo.created, 1)
	created := f.repo.created[0]
	assert.Equal(t, "Night Rider", created.BusName)
	assert.NotNil(t, created.SeatsBooked)
	assert.NotNil(t, created.SeatLocks)
	assert.Equal(t, int64(0), created.Version)
}

func TestCreate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *model.Bus)
	}{
		{name: "past date", mutate: func(b *model.Bus) { b.Date = "2026-03-09" }},
		{name: "bad time", mutate: func(b *model.Bus) { b.DepartureTime = "25:00" }},
		{name: "too many seats", mutate: func(b *model.Bus) { b.TotalSeats = 101 }},
		{name: "same endpoints", mutate: func(b *model.Bus) { b.Destination = b.Source }},
		{name: "booked beyond capacity", mutate: func(b *model.Bus) { b.SeatsBooked = []int{41} }},
		{name: "zero price", mutate: func(b *model.Bus) { b.Price = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			bus := sampleBus()
			bus.ID = ""
			tt.mutate(bus)

			err := f.svc.Create(context.Background(), bus)
			appErr := requireCode(t, err, apperrors.CodeValidation)
			assert.Equal(t, 422, appErr.StatusCode())
			assert.Empty(t, f.repo.created)
		})
	}
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t)
	f.repo.deleteCount = 3

	resp, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Removed 3 expired buses", resp.Message)
	assert.Equal(t, int64(3), resp.DeletedCount)
	assert.Equal(t, "2026-03-10", f.repo.deleteBefore)

	expired := f.events.OfType(events.BusesExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(3), expired[0].Count)
}

func TestCleanupExpired_NothingToRemove(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Removed 0 expired buses", resp.Message)
	assert.Empty(t, f.events.Events())
}

func TestCleanupExpired_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.deleteErr = errors.New("not primary")

	_, err := f.svc.CleanupExpired(context.Background())
	requireCode(t, err, apperrors.CodeInternal)
}

func TestFormatTTL(t *testing.T) {
	assert.Equal(t, "5 minutes", formatTTL(5*time.Minute))
	assert.Equal(t, "1 minute", formatTTL(time.Minute))
	assert.Equal(t, "30 seconds", formatTTL(30*time.Second))
}
