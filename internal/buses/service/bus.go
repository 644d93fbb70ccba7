package service

import (
	buserrors "busbook/internal/buses/errors"
	"busbook/internal/buses/repository"
	"busbook/internal/buses/validator"
	"busbook/internal/events"
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

type BusService interface {
	Create(ctx context.Context, bus *model.Bus) error
	GetByID(ctx context.Context, id string) (*model.Bus, error)
	Search(ctx context.Context, filter model.BusSearchFilter) ([]*model.Bus, error)

	LockSeats(ctx context.Context, id string, req *model.LockSeatsRequest) (*model.LockSeatsResponse, error)
	UnlockSeats(ctx context.Context, id string, req *model.UnlockSeatsRequest) (*model.ReleaseLocksResponse, error)
	ConfirmBooking(ctx context.Context, id string, req *model.ConfirmBookingRequest) (*model.ConfirmBookingResponse, error)
	ReleaseExpiredLocks(ctx context.Context, id string) (*model.ReleaseLocksResponse, error)

	CleanupExpired(ctx context.Context) (*model.CleanupResponse, error)
	RemoveExpiredBuses(ctx context.Context) (int64, error)
}

type Option func(*busService)

// WithClock replaces time.Now. Tests use it to step over lock expiry.
func WithClock(now func() time.Time) Option {
	return func(s *busService) {
		s.now = now
	}
}

func WithPublisher(pub events.Publisher) Option {
	return func(s *busService) {
		s.publisher = pub
	}
}

type busService struct {
	repo      repository.BusRepository
	validator *validator.BusValidator
	cfg       *config.Config
	publisher events.Publisher
	now       func() time.Time
}

func NewBusService(
	repo repository.BusRepository,
	validator *validator.BusValidator,
	cfg *config.Config,
	opts ...Option,
) BusService {
	s := &busService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// seatMutation edits a freshly loaded bus in place. It reports whether the
// seat state changed and therefore needs a compare-and-swap write.
type seatMutation func(bus *model.Bus, now time.Time) (bool, error)

func (s *busService) mutateSeats(ctx context.Context, id, op string, fn seatMutation) (*model.Bus, error) {
	for attempt := 1; attempt <= s.cfg.SeatCASRetries; attempt++ {
		bus, err := s.load(ctx, id, op)
		if err != nil {
			return nil, err
		}

		now := s.now()
		changed, err := fn(bus, now)
		if err != nil {
			return nil, err
		}
		if !changed {
			return bus, nil
		}

		bus.UpdatedAt = now
		err = s.repo.SaveSeatState(ctx, bus)
		if err == nil {
			return bus, nil
		}
		if errors.Is(err, buserrors.ErrVersionConflict) {
			s.cfg.Log.Debug("Seat map changed concurrently, retrying",
				"operation", op,
				"bus_id", id,
				"attempt", attempt,
			)
			continue
		}
		return nil, s.translateRepoError(err, id, op)
	}

	s.cfg.Log.Warn("Seat map update gave up after repeated conflicts",
		"operation", op,
		"bus_id", id,
		"retries", s.cfg.SeatCASRetries,
	)
	return nil, apperrors.Conflict("Seat map is busy, please retry")
}

func (s *busService) load(ctx context.Context, id, op string) (*model.Bus, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bus ID cannot be empty")
	}
	bus, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, op)
	}
	return bus, nil
}

func (s *busService) translateRepoError(err error, id, op string) error {
	if errors.Is(err, buserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Bus", id)
	}
	if errors.Is(err, buserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bus ID format")
	}
	s.cfg.Log.Error("Bus storage operation failed",
		"operation", op,
		"bus_id", id,
		"error", err,
	)
	return apperrors.Internal("Failed to access bus storage", err)
}

func (s *busService) Create(ctx context.Context, bus *model.Bus) error {
	s.sanitize(bus)

	if err := s.validator.Validate(bus); err != nil {
		s.cfg.Log.Warn("Bus validation failed",
			"bus_name", bus.BusName,
			"date", bus.Date,
			"error", err,
		)
		return apperrors.Validation("Bus validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	today := s.now().In(time.Local).Format(validator.DateLayout)
	if bus.Date < today {
		return apperrors.Validation("Bus validation failed", map[string]any{
			"error": fmt.Sprintf("date %s is in the past", bus.Date),
		})
	}
	for _, seat := range bus.SeatsBooked {
		if seat > bus.TotalSeats {
			return apperrors.Validation("Bus validation failed", map[string]any{
				"error": fmt.Sprintf("booked seat %d exceeds total seats %d", seat, bus.TotalSeats),
			})
		}
	}

	if err := s.repo.Create(ctx, bus); err != nil {
		s.cfg.Log.Error("Failed to create bus",
			"bus_name", bus.BusName,
			"error", err,
		)
		return apperrors.Internal("Failed to create bus", err)
	}

	s.cfg.Log.Info("Bus created successfully",
		"id", bus.ID,
		"bus_name", bus.BusName,
		"source", bus.Source,
		"destination", bus.Destination,
		"date", bus.Date,
	)
	return nil
}

func (s *busService) GetByID(ctx context.Context, id string) (*model.Bus, error) {
	bus, err := s.load(ctx, id, "GetByID")
	if err != nil {
		return nil, err
	}

	now := s.now()
	if pruned := bus.PruneExpired(now); pruned > 0 {
		bus.UpdatedAt = now
		if err := s.repo.SaveSeatState(ctx, bus); err != nil {
			s.cfg.Log.Warn("Failed to persist pruned seat locks",
				"bus_id", id,
				"pruned", pruned,
				"error", err,
			)
		}
	}

	return bus, nil
}

func (s *busService) Search(ctx context.Context, filter model.BusSearchFilter) ([]*model.Bus, error) {
	filter.Source = sanitizer.NormalizeCity(filter.Source)
	filter.Destination = sanitizer.NormalizeCity(filter.Destination)
	filter.Date = sanitizer.TrimAndNormalize(filter.Date)

	if filter.Date != "" && !validator.IsValidDate(filter.Date) {
		return nil, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}

	buses, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to search buses",
			"source", filter.Source,
			"destination", filter.Destination,
			"date", filter.Date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search buses", err)
	}

	now := s.now()
	for _, bus := range buses {
		bus.PruneExpired(now)
	}

	s.cfg.Log.Debug("Bus search completed",
		"source", filter.Source,
		"destination", filter.Destination,
		"date", filter.Date,
		"results_count", len(buses),
	)
	return buses, nil
}

func (s *busService) LockSeats(ctx context.Context, id string, req *model.LockSeatsRequest) (*model.LockSeatsResponse, error) {
	req.PassengerName = sanitizer.NormalizeName(req.PassengerName)
	req.PassengerEmail = sanitizer.NormalizeEmail(req.PassengerEmail)

	if err := s.validator.ValidateLock(req); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if len(req.Seats) > s.cfg.MaxSeatsPerRequest {
		return nil, apperrors.InvalidInput(fmt.Sprintf("At most %d seats can be locked per request", s.cfg.MaxSeatsPerRequest))
	}

	seats := sanitizer.NormalizeSeats(req.Seats)
	var expiresAt time.Time

	bus, err := s.mutateSeats(ctx, id, "LockSeats", func(bus *model.Bus, now time.Time) (bool, error) {
		if err := checkCapacity(bus, seats); err != nil {
			return false, err
		}

		bus.PruneExpired(now)

		var taken []int
		for _, seat := range seats {
			if bus.IsBooked(seat) || bus.LiveLock(seat, now) != nil {
				taken = append(taken, seat)
			}
		}
		if len(taken) > 0 {
			return false, apperrors.SeatConflict(taken)
		}

		expiresAt = now.Add(s.cfg.SeatLockTTL)
		for _, seat := range seats {
			bus.SeatLocks = append(bus.SeatLocks, model.SeatLock{
				SeatNumber:     seat,
				LockedAt:       now,
				ExpiresAt:      expiresAt,
				PassengerName:  req.PassengerName,
				PassengerEmail: req.PassengerEmail,
			})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Seats locked",
		"bus_id", bus.ID,
		"seats", seats,
		"passenger_email", req.PassengerEmail,
		"expires_at", expiresAt,
	)

	evt := events.New(events.SeatsLocked, s.now())
	evt.BusID = bus.ID
	evt.Seats = seats
	evt.PassengerName = req.PassengerName
	evt.PassengerEmail = req.PassengerEmail
	evt.ExpiresAt = &expiresAt
	events.Emit(ctx, s.publisher, s.cfg.Log, evt)

	return &model.LockSeatsResponse{
		Message:   "Seats locked for " + formatTTL(s.cfg.SeatLockTTL),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *busService) UnlockSeats(ctx context.Context, id string, req *model.UnlockSeatsRequest) (*model.ReleaseLocksResponse, error) {
	if err := s.validator.ValidateUnlock(req); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	seats := sanitizer.NormalizeSeats(req.Seats)
	removed := 0

	bus, err := s.mutateSeats(ctx, id, "UnlockSeats", func(bus *model.Bus, _ time.Time) (bool, error) {
		before := len(bus.SeatLocks)
		bus.SeatLocks = slices.DeleteFunc(bus.SeatLocks, func(l model.SeatLock) bool {
			return slices.Contains(seats, l.SeatNumber)
		})
		removed = before - len(bus.SeatLocks)
		return removed > 0, nil
	})
	if err != nil {
		return nil, err
	}

	if removed > 0 {
		s.cfg.Log.Info("Seat locks released",
			"bus_id", bus.ID,
			"seats", seats,
			"removed", removed,
		)

		evt := events.New(events.SeatsUnlocked, s.now())
		evt.BusID = bus.ID
		evt.Seats = seats
		evt.Count = int64(removed)
		events.Emit(ctx, s.publisher, s.cfg.Log, evt)
	}

	return &model.ReleaseLocksResponse{
		Message: "Seat locks released",
		Removed: removed,
	}, nil
}

func (s *busService) ConfirmBooking(ctx context.Context, id string, req *model.ConfirmBookingRequest) (*model.ConfirmBookingResponse, error) {
	req.PassengerEmail = sanitizer.NormalizeEmail(req.PassengerEmail)
	req.TransactionID = sanitizer.TrimAndNormalize(req.TransactionID)

	if err := s.validator.ValidateConfirm(req); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	seats := sanitizer.NormalizeSeats(req.Seats)
	replayed := false

	bus, err := s.mutateSeats(ctx, id, "ConfirmBooking", func(bus *model.Bus, now time.Time) (bool, error) {
		replayed = false
		pruned := bus.PruneExpired(now)

		if req.TransactionID != "" {
			if prior := bus.FindConfirmation(req.TransactionID); prior != nil {
				if !slices.Equal(sanitizer.NormalizeSeats(prior.Seats), seats) {
					return false, apperrors.Conflict("Transaction ID was already used for different seats")
				}
				if !sanitizer.EmailsEqual(prior.PassengerEmail, req.PassengerEmail) {
					return false, apperrors.LockMissing(seats)
				}
				replayed = true
				return pruned > 0, nil
			}
		}

		var missing []int
		for _, seat := range seats {
			lock := bus.LiveLock(seat, now)
			if lock == nil || !sanitizer.EmailsEqual(lock.PassengerEmail, req.PassengerEmail) {
				missing = append(missing, seat)
			}
		}
		if len(missing) > 0 {
			return false, apperrors.LockMissing(missing)
		}

		bus.SeatsBooked = sanitizer.MergeSeats(bus.SeatsBooked, seats)
		bus.SeatLocks = slices.DeleteFunc(bus.SeatLocks, func(l model.SeatLock) bool {
			return slices.Contains(seats, l.SeatNumber)
		})
		if req.TransactionID != "" {
			bus.Confirmations = append(bus.Confirmations, model.Confirmation{
				TransactionID:  req.TransactionID,
				Seats:          seats,
				PassengerEmail: req.PassengerEmail,
				ConfirmedAt:    now,
			})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.cfg.Log.Info("Booking confirmation replayed",
			"bus_id", bus.ID,
			"transaction_id", req.TransactionID,
		)
		return &model.ConfirmBookingResponse{Message: "Booking confirmed", Bus: bus}, nil
	}

	s.cfg.Log.Info("Booking confirmed",
		"bus_id", bus.ID,
		"seats", seats,
		"passenger_email", req.PassengerEmail,
		"transaction_id", req.TransactionID,
	)

	evt := events.New(events.BookingConfirmed, s.now())
	evt.BusID = bus.ID
	evt.Seats = seats
	evt.PassengerEmail = req.PassengerEmail
	evt.TransactionID = req.TransactionID
	events.Emit(ctx, s.publisher, s.cfg.Log, evt)

	return &model.ConfirmBookingResponse{
		Message: "Booking confirmed",
		Bus:     bus,
	}, nil
}

func (s *busService) ReleaseExpiredLocks(ctx context.Context, id string) (*model.ReleaseLocksResponse, error) {
	removed := 0
	_, err := s.mutateSeats(ctx, id, "ReleaseExpiredLocks", func(bus *model.Bus, now time.Time) (bool, error) {
		removed = bus.PruneExpired(now)
		return removed > 0, nil
	})
	if err != nil {
		return nil, err
	}

	if removed > 0 {
		s.cfg.Log.Info("Expired seat locks released", "bus_id", id, "removed", removed)
	}

	return &model.ReleaseLocksResponse{
		Message: "Expired locks released",
		Removed: removed,
	}, nil
}

func (s *busService) RemoveExpiredBuses(ctx context.Context) (int64, error) {
	now := s.now()
	today := now.In(time.Local).Format(validator.DateLayout)

	count, err := s.repo.DeleteDatedBefore(ctx, today)
	if err != nil {
		s.cfg.Log.Error("Failed to remove expired buses", "before", today, "error", err)
		return 0, err
	}

	if count > 0 {
		s.cfg.Log.Info("Expired buses removed", "before", today, "count", count)

		evt := events.New(events.BusesExpired, now)
		evt.Count = count
		events.Emit(ctx, s.publisher, s.cfg.Log, evt)
	}
	return count, nil
}

func (s *busService) CleanupExpired(ctx context.Context) (*model.CleanupResponse, error) {
	count, err := s.RemoveExpiredBuses(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to remove expired buses", err)
	}

	return &model.CleanupResponse{
		Success:      true,
		Message:      fmt.Sprintf("Removed %d expired buses", count),
		DeletedCount: count,
	}, nil
}

func (s *busService) sanitize(bus *model.Bus) {
	bus.BusName = sanitizer.NormalizeName(bus.BusName)
	bus.Source = sanitizer.NormalizeCity(bus.Source)
	bus.Destination = sanitizer.NormalizeCity(bus.Destination)
	bus.Date = sanitizer.TrimAndNormalize(bus.Date)
	bus.DepartureTime = sanitizer.TrimAndNormalize(bus.DepartureTime)
	bus.ArrivalTime = sanitizer.TrimAndNormalize(bus.ArrivalTime)
	bus.SeatsBooked = sanitizer.NormalizeSeats(bus.SeatsBooked)
	bus.SeatLocks = []model.SeatLock{}
	bus.Confirmations = nil
	bus.ID = ""
}

func checkCapacity(bus *model.Bus, seats []int) error {
	for _, seat := range seats {
		if seat > bus.TotalSeats {
			return apperrors.InvalidInput(fmt.Sprintf("Seat %d does not exist on this bus (total seats: %d)", seat, bus.TotalSeats))
		}
	}
	return nil
}

func formatTTL(ttl time.Duration) string {
	minutes := int(ttl / time.Minute)
	switch {
	case minutes == 1:
		return "1 minute"
	case minutes > 1:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return fmt.Sprintf("%d seconds", int(ttl/time.Second))
	}
}
