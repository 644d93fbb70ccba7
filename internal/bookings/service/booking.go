package service

import (
	bookingserrors "busbook/internal/bookings/errors"
	"busbook/internal/bookings/repository"
	"busbook/internal/bookings/validator"
	buserrors "busbook/internal/buses/errors"
	busrepository "busbook/internal/buses/repository"
	"busbook/internal/events"
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	// Create stores a booking for seats already confirmed on the bus. The
	// bool is false when an existing booking with the same transaction ID
	// was returned instead.
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, bool, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	GetByBus(ctx context.Context, busID string) ([]*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
}

type Option func(*bookingService)

func WithClock(now func() time.Time) Option {
	return func(s *bookingService) {
		s.now = now
	}
}

func WithPublisher(pub events.Publisher) Option {
	return func(s *bookingService) {
		s.publisher = pub
	}
}

type bookingService struct {
	repo      repository.BookingRepository
	buses     busrepository.BusRepository
	validator *validator.BookingValidator
	cfg       *config.Config
	publisher events.Publisher
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	buses busrepository.BusRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
	opts ...Option,
) BookingService {
	s := &bookingService{
		repo:      repo,
		buses:     buses,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, bool, error) {
	s.sanitize(req)

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"bus_id", req.BusID,
			"user_id", req.UserID,
			"error", err,
		)
		return nil, false, apperrors.InvalidInput(err.Error())
	}

	if req.TransactionID != "" {
		existing, err := s.repo.FindByTransactionID(ctx, req.TransactionID)
		if err == nil {
			s.cfg.Log.Info("Booking already recorded for transaction",
				"id", existing.ID,
				"transaction_id", req.TransactionID,
			)
			return existing, false, nil
		}
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to look up booking by transaction", "transaction_id", req.TransactionID, "error", err)
			return nil, false, apperrors.Internal("Failed to create booking", err)
		}
	}

	bus, err := s.buses.FindByID(ctx, req.BusID)
	if err != nil {
		return nil, false, s.translateBusError(err, req.BusID)
	}

	var unconfirmed []int
	for _, seat := range req.Seats {
		if !bus.IsBooked(seat) {
			unconfirmed = append(unconfirmed, seat)
		}
	}
	if len(unconfirmed) > 0 {
		return nil, false, apperrors.New(apperrors.CodeLockMissing, "Seats are not confirmed on this bus", http.StatusBadRequest).
			WithDetails(map[string]any{"seats": unconfirmed})
	}
	if err := s.checkClaims(ctx, bus, req); err != nil {
		return nil, false, err
	}

	booking := &model.Booking{
		BusID:          req.BusID,
		UserID:         req.UserID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		Seats:          sanitizer.NormalizeSeats(req.Seats),
		TotalPrice:     req.TotalPrice,
		TransactionID:  req.TransactionID,
		BusDetails:     bus.Details(),
		Status:         config.StatusConfirmed,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateTransaction) {
			existing, findErr := s.repo.FindByTransactionID(ctx, req.TransactionID)
			if findErr == nil {
				return existing, false, nil
			}
			err = findErr
		}
		s.cfg.Log.Error("Failed to create booking",
			"bus_id", req.BusID,
			"user_id", req.UserID,
			"error", err,
		)
		return nil, false, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"bus_id", booking.BusID,
		"user_id", booking.UserID,
		"seats", booking.Seats,
	)
	s.emit(ctx, events.BookingCreated, booking)

	return booking, true, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateBookingError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) GetByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	userID = sanitizer.TrimAndNormalize(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.repo.FindConfirmedByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to get bookings by user", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) GetByBus(ctx context.Context, busID string) ([]*model.Booking, error) {
	if busID == "" {
		return nil, apperrors.InvalidInput("Bus ID cannot be empty")
	}

	bookings, err := s.repo.FindConfirmedByBus(ctx, busID)
	if err != nil {
		s.cfg.Log.Error("Failed to get bookings by bus", "bus_id", busID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// Cancel flips the booking to cancelled and frees its seats on the bus in one
// transaction. A concurrent seat-map write aborts the transaction, which is
// then rerun against fresh state.
func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var cancelled *model.Booking
	var err error
	for attempt := 1; attempt <= s.cfg.SeatCASRetries; attempt++ {
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			booking, err := s.repo.FindByID(sessCtx, id)
			if err != nil {
				return err
			}
			if booking.Status == config.StatusCancelled {
				return bookingserrors.ErrAlreadyCancelled
			}

			now := s.now().UTC()
			if err := s.repo.MarkCancelled(sessCtx, id, now); err != nil {
				return err
			}
			if err := s.releaseSeats(sessCtx, booking, now); err != nil {
				return err
			}

			booking.Status = config.StatusCancelled
			booking.CancelledAt = &now
			booking.UpdatedAt = now
			cancelled = booking
			return nil
		})
		if !errors.Is(err, buserrors.ErrVersionConflict) {
			break
		}
		s.cfg.Log.Debug("Seat map changed during cancellation, retrying", "booking_id", id, "attempt", attempt)
	}

	if err != nil {
		if errors.Is(err, buserrors.ErrVersionConflict) {
			return nil, apperrors.Conflict("Seat map is busy, please retry")
		}
		return nil, s.translateBookingError(err, id, "Failed to cancel booking")
	}

	s.cfg.Log.Info("Booking cancelled",
		"id", cancelled.ID,
		"bus_id", cancelled.BusID,
		"seats", cancelled.Seats,
	)
	s.emit(ctx, events.BookingCancelled, cancelled)

	return cancelled, nil
}

// checkClaims ties the booking to the seats its passenger confirmed. A
// transaction id must match a recorded confirmation for the same seats and
// passenger. Seats confirmed under a transaction can only be booked with it,
// and no seat may already belong to another confirmed booking.
func (s *bookingService) checkClaims(ctx context.Context, bus *model.Bus, req *model.CreateBookingRequest) error {
	seats := sanitizer.NormalizeSeats(req.Seats)

	if req.TransactionID != "" {
		conf := bus.FindConfirmation(req.TransactionID)
		if conf == nil ||
			!slices.Equal(sanitizer.NormalizeSeats(conf.Seats), seats) ||
			!sanitizer.EmailsEqual(conf.PassengerEmail, req.PassengerEmail) {
			s.cfg.Log.Warn("Booking does not match a seat confirmation",
				"bus_id", req.BusID,
				"transaction_id", req.TransactionID,
			)
			return apperrors.LockMissing(seats).
				WithDetails(map[string]any{"seats": seats, "transactionId": req.TransactionID})
		}
	} else {
		var reserved []int
		for _, conf := range bus.Confirmations {
			for _, seat := range conf.Seats {
				if slices.Contains(seats, seat) {
					reserved = append(reserved, seat)
				}
			}
		}
		if len(reserved) > 0 {
			slices.Sort(reserved)
			return apperrors.SeatConflict(reserved)
		}
	}

	existing, err := s.repo.FindConfirmedByBus(ctx, req.BusID)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for bus", "bus_id", req.BusID, "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	var claimed []int
	for _, b := range existing {
		for _, seat := range b.Seats {
			if slices.Contains(seats, seat) && !slices.Contains(claimed, seat) {
				claimed = append(claimed, seat)
			}
		}
	}
	if len(claimed) > 0 {
		slices.Sort(claimed)
		return apperrors.SeatConflict(claimed)
	}
	return nil
}

// releaseSeats removes the booking's seats from the bus. A bus already swept
// after its travel date has nothing left to release.
func (s *bookingService) releaseSeats(ctx context.Context, booking *model.Booking, now time.Time) error {
	bus, err := s.buses.FindByID(ctx, booking.BusID)
	if err != nil {
		if errors.Is(err, buserrors.ErrNotFound) || errors.Is(err, buserrors.ErrInvalidID) {
			return nil
		}
		return err
	}

	remaining := sanitizer.RemoveSeats(bus.SeatsBooked, booking.Seats)
	if len(remaining) == len(bus.SeatsBooked) {
		return nil
	}

	bus.SeatsBooked = remaining
	bus.Confirmations = slices.DeleteFunc(bus.Confirmations, func(c model.Confirmation) bool {
		return booking.TransactionID != "" && c.TransactionID == booking.TransactionID
	})
	bus.UpdatedAt = now
	return s.buses.SaveSeatState(ctx, bus)
}

func (s *bookingService) emit(ctx context.Context, t events.Type, booking *model.Booking) {
	evt := events.New(t, s.now())
	evt.BookingID = booking.ID
	evt.BusID = booking.BusID
	evt.TransactionID = booking.TransactionID
	evt.Seats = booking.Seats
	evt.PassengerName = booking.PassengerName
	evt.PassengerEmail = booking.PassengerEmail
	evt.TotalPrice = booking.TotalPrice
	evt.Details = booking.BusDetails
	events.Emit(ctx, s.publisher, s.cfg.Log, evt)
}

func (s *bookingService) sanitize(req *model.CreateBookingRequest) {
	req.BusID = sanitizer.TrimAndNormalize(req.BusID)
	req.UserID = sanitizer.TrimAndNormalize(req.UserID)
	req.PassengerName = sanitizer.NormalizeName(req.PassengerName)
	req.PassengerEmail = sanitizer.NormalizeEmail(req.PassengerEmail)
	req.TransactionID = sanitizer.TrimAndNormalize(req.TransactionID)
}

func (s *bookingService) translateBusError(err error, busID string) error {
	if errors.Is(err, buserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Bus", busID)
	}
	if errors.Is(err, buserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bus ID format")
	}
	s.cfg.Log.Error("Failed to load bus for booking", "bus_id", busID, "error", err)
	return apperrors.Internal("Failed to load bus", err)
}

func (s *bookingService) translateBookingError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.Conflict("Booking is already cancelled")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
