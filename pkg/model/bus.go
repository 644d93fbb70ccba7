package model

import (
	"slices"
	"time"
)

// SeatLock is a short-lived hold on a seat while its passenger pays.
type SeatLock struct {
	SeatNumber     int       `json:"seatNumber" bson:"seat_number"`
	LockedAt       time.Time `json:"lockedAt" bson:"locked_at"`
	ExpiresAt      time.Time `json:"expiresAt" bson:"expires_at"`
	PassengerName  string    `json:"passengerName" bson:"passenger_name"`
	PassengerEmail string    `json:"passengerEmail" bson:"passenger_email"`
}

// Expired reports whether the lock no longer holds at now. A lock expiring
// exactly at now is already expired.
func (l SeatLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Confirmation records a completed confirm so a retried request with the same
// transaction id can be answered without booking twice.
type Confirmation struct {
	TransactionID  string    `json:"transactionId" bson:"transaction_id"`
	Seats          []int     `json:"seats" bson:"seats"`
	PassengerEmail string    `json:"passengerEmail" bson:"passenger_email"`
	ConfirmedAt    time.Time `json:"confirmedAt" bson:"confirmed_at"`
}

type Bus struct {
	ID            string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BusName       string         `json:"busName" bson:"bus_name" validate:"required,min=2,max=100"`
	Source        string         `json:"source" bson:"source" validate:"required,min=2,max=100"`
	Destination   string         `json:"destination" bson:"destination" validate:"required,min=2,max=100,nefield=Source"`
	Date          string         `json:"date" bson:"date" validate:"required,bus_date"`
	DepartureTime string         `json:"departureTime" bson:"departure_time" validate:"required,hhmm"`
	ArrivalTime   string         `json:"arrivalTime" bson:"arrival_time" validate:"required,hhmm"`
	Price         float64        `json:"price" bson:"price" validate:"required,gt=0"`
	TotalSeats    int            `json:"totalSeats" bson:"total_seats" validate:"required,min=1,max=100"`
	SeatsBooked   []int          `json:"seatsBooked" bson:"seats_booked" validate:"omitempty,seat_list"`
	SeatLocks     []SeatLock     `json:"seatLocks" bson:"seat_locks" validate:"-"`
	Confirmations []Confirmation `json:"-" bson:"confirmations,omitempty" validate:"-"`
	Version       int64          `json:"version" bson:"version"`
	CreatedAt     time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updated_at"`
}

// PruneExpired drops every expired lock and returns how many were removed.
func (b *Bus) PruneExpired(now time.Time) int {
	before := len(b.SeatLocks)
	b.SeatLocks = slices.DeleteFunc(b.SeatLocks, func(l SeatLock) bool {
		return l.Expired(now)
	})
	return before - len(b.SeatLocks)
}

func (b *Bus) IsBooked(seat int) bool {
	return slices.Contains(b.SeatsBooked, seat)
}

// LiveLock returns the first unexpired lock on seat, or nil.
func (b *Bus) LiveLock(seat int, now time.Time) *SeatLock {
	for i := range b.SeatLocks {
		if b.SeatLocks[i].SeatNumber == seat && !b.SeatLocks[i].Expired(now) {
			return &b.SeatLocks[i]
		}
	}
	return nil
}

// AvailableSeats lists seats that are neither booked nor held by a live lock.
func (b *Bus) AvailableSeats(now time.Time) []int {
	available := make([]int, 0, b.TotalSeats)
	for seat := 1; seat <= b.TotalSeats; seat++ {
		if b.IsBooked(seat) || b.LiveLock(seat, now) != nil {
			continue
		}
		available = append(available, seat)
	}
	return available
}

func (b *Bus) FindConfirmation(transactionID string) *Confirmation {
	for i := range b.Confirmations {
		if b.Confirmations[i].TransactionID == transactionID {
			return &b.Confirmations[i]
		}
	}
	return nil
}

func (b *Bus) Details() BusDetails {
	return BusDetails{
		BusName:       b.BusName,
		Source:        b.Source,
		Destination:   b.Destination,
		Date:          b.Date,
		DepartureTime: b.DepartureTime,
		ArrivalTime:   b.ArrivalTime,
	}
}

type BusSearchFilter struct {
	Source      string
	Destination string
	Date        string
}

type LockSeatsRequest struct {
	Seats          []int  `json:"seats" validate:"required,min=1,seat_list"`
	PassengerName  string `json:"passengerName" validate:"required,min=2,max=100"`
	PassengerEmail string `json:"passengerEmail" validate:"required,email,max=254"`
}

type LockSeatsResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UnlockSeatsRequest struct {
	Seats []int `json:"seats" validate:"required,min=1,seat_list"`
}

type ReleaseLocksResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

type ConfirmBookingRequest struct {
	Seats          []int  `json:"seats" validate:"required,min=1,seat_list"`
	PassengerEmail string `json:"passengerEmail" validate:"required,email,max=254"`
	TransactionID  string `json:"transactionId,omitempty" validate:"omitempty,max=100"`
}

type ConfirmBookingResponse struct {
	Message string `json:"message"`
	Bus     *Bus   `json:"bus"`
}

type CleanupResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// IsValidSeatList reports whether seats are all positive and distinct.
func IsValidSeatList(seats []int) bool {
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if s < 1 {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}
