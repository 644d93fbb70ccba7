package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	SeatsLocked      Type = "seats.locked"
	SeatsUnlocked    Type = "seats.unlocked"
	BookingConfirmed Type = "booking.confirmed"
	BookingCreated   Type = "booking.created"
	BookingCancelled Type = "booking.cancelled"
	BusesExpired     Type = "buses.expired"
)

const SchemaVersion = "1"

// Event is the wire payload for every seat and booking state change.
type Event struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	BusID          string     `json:"busId,omitempty"`
	BookingID      string     `json:"bookingId,omitempty"`
	TransactionID  string     `json:"transactionId,omitempty"`
	Seats          []int      `json:"seats,omitempty"`
	PassengerName  string     `json:"passengerName,omitempty"`
	PassengerEmail string     `json:"passengerEmail,omitempty"`
	TotalPrice     float64    `json:"totalPrice,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Count          int64      `json:"count,omitempty"`
	Details        any        `json:"details,omitempty"`
	CorrelationID  string     `json:"correlationId,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

func New(t Type, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		OccurredAt: occurredAt.UTC(),
	}
}

// PartitionKey keeps every event for one bus on the same partition.
func (e Event) PartitionKey() string {
	if e.BusID != "" {
		return e.BusID
	}
	return string(e.Type)
}
