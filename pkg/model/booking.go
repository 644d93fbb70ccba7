package model

import (
	"time"
)

// BusDetails is the bus snapshot stored with a booking so the ticket survives
// the bus document being swept after its travel date.
type BusDetails struct {
	BusName       string `json:"busName" bson:"bus_name"`
	Source        string `json:"source" bson:"source"`
	Destination   string `json:"destination" bson:"destination"`
	Date          string `json:"date" bson:"date"`
	DepartureTime string `json:"departureTime" bson:"departure_time"`
	ArrivalTime   string `json:"arrivalTime" bson:"arrival_time"`
}

type Booking struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty"`
	BusID          string     `json:"busId" bson:"bus_id"`
	UserID         string     `json:"userId" bson:"user_id"`
	PassengerName  string     `json:"passengerName" bson:"passenger_name"`
	PassengerEmail string     `json:"passengerEmail" bson:"passenger_email"`
	Seats          []int      `json:"seats" bson:"seats"`
	TotalPrice     float64    `json:"totalPrice" bson:"total_price"`
	TransactionID  string     `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	BusDetails     BusDetails `json:"busDetails" bson:"bus_details"`
	Status         string     `json:"status" bson:"status"`
	CreatedAt      time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updated_at"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty"`
}

type CreateBookingRequest struct {
	BusID          string  `json:"busId" validate:"required,mongodb"`
	UserID         string  `json:"userId" validate:"required,min=1,max=100"`
	PassengerName  string  `json:"passengerName" validate:"required,min=2,max=100"`
	PassengerEmail string  `json:"passengerEmail" validate:"required,email,max=254"`
	Seats          []int   `json:"seats" validate:"required,min=1,seat_list"`
	TotalPrice     float64 `json:"totalPrice" validate:"gte=0"`
	TransactionID  string  `json:"transactionId,omitempty" validate:"omitempty,max=100"`
}
