package model

import "time"

type PaymentRequest struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	CardNumber     string  `json:"cardNumber" validate:"required,card_number"`
	ExpiryDate     string  `json:"expiryDate" validate:"required,card_expiry"`
	CVV            string  `json:"cvv" validate:"required,cvv"`
	CardholderName string  `json:"cardholderName" validate:"required,max=100"`
	BookingID      string  `json:"bookingId,omitempty" validate:"omitempty,max=100"`
}

type PaymentResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transactionId"`
	Amount        float64   `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
