package validator

import (
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func validPayment() *model.PaymentRequest {
	return &model.PaymentRequest{
		Amount:         1200,
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "12/27",
		CVV:            "123",
		CardholderName: "Asha Rao",
	}
}

func TestValidate(t *testing.T) {
	v := NewPaymentValidator(logger.Discard(), func() time.Time { return testNow })

	tests := []struct {
		name   string
		mutate func(r *model.PaymentRequest)
		want   error
	}{
		{name: "valid"},
		{name: "zero amount", mutate: func(r *model.PaymentRequest) { r.Amount = 0 }, want: ErrMissingFields},
		{name: "negative amount", mutate: func(r *model.PaymentRequest) { r.Amount = -5 }, want: ErrAmount},
		{name: "no cardholder", mutate: func(r *model.PaymentRequest) { r.CardholderName = "" }, want: ErrMissingFields},
		{name: "short card", mutate: func(r *model.PaymentRequest) { r.CardNumber = "4111-1111" }, want: ErrCardNumber},
		{name: "long card", mutate: func(r *model.PaymentRequest) { r.CardNumber = "41111111111111111111" }, want: ErrCardNumber},
		{name: "expiry format", mutate: func(r *model.PaymentRequest) { r.ExpiryDate = "2027-12" }, want: ErrExpiry},
		{name: "expired", mutate: func(r *model.PaymentRequest) { r.ExpiryDate = "02/26" }, want: ErrExpiry},
		{name: "cvv letters", mutate: func(r *model.PaymentRequest) { r.CVV = "12a" }, want: ErrCVV},
		{name: "missing beats format", mutate: func(r *model.PaymentRequest) {
			r.CVV = "1"
			r.CardholderName = ""
		}, want: ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPayment()
			if tt.mutate != nil {
				tt.mutate(req)
			}
			assert.Equal(t, tt.want, v.Validate(req))
		})
	}
}

func TestIsValidExpiry(t *testing.T) {
	assert.True(t, IsValidExpiry("03/26", testNow), "current month is still valid")
	assert.True(t, IsValidExpiry("01/30", testNow))
	assert.False(t, IsValidExpiry("02/26", testNow))
	assert.False(t, IsValidExpiry("12/25", testNow))
	assert.False(t, IsValidExpiry("13/27", testNow))
	assert.False(t, IsValidExpiry("3/27", testNow))
}
