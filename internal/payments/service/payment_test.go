package service

import (
	"busbook/internal/payments/validator"
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionPattern = regexp.MustCompile(`^TXN_\d+_[0-9A-Z]{9}$`)

func newTestService(now time.Time) PaymentService {
	clock := func() time.Time { return now }
	log := logger.Discard()
	return NewPaymentService(validator.NewPaymentValidator(log, clock), &config.Config{Log: log}, WithClock(clock))
}

func TestProcess_Success(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := newTestService(now)

	resp, err := svc.Process(context.Background(), &model.PaymentRequest{
		Amount:         2400,
		CardNumber:     "4111-1111-1111-1111",
		ExpiryDate:     "08/28",
		CVV:            "4321",
		CardholderName: "  asha   rao ",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Payment processed successfully", resp.Message)
	assert.Equal(t, 2400.0, resp.Amount)
	assert.Equal(t, now, resp.Timestamp)
	assert.Regexp(t, transactionPattern, resp.TransactionID)
	assert.Contains(t, resp.TransactionID, "_1773136800000_")
}

func TestProcess_RejectsWithMessage(t *testing.T) {
	svc := newTestService(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))

	_, err := svc.Process(context.Background(), &model.PaymentRequest{
		Amount:         100,
		CardNumber:     "4111111111111111",
		ExpiryDate:     "01/26",
		CVV:            "123",
		CardholderName: "Asha Rao",
	})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodePaymentInvalid, appErr.Code)
	assert.Equal(t, "Invalid expiry date format (use MM/YY or card is expired)", appErr.Message)
	assert.Equal(t, 400, appErr.StatusCode())
}

func TestProcess_NeverDeclinesValidCards(t *testing.T) {
	svc := newTestService(time.Now())
	for i := 0; i < 50; i++ {
		_, err := svc.Process(context.Background(), &model.PaymentRequest{
			Amount:         1,
			CardNumber:     "5555555555554444",
			ExpiryDate:     "12/99",
			CVV:            "999",
			CardholderName: "Ravi",
		})
		require.NoError(t, err)
	}
}

func TestNewTransactionID_Unique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewTransactionID(now)
		assert.Regexp(t, transactionPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "************1111", MaskCard("4111 1111 1111 1111"))
	assert.Equal(t, "***", MaskCard("123"))
	assert.Equal(t, "", MaskCard(""))
}
