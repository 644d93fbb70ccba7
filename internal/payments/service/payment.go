package service

import (
	"busbook/internal/payments/validator"
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	transactionPrefix = "TXN_"
	suffixLength      = 9
)

var messages = map[error]string{
	validator.ErrMissingFields: "Missing required payment fields",
	validator.ErrAmount:        "Amount must be greater than zero",
	validator.ErrCardNumber:    "Invalid card number",
	validator.ErrExpiry:        "Invalid expiry date format (use MM/YY or card is expired)",
	validator.ErrCVV:           "Invalid CVV (must be 3-4 digits)",
}

// PaymentService is a stateless mock gateway. Every request that passes the
// card checks succeeds.
type PaymentService interface {
	Process(ctx context.Context, req *model.PaymentRequest) (*model.PaymentResponse, error)
}

type Option func(*paymentService)

func WithClock(now func() time.Time) Option {
	return func(s *paymentService) {
		s.now = now
	}
}

type paymentService struct {
	validator *validator.PaymentValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewPaymentService(validator *validator.PaymentValidator, cfg *config.Config, opts ...Option) PaymentService {
	s := &paymentService{
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *paymentService) Process(_ context.Context, req *model.PaymentRequest) (*model.PaymentResponse, error) {
	req.CardholderName = sanitizer.NormalizeName(req.CardholderName)
	req.BookingID = sanitizer.TrimAndNormalize(req.BookingID)

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Payment rejected",
			"booking_id", req.BookingID,
			"card", MaskCard(req.CardNumber),
			"error", err,
		)
		if msg, ok := messages[err]; ok {
			return nil, apperrors.PaymentInvalid(msg)
		}
		return nil, apperrors.Internal("Failed to process payment", err)
	}

	now := s.now()
	resp := &model.PaymentResponse{
		Success:       true,
		Message:       "Payment processed successfully",
		TransactionID: NewTransactionID(now),
		Amount:        req.Amount,
		Timestamp:     now.UTC(),
	}

	s.cfg.Log.Info("Payment processed",
		"transaction_id", resp.TransactionID,
		"amount", resp.Amount,
		"booking_id", req.BookingID,
		"card", MaskCard(req.CardNumber),
	)

	return resp, nil
}

// NewTransactionID formats TXN_<unix millis>_<9 uppercase alphanumerics>.
func NewTransactionID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:suffixLength]
	return transactionPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// MaskCard keeps the last four digits.
func MaskCard(card string) string {
	digits := sanitizer.DigitsOnly(card)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
