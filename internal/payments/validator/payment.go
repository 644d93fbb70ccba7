package validator

import (
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRegex    = regexp.MustCompile(`^\d{3,4}$`)
)

var (
	ErrMissingFields = errors.New("missing required payment fields")
	ErrAmount        = errors.New("amount must be greater than zero")
	ErrCardNumber    = errors.New("invalid card number")
	ErrExpiry        = errors.New("invalid or expired card expiry")
	ErrCVV           = errors.New("invalid cvv")
)

type PaymentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

// NewPaymentValidator builds the mock gateway's card checks. now is consulted
// for card expiry.
func NewPaymentValidator(log *logger.Logger, now func() time.Time) *PaymentValidator {
	if now == nil {
		now = time.Now
	}
	pv := &PaymentValidator{
		validate: validator.New(),
		logger:   log,
		now:      now,
	}

	for tag, fn := range map[string]validator.Func{
		"card_number": validateCardNumber,
		"card_expiry": pv.validateExpiry,
		"cvv":         validateCVV,
	} {
		if err := pv.validate.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register payment validator", "tag", tag, "error", err)
		}
	}

	log.Debug("Payment validator initialized successfully")
	return pv
}

// Validate returns the first failing check as one of the Err* sentinels.
// Missing fields are reported before format problems.
func (v *PaymentValidator) Validate(req *model.PaymentRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, fe := range validationErrs {
		if fe.Tag() == "required" {
			return ErrMissingFields
		}
	}
	switch validationErrs[0].Tag() {
	case "gt":
		return ErrAmount
	case "card_number":
		return ErrCardNumber
	case "card_expiry":
		return ErrExpiry
	case "cvv":
		return ErrCVV
	}
	return ErrMissingFields
}

// validateCardNumber accepts 13 to 19 digits once separators are stripped.
func validateCardNumber(fl validator.FieldLevel) bool {
	n := len(sanitizer.DigitsOnly(fl.Field().String()))
	return n >= 13 && n <= 19
}

func validateCVV(fl validator.FieldLevel) bool {
	return cvvRegex.MatchString(fl.Field().String())
}

func (v *PaymentValidator) validateExpiry(fl validator.FieldLevel) bool {
	return IsValidExpiry(fl.Field().String(), v.now())
}

// IsValidExpiry reports whether expiry is MM/YY and not before the month of now.
func IsValidExpiry(expiry string, now time.Time) bool {
	if !expiryRegex.MatchString(expiry) {
		return false
	}
	month, _ := strconv.Atoi(expiry[:2])
	year, _ := strconv.Atoi(expiry[3:])

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	if year < currentYear {
		return false
	}
	return year != currentYear || month >= currentMonth
}
