package validator

import (
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BusValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBusValidator(log *logger.Logger) *BusValidator {
	v := validator.New()

	for tag, fn := range map[string]validator.Func{
		"seat_list": validateSeatList,
		"hhmm":      validateHHMM,
		"bus_date":  validateBusDate,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register bus validator", "tag", tag, "error", err)
		}
	}

	log.Debug("Bus validator initialized successfully")

	return &BusValidator{
		validate: v,
		logger:   log,
	}
}

func validateSeatList(fl validator.FieldLevel) bool {
	seats, ok := fl.Field().Interface().([]int)
	return ok && model.IsValidSeatList(seats)
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func validateBusDate(fl validator.FieldLevel) bool {
	return IsValidDate(fl.Field().String())
}

// IsValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func (v *BusValidator) Validate(bus *model.Bus) error {
	return v.check(bus)
}

func (v *BusValidator) ValidateLock(req *model.LockSeatsRequest) error {
	return v.check(req)
}

func (v *BusValidator) ValidateUnlock(req *model.UnlockSeatsRequest) error {
	return v.check(req)
}

func (v *BusValidator) ValidateConfirm(req *model.ConfirmBookingRequest) error {
	return v.check(req)
}

func (v *BusValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			if err.Kind().String() == "slice" {
				message = fmt.Sprintf("%s must contain at least %s item(s)", err.Field(), err.Param())
			} else {
				message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
			}
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "seat_list":
			message = fmt.Sprintf("%s must contain distinct seat numbers of at least 1", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24h time in HH:MM format", err.Field())
		case "bus_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "nefield":
			message = fmt.Sprintf("%s must differ from %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
