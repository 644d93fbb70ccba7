package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateTransaction = errors.New("booking with this transaction ID already exists")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")
)
