package errors

import "errors"

var (
	ErrNotFound = errors.New("bus not found")

	ErrInvalidID = errors.New("invalid bus ID format")

	// ErrVersionConflict means another writer changed the seat map since it was read.
	ErrVersionConflict = errors.New("bus seat map was modified concurrently")
)
