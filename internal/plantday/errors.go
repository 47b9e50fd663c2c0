package plantday

import "errors"

var (
	// ErrUnknownTimezone is returned when the configured timezone cannot be loaded.
	ErrUnknownTimezone = errors.New("plantday: unknown timezone")
	// ErrInvalidBoundary is returned when the boundary time-of-day is malformed.
	ErrInvalidBoundary = errors.New("plantday: invalid boundary")
)
