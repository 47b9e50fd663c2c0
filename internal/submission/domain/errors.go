package submission

import "errors"

var (
	// ErrEmptyLine is returned for blank lines in a calendar-date file.
	ErrEmptyLine = errors.New("submission: empty line")
	// ErrMalformedRecord is returned when a line cannot be decoded into a
	// usable event. Callers skip the line; it is never fatal to a batch.
	ErrMalformedRecord = errors.New("submission: malformed record")
	// ErrEmptyAreaID is returned when an area id is missing.
	ErrEmptyAreaID = errors.New("submission: empty area id")
	// ErrMissingField is returned when a required ingest field is absent.
	ErrMissingField = errors.New("submission: missing required field")
)
