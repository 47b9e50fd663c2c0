package submission

import (
	"context"

	"plantpulse/internal/plantday"
)

// EventSource is the append-only log backend holding one newline-delimited
// file per area per calendar date. Read methods fail closed: a missing or
// unreachable file reads as empty.
type EventSource interface {
	// ListAreas returns the known area ids, uppercased.
	ListAreas(ctx context.Context) ([]string, error)
	// ReadDay returns the raw lines of one area's calendar-date file, or
	// nil when the file is absent or unreadable.
	ReadDay(ctx context.Context, area string, date plantday.Date) ([]string, error)
	// AppendLine appends one record line to an area's calendar-date file.
	AppendLine(ctx context.Context, area string, date plantday.Date, line string) error
}
