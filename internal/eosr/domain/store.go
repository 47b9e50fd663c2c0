package eosr

import "context"

// Store persists week report files. Reads fail closed: a missing or
// unreachable week reads as empty, listing failures read as no weeks.
// Writes surface their errors so callers can retry.
type Store interface {
	// ReadWeek returns the raw lines of one week's file.
	ReadWeek(ctx context.Context, weekID string) ([]string, error)
	// AppendLine appends one report line to a week's file.
	AppendLine(ctx context.Context, weekID, line string) error
	// ListWeeks returns known week ids, newest first.
	ListWeeks(ctx context.Context) ([]string, error)
}
