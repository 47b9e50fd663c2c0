package archive

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable marks a retryable storage failure. Finalize paths
	// surface it; they never fabricate an archive in its place.
	ErrStoreUnavailable = errors.New("archive: store unavailable")
	// ErrEmptyWeekKey is returned for a missing week key.
	ErrEmptyWeekKey = errors.New("archive: empty week key")
)

// Store is create-once storage for finalized weeks, keyed by the Monday
// week key ("week-YYYY-MM-DD"). WriteIfAbsent must be atomic: of two
// concurrent creators exactly one wins and both observe the winner's record.
type Store interface {
	// Read returns the archived record, or nil when the week has none.
	Read(ctx context.Context, weekKey string) (*WeeklyArchive, error)
	// WriteIfAbsent creates the record unless one exists. It returns the
	// stored record (the caller's on create, the incumbent otherwise) and
	// whether this call created it.
	WriteIfAbsent(ctx context.Context, weekKey string, record WeeklyArchive) (WeeklyArchive, bool, error)
	// List returns all archived weeks, newest first.
	List(ctx context.Context) ([]WeeklyArchive, error)
}
