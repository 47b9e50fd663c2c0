package memory

import (
	"context"
	"sort"
	"sync"

	archive "plantpulse/internal/archive/domain"
)

// Store is an in-memory create-once archive store for tests and local runs.
type Store struct {
	mu   sync.Mutex
	data map[string]archive.WeeklyArchive
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]archive.WeeklyArchive)}
}

// Read returns the record for a week key, or nil when absent.
func (s *Store) Read(ctx context.Context, weekKey string) (*archive.WeeklyArchive, error) {
	_ = ctx
	if weekKey == "" {
		return nil, archive.ErrEmptyWeekKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data[weekKey]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// WriteIfAbsent stores the record unless the key exists; the incumbent
// always wins.
func (s *Store) WriteIfAbsent(ctx context.Context, weekKey string, record archive.WeeklyArchive) (archive.WeeklyArchive, bool, error) {
	_ = ctx
	if weekKey == "" {
		return archive.WeeklyArchive{}, false, archive.ErrEmptyWeekKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if incumbent, ok := s.data[weekKey]; ok {
		return incumbent, false, nil
	}
	s.data[weekKey] = record
	return record, true, nil
}

// List returns all records, newest week first.
func (s *Store) List(ctx context.Context) ([]archive.WeeklyArchive, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]archive.WeeklyArchive, 0, len(s.data))
	for _, record := range s.data {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Period.Start > records[j].Period.Start
	})
	return records, nil
}
