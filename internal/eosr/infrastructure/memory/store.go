// Package memory is an in-memory report store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
)

// Store keeps week report lines in a map.
type Store struct {
	mu    sync.Mutex
	weeks map[string][]string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{weeks: make(map[string][]string)}
}

// ReadWeek returns the lines of one week, empty when unknown.
func (s *Store) ReadWeek(ctx context.Context, weekID string) ([]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.weeks[weekID]
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// AppendLine appends one line to a week.
func (s *Store) AppendLine(ctx context.Context, weekID, line string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks[weekID] = append(s.weeks[weekID], line)
	return nil
}

// ListWeeks returns known week ids, newest first.
func (s *Store) ListWeeks(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	weeks := make([]string, 0, len(s.weeks))
	for week := range s.weeks {
		weeks = append(weeks, week)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))
	return weeks, nil
}
