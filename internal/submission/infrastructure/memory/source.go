package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

// EventSource is an in-memory append-only log keyed by area and calendar
// date. It backs tests and local runs.
type EventSource struct {
	mu    sync.RWMutex
	files map[string][]string // "AREA|YYYY-MM-DD" -> lines
	areas map[string]struct{}
}

// NewEventSource constructs an empty source.
func NewEventSource() *EventSource {
	return &EventSource{
		files: make(map[string][]string),
		areas: make(map[string]struct{}),
	}
}

// ListAreas returns known areas, uppercased and sorted.
func (s *EventSource) ListAreas(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	areas := make([]string, 0, len(s.areas))
	for area := range s.areas {
		areas = append(areas, area)
	}
	sort.Strings(areas)
	return areas, nil
}

// ReadDay returns the lines of one calendar-date file.
func (s *EventSource) ReadDay(ctx context.Context, area string, date plantday.Date) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.files[fileKey(area, date)]
	if len(lines) == 0 {
		return nil, nil
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// AppendLine appends one line to a calendar-date file.
func (s *EventSource) AppendLine(ctx context.Context, area string, date plantday.Date, line string) error {
	_ = ctx
	area = normalizeArea(area)
	if area == "" {
		return submission.ErrEmptyAreaID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fileKey(area, date)
	s.files[key] = append(s.files[key], line)
	s.areas[area] = struct{}{}
	return nil
}

func fileKey(area string, date plantday.Date) string {
	return normalizeArea(area) + "|" + date.String()
}

func normalizeArea(area string) string {
	return strings.ToUpper(strings.TrimSpace(area))
}
