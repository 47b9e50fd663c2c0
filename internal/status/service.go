package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plantpulse/internal/aggregation"
	submission "plantpulse/internal/submission/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DayResult is the point-in-time health view of one area.
type DayResult struct {
	Area             string                  `json:"area"`
	LastTime         *string                 `json:"lastTime"`
	MinutesSince     *int                    `json:"minutesSince"`
	SubmissionsToday int                     `json:"submissionsToday"`
	IssuesToday      int                     `json:"issuesToday"`
	OnTimePct        int                     `json:"onTimePct"`
	CompletionPct    int                     `json:"completionPct"`
	Status           Status                  `json:"status"`
	ShiftCountsToday aggregation.ShiftCounts `json:"shiftCountsToday"`
	Meta             Meta                    `json:"meta"`
}

// Meta carries the timezone context of a result.
type Meta struct {
	TZ         string `json:"tz"`
	PlantStart string `json:"plantStart"`
}

// Service computes per-area day summaries. Everything is recomputed per
// request from the event source; no state survives between calls.
type Service struct {
	aggregator *aggregation.Aggregator
	tracker    *WindowTracker
	clock      Clock
}

// NewService constructs a status service.
func NewService(aggregator *aggregation.Aggregator, clock Clock) (*Service, error) {
	if aggregator == nil {
		return nil, errors.New("status service: nil aggregator")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	cfg := aggregator.Config()
	tracker, err := NewWindowTracker(cfg.WindowMinutes, cfg.ToleranceMinutes)
	if err != nil {
		return nil, err
	}
	return &Service{aggregator: aggregator, tracker: tracker, clock: clock}, nil
}

// Summarize builds the DayResult for one area's current plant day.
func (s *Service) Summarize(ctx context.Context, area string) (DayResult, error) {
	if area == "" {
		return DayResult{}, submission.ErrEmptyAreaID
	}

	now := s.clock.Now()
	resolver := s.aggregator.Resolver()
	day := resolver.PlantDayOf(now)

	agg, err := s.aggregator.AggregateDay(ctx, area, day)
	if err != nil {
		return DayResult{}, err
	}

	result := DayResult{
		Area:             agg.Area,
		SubmissionsToday: len(agg.Events),
		IssuesToday:      agg.IssuesToday,
		Status:           Classify(agg.IssuesToday),
		ShiftCountsToday: agg.ShiftCounts,
		Meta: Meta{
			TZ:         resolver.TimezoneName(),
			PlantStart: day.String() + "T" + boundaryClock(resolver.Boundary()) + ":00",
		},
	}

	if !agg.LastTime.IsZero() {
		last := agg.LastTime.UTC().Format(time.RFC3339)
		result.LastTime = &last
		minutes := MinutesSince(agg.LastTime, now)
		result.MinutesSince = &minutes
	}

	offsets := make([]int, 0, len(agg.Events))
	for _, evt := range agg.Events {
		offsets = append(offsets, resolver.MinutesSinceBoundary(evt.At(), day))
	}
	score := s.tracker.Score(offsets, resolver.MinutesSinceBoundary(now, day))
	result.CompletionPct = score.CompletionPct
	result.OnTimePct = score.OnTimePct

	return result, nil
}

func boundaryClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
