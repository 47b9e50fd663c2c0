package application

import (
	"context"
	"errors"
	"log"
	"time"

	"plantpulse/internal/aggregation"
	archive "plantpulse/internal/archive/domain"
	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FinalizeService computes and archives weekly results with create-once
// semantics.
type FinalizeService struct {
	store      archive.Store
	aggregator *aggregation.Aggregator
	source     submission.EventSource
	clock      Clock
	logger     *log.Logger
}

// NewFinalizeService constructs the service.
func NewFinalizeService(store archive.Store, aggregator *aggregation.Aggregator, source submission.EventSource, clock Clock, logger *log.Logger) (*FinalizeService, error) {
	if store == nil {
		return nil, errors.New("finalize service: nil store")
	}
	if aggregator == nil {
		return nil, errors.New("finalize service: nil aggregator")
	}
	if source == nil {
		return nil, errors.New("finalize service: nil event source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FinalizeService{store: store, aggregator: aggregator, source: source, clock: clock, logger: logger}, nil
}

// FinalizeWeek returns the archived record for a work week, computing and
// creating it only when no record exists yet. The second return reports
// whether this call created the record. An existing archive is returned
// unchanged no matter what the raw logs now say.
func (s *FinalizeService) FinalizeWeek(ctx context.Context, week plantday.WorkWeek) (archive.WeeklyArchive, bool, error) {
	key := week.Key()

	existing, err := s.store.Read(ctx, key)
	if err != nil {
		return archive.WeeklyArchive{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	areas, err := s.source.ListAreas(ctx)
	if err != nil {
		// Read paths fail closed; the computed week is simply empty.
		s.logger.Printf("finalize: list areas failed, proceeding with none: %v", err)
		areas = nil
	}

	result, err := s.aggregator.AggregateWeek(ctx, areas, week)
	if err != nil {
		return archive.WeeklyArchive{}, false, err
	}
	record := archive.FromWeekResult(result, s.clock.Now())

	stored, created, err := s.store.WriteIfAbsent(ctx, key, record)
	if err != nil {
		return archive.WeeklyArchive{}, false, err
	}
	if !created {
		s.logger.Printf("finalize: week %s already archived, adopting incumbent", key)
	}
	return stored, created, nil
}

// CurrentWeek resolves the work week containing now.
func (s *FinalizeService) CurrentWeek() plantday.WorkWeek {
	return s.aggregator.Resolver().WorkWeekContaining(s.clock.Now())
}

// ListWeeks returns all archived weeks, newest first.
func (s *FinalizeService) ListWeeks(ctx context.Context) ([]archive.WeeklyArchive, error) {
	return s.store.List(ctx)
}
