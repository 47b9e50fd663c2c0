// Package application wires report submission and listing.
package application

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	eosr "plantpulse/internal/eosr/domain"
	"plantpulse/internal/eosr/notify"
	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current instant.
func (SystemClock) Now() time.Time { return time.Now() }

// Service handles end-of-shift report submission and retrieval.
type Service struct {
	store    eosr.Store
	notifier notify.Notifier
	resolver *plantday.Resolver
	clock    Clock
	logger   *log.Logger
}

// NewService constructs the report service.
func NewService(store eosr.Store, notifier notify.Notifier, resolver *plantday.Resolver, clock Clock, logger *log.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("eosr service: nil store")
	}
	if resolver == nil {
		return nil, errors.New("eosr service: nil resolver")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, notifier: notifier, resolver: resolver, clock: clock, logger: logger}, nil
}

// Submit validates and stores a report in the current week's file, then
// fires the notification. Storage errors surface to the caller so the
// report is not silently lost; notification errors are only logged.
func (s *Service) Submit(ctx context.Context, draft eosr.Draft) (eosr.Report, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return eosr.Report{}, err
	}
	now := s.clock.Now()
	weekID := s.resolver.ISOWeekID(now)
	report := draft.Stamp(now, s.resolver.TimezoneName(), s.resolver.Location(), weekID)

	line, err := report.Line()
	if err != nil {
		return eosr.Report{}, err
	}
	if err := s.store.AppendLine(ctx, weekID, line); err != nil {
		return eosr.Report{}, err
	}

	if err := s.notifier.Notify(ctx, report); err != nil {
		s.logger.Printf("eosr: notify failed for week %s: %v", weekID, err)
		metrics.IncNotify(metrics.ResultError)
	} else {
		metrics.IncNotify(metrics.ResultSuccess)
	}
	return report, nil
}

// ListWeek returns the reports of one week, newest first. The week
// parameter may be a week id, "current", or empty for the current week.
func (s *Service) ListWeek(ctx context.Context, week string) (string, []eosr.Report, error) {
	week = strings.TrimSpace(week)
	if week == "" || strings.EqualFold(week, "current") {
		week = s.resolver.ISOWeekID(s.clock.Now())
	}
	lines, err := s.store.ReadWeek(ctx, week)
	if err != nil {
		return week, nil, nil
	}
	reports := make([]eosr.Report, 0, len(lines))
	for _, line := range lines {
		report, err := eosr.ParseLine(line)
		if err != nil {
			s.logger.Printf("eosr: skipping malformed line in week %s: %v", week, err)
			continue
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].TsUTC > reports[j].TsUTC
	})
	return week, reports, nil
}

// ListWeeks returns all known week ids, newest first.
func (s *Service) ListWeeks(ctx context.Context) ([]string, error) {
	weeks, err := s.store.ListWeeks(ctx)
	if err != nil {
		return nil, nil
	}
	return weeks, nil
}

// CurrentWeekID returns the id of the week containing now.
func (s *Service) CurrentWeekID() string {
	return s.resolver.ISOWeekID(s.clock.Now())
}
