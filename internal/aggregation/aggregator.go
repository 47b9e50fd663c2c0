package aggregation

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

// Aggregator turns raw event streams into shift/day buckets and weekly
// scores. It holds no state between calls; identical inputs produce
// identical results.
type Aggregator struct {
	source   submission.EventSource
	resolver *plantday.Resolver
	cfg      Config
	logger   *log.Logger
}

// NewAggregator constructs an aggregator.
func NewAggregator(source submission.EventSource, resolver *plantday.Resolver, cfg Config, logger *log.Logger) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New("aggregator: nil event source")
	}
	if resolver == nil {
		return nil, errors.New("aggregator: nil resolver")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{source: source, resolver: resolver, cfg: cfg, logger: logger}, nil
}

// Resolver exposes the time resolver the aggregator was built with.
func (a *Aggregator) Resolver() *plantday.Resolver { return a.resolver }

// Config exposes the scoring constants.
func (a *Aggregator) Config() Config { return a.cfg }

// Cap bounds a raw count to [0, cap].
func Cap(n, cap int) int {
	if n < 0 {
		return 0
	}
	if n > cap {
		return cap
	}
	return n
}

// cellKey identifies one (area, plant day, shift) bucket.
type cellKey struct {
	Area  string
	Day   plantday.Date
	Shift plantday.Shift
}

// AggregateWeek scores a work week across all given areas. Unreachable or
// missing data degrades to zero counts; the call itself never fails for a
// read problem.
func (a *Aggregator) AggregateWeek(ctx context.Context, areas []string, week plantday.WorkWeek) (WeekResult, error) {
	cells := make(map[cellKey]int)
	skipped := 0

	for _, day := range week.Days {
		batches := a.fetchDay(ctx, areas, day)
		for areaIdx, lines := range batches {
			area := strings.ToUpper(areas[areaIdx])
			for _, line := range lines {
				evt, err := submission.ParseLine(line)
				if err != nil {
					// Skip and continue: one bad line never aborts the batch.
					skipped++
					continue
				}
				if !a.resolver.InPlantDay(evt.At(), day) {
					// The adjacent calendar file holds events belonging to a
					// different plant day; dropping them prevents double counting.
					continue
				}
				shift := a.resolver.ShiftAt(evt.At())
				if shift == plantday.ShiftNone {
					a.logger.Printf("aggregation: event %s maps to no shift", evt.SubmissionID)
					continue
				}
				cells[cellKey{Area: area, Day: day, Shift: shift}]++
			}
		}
	}

	if skipped > 0 {
		a.logger.Printf("aggregation: skipped %d malformed lines", skipped)
		metrics.AddSkippedLines(skipped)
	}
	return a.score(areas, week, cells), nil
}

// maxDayFetches bounds how many areas are read concurrently per day, to
// keep the fan-out against the backing store small.
const maxDayFetches = 4

// fetchDay reads both candidate calendar files for every area concurrently
// and gathers the lines per area before any bucketing. Completion order
// cannot affect the result.
func (a *Aggregator) fetchDay(ctx context.Context, areas []string, day plantday.Date) [][]string {
	files := a.resolver.CandidateFiles(day)
	batches := make([][]string, len(areas))

	if len(areas) == 0 {
		return batches
	}
	sem := make(chan struct{}, maxDayFetches)
	var wg sync.WaitGroup
	for i, area := range areas {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, area string) {
			defer wg.Done()
			defer func() { <-sem }()
			var lines []string
			for _, file := range files {
				part, err := a.source.ReadDay(ctx, area, file)
				if err != nil {
					// Read paths fail closed: unreachable data reads as empty.
					continue
				}
				lines = append(lines, part...)
			}
			batches[idx] = lines
		}(i, area)
	}
	wg.Wait()
	return batches
}

func (a *Aggregator) score(areas []string, week plantday.WorkWeek, cells map[cellKey]int) WeekResult {
	days := make([]DayCounts, len(week.Days))
	var totals, counted ShiftCounts

	for i, day := range week.Days {
		dayRaw := ShiftCounts{}
		for _, shift := range plantday.Shifts() {
			switch a.cfg.CapScope {
			case CapScopeArea:
				for _, area := range areas {
					raw := cells[cellKey{Area: strings.ToUpper(area), Day: day, Shift: shift}]
					dayRaw.Add(shift, raw)
					counted.Add(shift, Cap(raw, a.cfg.CapPerDay))
				}
			case CapScopeGlobal:
				sum := 0
				for _, area := range areas {
					sum += cells[cellKey{Area: strings.ToUpper(area), Day: day, Shift: shift}]
				}
				dayRaw.Add(shift, sum)
				counted.Add(shift, Cap(sum, a.cfg.CapPerDay))
			}
			totals.Add(shift, dayRaw.Get(shift))
		}
		days[i] = DayCounts{Label: day.String(), First: dayRaw.First, Second: dayRaw.Second, Third: dayRaw.Third}
	}

	denominator := a.cfg.GoalPerShiftPerDay * len(week.Days)
	if a.cfg.DenominatorPerArea && len(areas) > 0 {
		denominator *= len(areas)
	}

	percent := ShiftCounts{
		First:  Percent(counted.First, denominator),
		Second: Percent(counted.Second, denominator),
		Third:  Percent(counted.Third, denominator),
	}

	return WeekResult{
		Period:  Period{Start: week.Start.String(), End: week.End().String(), TZ: a.resolver.TimezoneName()},
		Days:    days,
		Totals:  totals,
		Counted: counted,
		Percent: percent,
		Winner:  winnerLabel(percent),
	}
}

// Percent converts a counted value over a denominator to a clamped 0..100
// integer percentage.
func Percent(counted, denominator int) int {
	if denominator <= 0 {
		return 0
	}
	pct := int(math.Round(float64(counted) / float64(denominator) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// AggregateDay buckets a single area's events within one plant day. Used by
// the status path; degrades to an empty aggregate when data is unreachable.
func (a *Aggregator) AggregateDay(ctx context.Context, area string, day plantday.Date) (DayAggregate, error) {
	area = strings.ToUpper(strings.TrimSpace(area))
	if area == "" {
		return DayAggregate{}, submission.ErrEmptyAreaID
	}

	agg := DayAggregate{Area: area, Day: day}
	skipped := 0
	for _, file := range a.resolver.CandidateFiles(day) {
		lines, err := a.source.ReadDay(ctx, area, file)
		if err != nil {
			continue
		}
		for _, line := range lines {
			evt, err := submission.ParseLine(line)
			if err != nil {
				skipped++
				continue
			}
			if !a.resolver.InPlantDay(evt.At(), day) {
				continue
			}
			agg.Events = append(agg.Events, evt)
		}
	}

	sort.Slice(agg.Events, func(i, j int) bool {
		return agg.Events[i].At().Before(agg.Events[j].At())
	})
	for _, evt := range agg.Events {
		agg.ShiftCounts.Add(a.resolver.ShiftAt(evt.At()), 1)
		agg.IssuesToday += evt.IssueCount
	}
	if n := len(agg.Events); n > 0 {
		agg.LastTime = agg.Events[n-1].At()
	}
	metrics.AddSkippedLines(skipped)
	return agg, nil
}
