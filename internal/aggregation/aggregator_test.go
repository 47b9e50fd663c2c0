package aggregation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
	memorysource "plantpulse/internal/submission/infrastructure/memory"

	"github.com/prometheus/client_golang/prometheus"
)

func testAggregator(t *testing.T, source submission.EventSource, cfg Config) *Aggregator {
	t.Helper()
	resolver, err := plantday.NewResolver(cfg.Timezone, cfg.Boundary)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	agg, err := NewAggregator(source, resolver, cfg, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return agg
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func appendEvent(t *testing.T, source *memorysource.EventSource, area string, at time.Time, issues int) {
	t.Helper()
	evt := submission.Event{
		SubmissionID: fmt.Sprintf("sub-%d", at.UnixNano()),
		AreaID:       area,
		IssueCount:   issues,
		Timestamp:    at.UTC().Format(time.RFC3339),
	}
	line, err := evt.Line()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	// Files are keyed by the UTC calendar date, the way the ingest path
	// writes them.
	date := plantday.DateOf(at.UTC())
	if err := source.AppendLine(context.Background(), area, date, line); err != nil {
		t.Fatalf("append line: %v", err)
	}
}

func TestCapTable(t *testing.T) {
	cases := []struct{ n, want int }{
		{-5, 0}, {-1, 0}, {0, 0}, {1, 1}, {7, 7}, {8, 8}, {9, 8}, {100, 8}, {1 << 30, 8},
	}
	for _, tc := range cases {
		if got := Cap(tc.n, 8); got != tc.want {
			t.Fatalf("cap(%d): got %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestPercentClampAndMonotonic(t *testing.T) {
	if got := Percent(-3, 35); got != 0 {
		t.Fatalf("negative counted: got %d", got)
	}
	if got := Percent(200, 35); got != 100 {
		t.Fatalf("oversized counted: got %d", got)
	}
	if got := Percent(10, 0); got != 0 {
		t.Fatalf("zero denominator: got %d", got)
	}
	prev := 0
	for counted := 0; counted <= 50; counted++ {
		pct := Percent(counted, 35)
		if pct < prev {
			t.Fatalf("percent not monotonic at %d: %d < %d", counted, pct, prev)
		}
		if pct < 0 || pct > 100 {
			t.Fatalf("percent out of range at %d: %d", counted, pct)
		}
		prev = pct
	}
}

func TestAggregateDayScenarioA(t *testing.T) {
	source := memorysource.NewEventSource()
	cfg := DefaultConfig()
	agg := testAggregator(t, source, cfg)
	loc := agg.Resolver().Location()

	appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6, 0, 0, 0, loc), 2)
	appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 22, 0, 0, 0, loc), 0)

	day, _ := plantday.ParseDate("2024-01-08")
	result, err := agg.AggregateDay(context.Background(), "kill", day)
	if err != nil {
		t.Fatalf("aggregate day: %v", err)
	}
	if result.IssuesToday != 2 {
		t.Fatalf("issues today: got %d, want 2", result.IssuesToday)
	}
	want := ShiftCounts{First: 1, Second: 0, Third: 1}
	if result.ShiftCounts != want {
		t.Fatalf("shift counts: got %+v, want %+v", result.ShiftCounts, want)
	}
	if len(result.Events) != 2 {
		t.Fatalf("events: got %d", len(result.Events))
	}
	if !result.LastTime.Equal(time.Date(2024, 1, 8, 22, 0, 0, 0, loc)) {
		t.Fatalf("last time: got %s", result.LastTime)
	}
}

func TestAggregateDayExcludesAdjacentPlantDay(t *testing.T) {
	source := memorysource.NewEventSource()
	agg := testAggregator(t, source, DefaultConfig())
	loc := agg.Resolver().Location()

	// 04:59 local on Jan 9 belongs to plant day Jan 8 but sits in the Jan 9
	// calendar file; 05:01 belongs to plant day Jan 9.
	appendEvent(t, source, "KILL", time.Date(2024, 1, 9, 4, 59, 0, 0, loc), 1)
	appendEvent(t, source, "KILL", time.Date(2024, 1, 9, 5, 1, 0, 0, loc), 1)

	jan8, _ := plantday.ParseDate("2024-01-08")
	result, err := agg.AggregateDay(context.Background(), "KILL", jan8)
	if err != nil {
		t.Fatalf("aggregate day: %v", err)
	}
	if len(result.Events) != 1 {
		t.Fatalf("plant day jan 8: got %d events, want 1", len(result.Events))
	}
	if result.ShiftCounts.Third != 1 {
		t.Fatalf("expected the 04:59 event in third shift, got %+v", result.ShiftCounts)
	}

	jan9, _ := plantday.ParseDate("2024-01-09")
	result, err = agg.AggregateDay(context.Background(), "KILL", jan9)
	if err != nil {
		t.Fatalf("aggregate day: %v", err)
	}
	if len(result.Events) != 1 {
		t.Fatalf("plant day jan 9: got %d events, want 1", len(result.Events))
	}
}

func TestAggregateWeekScenarioBCapping(t *testing.T) {
	source := memorysource.NewEventSource()
	agg := testAggregator(t, source, DefaultConfig())
	loc := agg.Resolver().Location()

	// 9 first-shift events for one area on Monday.
	for i := 0; i < 9; i++ {
		appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6, i, 0, 0, loc), 0)
	}

	monday, _ := plantday.ParseDate("2024-01-08")
	week := plantday.WorkWeekFrom(monday)
	result, err := agg.AggregateWeek(context.Background(), []string{"KILL"}, week)
	if err != nil {
		t.Fatalf("aggregate week: %v", err)
	}
	if result.Totals.First != 9 {
		t.Fatalf("raw total: got %d, want 9", result.Totals.First)
	}
	if result.Counted.First != 8 {
		t.Fatalf("counted total: got %d, want 8", result.Counted.First)
	}
	// 8 counted over 7*5 = 23%.
	if result.Percent.First != 23 {
		t.Fatalf("percent: got %d, want 23", result.Percent.First)
	}
	if result.Winner != "1st" {
		t.Fatalf("winner: got %q", result.Winner)
	}
}

func TestAggregateWeekCapScopes(t *testing.T) {
	// Two areas logging 6 first-shift events each on one day: per-area
	// capping counts 12, global capping counts 8.
	build := func(scope CapScope) WeekResult {
		source := memorysource.NewEventSource()
		cfg := DefaultConfig()
		cfg.CapScope = scope
		agg := testAggregator(t, source, cfg)
		loc := agg.Resolver().Location()
		for i := 0; i < 6; i++ {
			appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6, i, 0, 0, loc), 0)
			appendEvent(t, source, "RENDER", time.Date(2024, 1, 8, 7, i, 0, 0, loc), 0)
		}
		monday, _ := plantday.ParseDate("2024-01-08")
		result, err := agg.AggregateWeek(context.Background(), []string{"KILL", "RENDER"}, plantday.WorkWeekFrom(monday))
		if err != nil {
			t.Fatalf("aggregate week: %v", err)
		}
		return result
	}

	perArea := build(CapScopeArea)
	if perArea.Counted.First != 12 {
		t.Fatalf("per-area counted: got %d, want 12", perArea.Counted.First)
	}
	global := build(CapScopeGlobal)
	if global.Counted.First != 8 {
		t.Fatalf("global counted: got %d, want 8", global.Counted.First)
	}
	if perArea.Totals.First != 12 || global.Totals.First != 12 {
		t.Fatalf("raw totals should be uncapped: %d, %d", perArea.Totals.First, global.Totals.First)
	}
}

func TestAggregateWeekDenominatorPerArea(t *testing.T) {
	source := memorysource.NewEventSource()
	cfg := DefaultConfig()
	cfg.DenominatorPerArea = true
	agg := testAggregator(t, source, cfg)
	loc := agg.Resolver().Location()

	for i := 0; i < 7; i++ {
		appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6, i, 0, 0, loc), 0)
	}
	monday, _ := plantday.ParseDate("2024-01-08")
	result, err := agg.AggregateWeek(context.Background(), []string{"KILL", "RENDER"}, plantday.WorkWeekFrom(monday))
	if err != nil {
		t.Fatalf("aggregate week: %v", err)
	}
	// 7 counted over 7*5*2 = 10%.
	if result.Percent.First != 10 {
		t.Fatalf("percent: got %d, want 10", result.Percent.First)
	}
}

func TestAggregateWeekMalformedLineResilience(t *testing.T) {
	monday, _ := plantday.ParseDate("2024-01-08")

	build := func(withBadLine bool) WeekResult {
		source := memorysource.NewEventSource()
		agg := testAggregator(t, source, DefaultConfig())
		loc := agg.Resolver().Location()
		for i := 0; i < 10; i++ {
			appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6+i, 0, 0, 0, loc), 0)
		}
		if withBadLine {
			date, _ := plantday.ParseDate("2024-01-08")
			if err := source.AppendLine(context.Background(), "KILL", date, "{broken"); err != nil {
				t.Fatalf("append bad line: %v", err)
			}
		}
		result, err := agg.AggregateWeek(context.Background(), []string{"KILL"}, plantday.WorkWeekFrom(monday))
		if err != nil {
			t.Fatalf("aggregate week: %v", err)
		}
		return result
	}

	clean := build(false)
	dirty := build(true)
	if clean.Totals != dirty.Totals || clean.Counted != dirty.Counted || clean.Percent != dirty.Percent {
		t.Fatalf("malformed line changed results: clean=%+v dirty=%+v", clean, dirty)
	}
}

func TestAggregateWeekEmptyAndUnreachable(t *testing.T) {
	agg := testAggregator(t, failingSource{}, DefaultConfig())
	monday, _ := plantday.ParseDate("2024-01-08")
	result, err := agg.AggregateWeek(context.Background(), []string{"KILL", "RENDER"}, plantday.WorkWeekFrom(monday))
	if err != nil {
		t.Fatalf("aggregate week should degrade, got %v", err)
	}
	if result.Totals != (ShiftCounts{}) || result.Counted != (ShiftCounts{}) {
		t.Fatalf("expected all-zero result, got %+v", result)
	}
	// With zero percent everywhere, all three shifts tie.
	if result.Winner != "1st, 2nd, 3rd" {
		t.Fatalf("winner: got %q", result.Winner)
	}
}

func TestAggregateWeekDeterministic(t *testing.T) {
	source := memorysource.NewEventSource()
	agg := testAggregator(t, source, DefaultConfig())
	loc := agg.Resolver().Location()
	for day := 8; day <= 12; day++ {
		for hour := 6; hour < 23; hour += 3 {
			appendEvent(t, source, "KILL", time.Date(2024, 1, day, hour, 0, 0, 0, loc), 1)
			appendEvent(t, source, "RENDER", time.Date(2024, 1, day, hour, 30, 0, 0, loc), 0)
		}
	}
	monday, _ := plantday.ParseDate("2024-01-08")
	week := plantday.WorkWeekFrom(monday)
	areas := []string{"KILL", "RENDER"}

	first, err := agg.AggregateWeek(context.Background(), areas, week)
	if err != nil {
		t.Fatalf("aggregate week: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := agg.AggregateWeek(context.Background(), areas, week)
		if err != nil {
			t.Fatalf("aggregate week: %v", err)
		}
		if again.Totals != first.Totals || again.Counted != first.Counted || again.Winner != first.Winner {
			t.Fatalf("result varied between runs: %+v vs %+v", again, first)
		}
	}
}

func TestFetchDayBoundsConcurrentReads(t *testing.T) {
	source := &gaugedSource{}
	agg := testAggregator(t, source, DefaultConfig())

	areas := make([]string, 12)
	for i := range areas {
		areas[i] = fmt.Sprintf("AREA-%d", i)
	}
	monday, _ := plantday.ParseDate("2024-01-08")
	if _, err := agg.AggregateWeek(context.Background(), areas, plantday.WorkWeekFrom(monday)); err != nil {
		t.Fatalf("aggregate week: %v", err)
	}
	if source.peak > maxDayFetches {
		t.Fatalf("observed %d concurrent reads, bound is %d", source.peak, maxDayFetches)
	}
}

// gaugedSource records the peak number of in-flight ReadDay calls.
type gaugedSource struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *gaugedSource) ListAreas(context.Context) ([]string, error) { return nil, nil }

func (s *gaugedSource) ReadDay(context.Context, string, plantday.Date) ([]string, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return nil, nil
}

func (s *gaugedSource) AppendLine(context.Context, string, plantday.Date, string) error {
	return nil
}

func TestAggregateWeekRecordsSkippedLines(t *testing.T) {
	metrics.Init(nil, log.New(testWriter{t}, "", 0))

	source := memorysource.NewEventSource()
	agg := testAggregator(t, source, DefaultConfig())
	loc := agg.Resolver().Location()
	appendEvent(t, source, "KILL", time.Date(2024, 1, 8, 6, 0, 0, 0, loc), 0)
	date, _ := plantday.ParseDate("2024-01-08")
	for _, bad := range []string{"{broken", "not json"} {
		if err := source.AppendLine(context.Background(), "KILL", date, bad); err != nil {
			t.Fatalf("append bad line: %v", err)
		}
	}

	before := counterValue(t, "plantpulse_skipped_lines_total")
	monday, _ := plantday.ParseDate("2024-01-08")
	if _, err := agg.AggregateWeek(context.Background(), []string{"KILL"}, plantday.WorkWeekFrom(monday)); err != nil {
		t.Fatalf("aggregate week: %v", err)
	}
	if got := counterValue(t, "plantpulse_skipped_lines_total") - before; got != 2 {
		t.Fatalf("skipped lines counter moved by %v, want 2", got)
	}
}

// counterValue reads an unlabelled counter from the default registry.
func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

type failingSource struct{}

func (failingSource) ListAreas(context.Context) ([]string, error) {
	return nil, fmt.Errorf("upstream unavailable")
}

func (failingSource) ReadDay(context.Context, string, plantday.Date) ([]string, error) {
	return nil, fmt.Errorf("upstream unavailable")
}

func (failingSource) AppendLine(context.Context, string, plantday.Date, string) error {
	return fmt.Errorf("upstream unavailable")
}
