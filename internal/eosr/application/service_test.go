package application

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	eosr "plantpulse/internal/eosr/domain"
	"plantpulse/internal/eosr/infrastructure/memory"
	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"

	"github.com/prometheus/client_golang/prometheus"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type recordingNotifier struct {
	reports []eosr.Report
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, report eosr.Report) error {
	n.reports = append(n.reports, report)
	return n.err
}

func newService(t *testing.T, store eosr.Store, notifier *recordingNotifier, at time.Time) *Service {
	t.Helper()
	resolver, err := plantday.NewResolver("America/Chicago", "05:00")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	service, err := NewService(store, notifier, resolver, fixedClock{at: at}, log.Default())
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return service
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	// Tuesday Jan 9 2024, 15:30 Chicago.
	service := newService(t, store, notifier, time.Date(2024, 1, 9, 21, 30, 0, 0, time.UTC))

	report, err := service.Submit(context.Background(), eosr.Draft{Shift: "Second", Notes: "belt replaced"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.Week != "2024-W02" {
		t.Fatalf("week: got %q", report.Week)
	}
	if len(notifier.reports) != 1 || notifier.reports[0].Week != "2024-W02" {
		t.Fatalf("notifier: %+v", notifier.reports)
	}

	week, reports, err := service.ListWeek(context.Background(), "current")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if week != "2024-W02" || len(reports) != 1 {
		t.Fatalf("list: week=%s n=%d", week, len(reports))
	}
	if reports[0].Shift != "second" || reports[0].Notes != "belt replaced" {
		t.Fatalf("report: %+v", reports[0])
	}
}

func TestSubmitNotifyFailureDoesNotFail(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{err: errors.New("mail api down")}
	service := newService(t, store, notifier, time.Date(2024, 1, 9, 21, 30, 0, 0, time.UTC))

	if _, err := service.Submit(context.Background(), eosr.Draft{Shift: "first", Notes: "ok"}); err != nil {
		t.Fatalf("submit must not surface notify errors: %v", err)
	}
	if _, reports, _ := service.ListWeek(context.Background(), ""); len(reports) != 1 {
		t.Fatalf("report not stored, got %d", len(reports))
	}
}

func TestSubmitRecordsNotifyOutcome(t *testing.T) {
	metrics.Init(nil, log.Default())
	at := time.Date(2024, 1, 9, 21, 30, 0, 0, time.UTC)

	okBefore := notifyCount(t, metrics.ResultSuccess)
	errBefore := notifyCount(t, metrics.ResultError)

	ok := newService(t, memory.NewStore(), &recordingNotifier{}, at)
	if _, err := ok.Submit(context.Background(), eosr.Draft{Shift: "first", Notes: "ok"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	failing := newService(t, memory.NewStore(), &recordingNotifier{err: errors.New("mail api down")}, at)
	if _, err := failing.Submit(context.Background(), eosr.Draft{Shift: "first", Notes: "ok"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := notifyCount(t, metrics.ResultSuccess) - okBefore; got != 1 {
		t.Fatalf("success notify counter moved by %v, want 1", got)
	}
	if got := notifyCount(t, metrics.ResultError) - errBefore; got != 1 {
		t.Fatalf("error notify counter moved by %v, want 1", got)
	}
}

// notifyCount reads the notify counter for one result label from the
// default registry.
func notifyCount(t *testing.T, result string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "plantpulse_notify_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestSubmitRejectsInvalidDraft(t *testing.T) {
	service := newService(t, memory.NewStore(), &recordingNotifier{}, time.Now())
	if _, err := service.Submit(context.Background(), eosr.Draft{Notes: "x"}); !errors.Is(err, eosr.ErrShiftRequired) {
		t.Fatalf("got %v", err)
	}
}

func TestSubmitSurfacesStoreError(t *testing.T) {
	notifier := &recordingNotifier{}
	service := newService(t, failingStore{}, notifier, time.Now())
	if _, err := service.Submit(context.Background(), eosr.Draft{Shift: "third", Notes: "x"}); err == nil {
		t.Fatal("expected store error")
	}
	if len(notifier.reports) != 0 {
		t.Fatal("must not notify when the store rejected the report")
	}
}

func TestListWeekNewestFirstAndSkipsMalformed(t *testing.T) {
	store := memory.NewStore()
	service := newService(t, store, &recordingNotifier{}, time.Date(2024, 1, 9, 21, 30, 0, 0, time.UTC))

	for _, ts := range []string{"2024-01-08T12:00:00Z", "2024-01-09T12:00:00Z"} {
		line, err := (eosr.Report{TsUTC: ts, Week: "2024-W02", Shift: "first", Notes: "n"}).Line()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := store.AppendLine(context.Background(), "2024-W02", line); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.AppendLine(context.Background(), "2024-W02", "{not json"); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, reports, err := service.ListWeek(context.Background(), "2024-W02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports", len(reports))
	}
	if reports[0].TsUTC != "2024-01-09T12:00:00Z" {
		t.Fatalf("order: %+v", reports)
	}
}

func TestListWeeksNewestFirst(t *testing.T) {
	store := memory.NewStore()
	service := newService(t, store, &recordingNotifier{}, time.Now())
	for _, week := range []string{"2023-W52", "2024-W02", "2024-W01"} {
		if err := store.AppendLine(context.Background(), week, "{}"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	weeks, err := service.ListWeeks(context.Background())
	if err != nil {
		t.Fatalf("list weeks: %v", err)
	}
	want := []string{"2024-W02", "2024-W01", "2023-W52"}
	for i := range want {
		if weeks[i] != want[i] {
			t.Fatalf("weeks: got %v want %v", weeks, want)
		}
	}
}

type failingStore struct{}

func (failingStore) ReadWeek(context.Context, string) ([]string, error) {
	return nil, errors.New("unreachable")
}

func (failingStore) AppendLine(context.Context, string, string) error {
	return errors.New("unreachable")
}

func (failingStore) ListWeeks(context.Context) ([]string, error) {
	return nil, errors.New("unreachable")
}
