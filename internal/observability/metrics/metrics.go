package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "plantpulse_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	aggregateWeekTotal   *prometheus.CounterVec
	aggregateWeekLatency *prometheus.HistogramVec
	skippedLines         prometheus.Counter

	summaryTotal   *prometheus.CounterVec
	summaryLatency *prometheus.HistogramVec

	finalizeTotal   *prometheus.CounterVec
	finalizeLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	notifyTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		aggregateWeekTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregate_week_total",
				Help: "Total week aggregations by result",
			},
			[]string{"result"},
		)
		aggregateWeekLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregate_week_latency_seconds",
				Help:    "Week aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		skippedLines = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "skipped_lines_total",
				Help: "Total malformed submission lines skipped during aggregation",
			},
		)

		summaryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "summary_total",
				Help: "Total area summary computations by result",
			},
			[]string{"result"},
		)
		summaryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "summary_latency_seconds",
				Help:    "Area summary latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		finalizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finalize_total",
				Help: "Total week finalize operations by result",
			},
			[]string{"result"},
		)
		finalizeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "finalize_latency_seconds",
				Help:    "Week finalize latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total archive export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Archive export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_total",
				Help: "Total report notifications by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			aggregateWeekTotal,
			aggregateWeekLatency,
			skippedLines,
			summaryTotal,
			summaryLatency,
			finalizeTotal,
			finalizeLatency,
			exportTotal,
			exportLatency,
			notifyTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveAggregateWeek records week aggregation latency and result.
func ObserveAggregateWeek(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if aggregateWeekTotal != nil {
		aggregateWeekTotal.WithLabelValues(result).Inc()
	}
	if aggregateWeekLatency != nil {
		aggregateWeekLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddSkippedLines increments the malformed line counter by count.
func AddSkippedLines(count int) {
	if count <= 0 {
		return
	}
	if skippedLines != nil {
		skippedLines.Add(float64(count))
	}
}

// ObserveSummary records area summary latency and result.
func ObserveSummary(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if summaryTotal != nil {
		summaryTotal.WithLabelValues(result).Inc()
	}
	if summaryLatency != nil {
		summaryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveFinalize records week finalize latency and result.
func ObserveFinalize(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if finalizeTotal != nil {
		finalizeTotal.WithLabelValues(result).Inc()
	}
	if finalizeLatency != nil {
		finalizeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncNotify increments the notification counter by result.
func IncNotify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
