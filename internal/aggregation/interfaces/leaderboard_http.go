// Package interfaces serves the live week leaderboard over HTTP.
package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"plantpulse/internal/aggregation"
	"plantpulse/internal/observability/metrics"
	submission "plantpulse/internal/submission/domain"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current instant.
func (SystemClock) Now() time.Time { return time.Now() }

// LeaderboardHandler computes the running result of the current week on
// every request; nothing is cached, the raw logs are the truth.
type LeaderboardHandler struct {
	aggregator *aggregation.Aggregator
	source     submission.EventSource
	clock      Clock
	logger     *log.Logger
}

// NewLeaderboardHandler constructs a leaderboard handler.
func NewLeaderboardHandler(aggregator *aggregation.Aggregator, source submission.EventSource, clock Clock, logger *log.Logger) (*LeaderboardHandler, error) {
	if aggregator == nil {
		return nil, errors.New("leaderboard handler: nil aggregator")
	}
	if source == nil {
		return nil, errors.New("leaderboard handler: nil source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LeaderboardHandler{aggregator: aggregator, source: source, clock: clock, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/leaderboard.
func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAggregateWeek(result, time.Since(start))
	}()

	areas, err := h.source.ListAreas(r.Context())
	if err != nil {
		// Read paths fail closed; an unreachable source scores an empty week.
		h.logger.Printf("leaderboard: list areas failed: %v", err)
		areas = nil
	}
	week := h.aggregator.Resolver().WorkWeekContaining(h.clock.Now())
	weekResult, err := h.aggregator.AggregateWeek(r.Context(), areas, week)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "aggregation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(weekResult)
}
