// Package interfaces exposes the submission log over HTTP: the ingest
// endpoint the kiosks post to, plus the area and history reads the
// dashboards poll.
package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"
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

// IngestHandler accepts submission events and appends them to the area's
// calendar-date file. Files are keyed by the UTC date of the event, the
// same key the readers probe as a candidate file.
type IngestHandler struct {
	source submission.EventSource
	clock  Clock
	logger *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(source submission.EventSource, clock Clock, logger *log.Logger) (*IngestHandler, error) {
	if source == nil {
		return nil, errors.New("ingest handler: nil source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{source: source, clock: clock, logger: logger}, nil
}

// ServeHTTP handles POST /ingest.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	var req struct {
		SubmissionID string `json:"submission_id"`
		AreaID       string `json:"area_id"`
		Responder    string `json:"responder"`
		IssueCount   *int   `json:"issue_count"`
		Timestamp    string `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("bad_json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.SubmissionID == "" || req.AreaID == "" || req.IssueCount == nil {
		result = metrics.ResultError
		metrics.IncIngestError("missing_field")
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	at := h.clock.Now()
	if req.Timestamp != "" {
		parsed, err := submission.ParseTimestamp(req.Timestamp)
		if err != nil {
			result = metrics.ResultError
			metrics.IncIngestError("bad_timestamp")
			http.Error(w, "invalid timestamp", http.StatusBadRequest)
			return
		}
		at = parsed
	}

	evt, err := submission.NewEvent(req.SubmissionID, req.AreaID, req.Responder, *req.IssueCount, at)
	if err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("invalid_event")
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}
	line, err := evt.Line()
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if err := h.source.AppendLine(r.Context(), evt.AreaID, plantday.DateOf(at.UTC()), line); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("store_write")
		h.logger.Printf("ingest: append failed for %s: %v", evt.AreaID, err)
		http.Error(w, "store write error", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
