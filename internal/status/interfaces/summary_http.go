// Package interfaces serves area status over HTTP.
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/status"
)

// SummaryHandler serves the live day summary for one area.
type SummaryHandler struct {
	service *status.Service
}

// NewSummaryHandler constructs a summary handler.
func NewSummaryHandler(service *status.Service) (*SummaryHandler, error) {
	if service == nil {
		return nil, errors.New("summary handler: nil service")
	}
	return &SummaryHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/summary?area=.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	area := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("area")))
	if area == "" {
		http.Error(w, "missing area", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSummary(result, time.Since(start))
	}()

	summary, err := h.service.Summarize(r.Context(), area)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "summary error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(summary)
}
