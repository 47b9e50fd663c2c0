package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"plantpulse/internal/archive/application"
	"plantpulse/internal/audit"
	"plantpulse/internal/auth"
	"plantpulse/internal/observability/metrics"
)

// ArchiveHandler serves the weekly archive: GET lists saved weeks, POST
// finalizes the current week.
type ArchiveHandler struct {
	finalize    *application.FinalizeService
	auditLogger audit.Logger
}

// NewArchiveHandler constructs an archive handler.
func NewArchiveHandler(finalize *application.FinalizeService, auditLogger audit.Logger) (*ArchiveHandler, error) {
	if finalize == nil {
		return nil, errors.New("archive handler: nil finalize service")
	}
	return &ArchiveHandler{finalize: finalize, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/archive.
func (h *ArchiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleFinalize(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ArchiveHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.finalize.ListWeeks(r.Context())
	if err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(map[string]any{"weeks": records})
}

func (h *ArchiveHandler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinalize(result, time.Since(start))
	}()

	week := h.finalize.CurrentWeek()
	record, created, err := h.finalize.FinalizeWeek(r.Context(), week)
	if err != nil {
		result = metrics.ResultError
		// Store failures are retryable: the caller posts again later.
		http.Error(w, "archive store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(record)
	h.logAudit(r, week.Key(), created)
}

func (h *ArchiveHandler) logAudit(r *http.Request, weekKey string, created bool) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"created": created})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "archive.finalize",
		ResourceType: "weekly_archive",
		ResourceID:   weekKey,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
