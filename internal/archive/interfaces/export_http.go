package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"plantpulse/internal/archive/application"
	archive "plantpulse/internal/archive/domain"
	"plantpulse/internal/audit"
	"plantpulse/internal/auth"
	"plantpulse/internal/observability/metrics"
)

// ExportHandler renders an archived week as a downloadable file. The week
// query parameter selects a saved record; absent it exports the current
// week's archive, which must already exist.
type ExportHandler struct {
	store       archive.Store
	finalize    *application.FinalizeService
	auditLogger audit.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(store archive.Store, finalize *application.FinalizeService, auditLogger audit.Logger) (*ExportHandler, error) {
	if store == nil {
		return nil, errors.New("export handler: nil store")
	}
	if finalize == nil {
		return nil, errors.New("export handler: nil finalize service")
	}
	return &ExportHandler{store: store, finalize: finalize, auditLogger: auditLogger}, nil
}

// ServeHTTP handles GET /api/v1/exports/archive.xlsx and archive.pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var format string
	switch {
	case strings.HasSuffix(r.URL.Path, "/archive.xlsx"):
		format = "xlsx"
	case strings.HasSuffix(r.URL.Path, "/archive.pdf"):
		format = "pdf"
	default:
		http.NotFound(w, r)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	weekKey := strings.TrimSpace(r.URL.Query().Get("week"))
	if weekKey == "" {
		weekKey = h.finalize.CurrentWeek().Key()
	}
	record, err := h.store.Read(r.Context(), weekKey)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "archive store unavailable", http.StatusServiceUnavailable)
		return
	}
	if record == nil {
		result = metrics.ResultError
		http.Error(w, "week not archived", http.StatusNotFound)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "xlsx":
		data, err = BuildArchiveXLSX(*record)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = BuildArchivePDF(*record)
		contentType = "application/pdf"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, weekKey, format)
}

func (h *ExportHandler) logAudit(r *http.Request, weekKey, format string) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"format": format})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "archive.export",
		ResourceType: "weekly_archive",
		ResourceID:   weekKey,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
