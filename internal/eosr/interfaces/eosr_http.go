// Package interfaces serves end-of-shift reports over HTTP.
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"plantpulse/internal/eosr/application"
	eosr "plantpulse/internal/eosr/domain"
)

// Handler serves /api/v1/eosr: POST files a report, GET lists a week or
// all known weeks.
type Handler struct {
	service *application.Service
}

// NewHandler constructs a report handler.
func NewHandler(service *application.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("eosr handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP routes report requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shift       string `json:"shift"`
		Priority    string `json:"priority"`
		SubmittedBy string `json:"submitted_by"`
		Notes       string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	report, err := h.service.Submit(r.Context(), eosr.Draft{
		Shift:       req.Shift,
		Priority:    req.Priority,
		SubmittedBy: req.SubmittedBy,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, eosr.ErrShiftRequired) || errors.Is(err, eosr.ErrNotesRequired) {
			http.Error(w, "shift and notes required", http.StatusBadRequest)
			return
		}
		http.Error(w, "report store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "week": report.Week})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if strings.EqualFold(r.URL.Query().Get("weeks"), "all") {
		weeks, err := h.service.ListWeeks(r.Context())
		if err != nil || weeks == nil {
			weeks = []string{}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"weeks": weeks})
		return
	}

	week, reports, err := h.service.ListWeek(r.Context(), r.URL.Query().Get("week"))
	if err != nil || reports == nil {
		reports = []eosr.Report{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"week": week, "items": reports})
}
