package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

const (
	historyDefaultLimit = 100
	historyMaxLimit     = 500
)

// HistoryHandler serves recent raw events for one area. It reads the three
// calendar-date files around now (yesterday, today, tomorrow in the plant
// timezone), so clock skew between submitters cannot hide fresh events.
type HistoryHandler struct {
	source   submission.EventSource
	resolver *plantday.Resolver
	clock    Clock
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(source submission.EventSource, resolver *plantday.Resolver, clock Clock) (*HistoryHandler, error) {
	if source == nil {
		return nil, errors.New("history handler: nil source")
	}
	if resolver == nil {
		return nil, errors.New("history handler: nil resolver")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &HistoryHandler{source: source, resolver: resolver, clock: clock}, nil
}

type historyItem struct {
	SubmissionID string `json:"submission_id"`
	Timestamp    string `json:"timestamp"`
	Responder    string `json:"responder,omitempty"`
	IssueCount   int    `json:"issue_count"`
}

// ServeHTTP handles GET /api/v1/history?area=&limit=.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	area := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("area")))
	if area == "" {
		http.Error(w, "missing area", http.StatusBadRequest)
		return
	}
	limit := historyDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	today, _ := h.resolver.Localize(h.clock.Now())
	events := make([]submission.Event, 0, limit)
	for _, offset := range []int{0, -1, 1} {
		lines, err := h.source.ReadDay(r.Context(), area, today.AddDays(offset))
		if err != nil {
			continue
		}
		for _, line := range lines {
			evt, err := submission.ParseLine(line)
			if err != nil {
				continue
			}
			if evt.AreaID != area {
				continue
			}
			events = append(events, evt)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At().Before(events[j].At())
	})
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	// Newest first.
	items := make([]historyItem, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		evt := events[i]
		items = append(items, historyItem{
			SubmissionID: evt.SubmissionID,
			Timestamp:    evt.Timestamp,
			Responder:    evt.Responder,
			IssueCount:   evt.IssueCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(map[string]any{"area": area, "items": items})
}
