package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	submission "plantpulse/internal/submission/domain"
)

// AreasHandler serves the known area list.
type AreasHandler struct {
	source submission.EventSource
}

// NewAreasHandler constructs an areas handler.
func NewAreasHandler(source submission.EventSource) (*AreasHandler, error) {
	if source == nil {
		return nil, errors.New("areas handler: nil source")
	}
	return &AreasHandler{source: source}, nil
}

// ServeHTTP handles GET /api/v1/areas.
func (h *AreasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	areas, err := h.source.ListAreas(r.Context())
	if err != nil || areas == nil {
		areas = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(map[string]any{"areas": areas})
}
