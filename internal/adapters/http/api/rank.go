// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"
)

// RankHandler answers where a single model stands.
type RankHandler struct {
	engine Engine
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(engine Engine) *RankHandler {
	return &RankHandler{engine: engine}
}

// HandleGetRank handles GET /rank/{model_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	modelID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if modelID == "" || strings.Contains(modelID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rows, err := h.engine.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	for _, row := range rows {
		if row.ModelID == modelID {
			writeJSON(w, http.StatusOK, row)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("model %q has no completed battles", modelID))
}
