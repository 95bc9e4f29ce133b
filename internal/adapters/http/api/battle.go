// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lianues/LeiNaoArena/internal/adapters/repository"
	"github.com/Lianues/LeiNaoArena/internal/domain/assign"
	"github.com/Lianues/LeiNaoArena/internal/domain/command"
	"github.com/Lianues/LeiNaoArena/internal/domain/keyedlock"
)

// battleRequest mirrors the schema for POST /battle. SessionID carries the
// caller's current session so that bare directives like $winA resolve.
type battleRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// BattleHandler handles inbound battle messages.
type BattleHandler struct {
	engine Engine
}

// NewBattleHandler creates a new battle handler.
func NewBattleHandler(engine Engine) *BattleHandler {
	return &BattleHandler{engine: engine}
}

// HandlePostBattle handles POST /battle requests.
func (h *BattleHandler) HandlePostBattle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req battleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing message", ErrBadRequest))
		return
	}

	res, err := h.engine.Handle(r.Context(), req.Message, req.SessionID)
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// classify maps engine errors onto HTTP status codes. Lock timeouts are the
// only retryable class; everything else is a caller mistake or a server
// fault.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, command.ErrUnknownDirective),
		errors.Is(err, command.ErrMissingSessionID):
		return http.StatusBadRequest, "bad_directive"
	case errors.Is(err, repository.ErrDuplicateSession):
		return http.StatusConflict, "duplicate_session"
	case errors.Is(err, repository.ErrSessionLocked):
		return http.StatusConflict, "session_locked"
	case errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, keyedlock.ErrTimeout):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, assign.ErrInsufficientPool):
		return http.StatusServiceUnavailable, "pool_too_small"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
