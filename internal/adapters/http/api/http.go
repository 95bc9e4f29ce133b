// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Engine bundles what HTTP handlers need from the battle engine. Using an
// interface keeps the handler layer loosely coupled to the app package.
type Engine interface {
	// Handle processes one inbound chat message against the session the
	// caller is currently in.
	Handle(ctx context.Context, raw, sessionID string) (model.EngineResult, error)

	// Leaderboard returns all rated models, best first.
	Leaderboard(ctx context.Context) ([]Row, error)
}

// Row mirrors the read shape returned by leaderboard queries.
type Row = model.LeaderboardRow

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	battleHandler      *BattleHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(engine Engine, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		battleHandler:      NewBattleHandler(engine),
		leaderboardHandler: NewLeaderboardHandler(engine, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(engine),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	register := func(path string, handler http.HandlerFunc, endpoint string) {
		mux.HandleFunc(path, RequestIDMiddleware(MetricsMiddleware(handler, endpoint), endpoint))
	}
	register("/healthz", s.healthHandler.HandleHealth, "healthz")
	register("/stats", s.statsHandler.HandleStats, "stats")
	register("/battle", s.battleHandler.HandlePostBattle, "battle")
	register("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")
	register("/rank/", s.rankHandler.HandleGetRank, "rank")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
