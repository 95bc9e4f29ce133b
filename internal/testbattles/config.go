package testbattles

import (
	"time"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Config holds configuration for the battle load test.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumBattles int           // Number of battles to run
	Turns      int           // Conversation turns per battle before the verdict
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for battle transcripts
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Battle is one scripted session: start directive, battle turns, verdict.
type Battle struct {
	SessionID string   `json:"session_id"`
	Messages  []string `json:"messages"`
	Outcome   string   `json:"outcome"`
}

// Row mirrors a leaderboard entry returned by the service.
type Row = model.LeaderboardRow

// Stats holds test statistics.
type Stats struct {
	BattlesGenerated   int
	BattlesSubmitted   int
	BattlesSuccessful  int
	BattlesRejected    int
	BattlesFailed      int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
