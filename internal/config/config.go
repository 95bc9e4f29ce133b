// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and ARENA_* env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file backing sessions and ratings. Empty means
	// in-memory state that does not survive restart.
	DBPath string `koanf:"db_path"`

	// KFactor sets the ELO K-factor applied to every outcome.
	KFactor float64 `koanf:"k_factor"`

	// BaselineRating is the rating new models start from.
	BaselineRating float64 `koanf:"baseline_rating"`

	// LockWaitMS bounds how long a directive waits on a busy session
	// before failing as retryable.
	LockWaitMS int `koanf:"lock_wait_ms"`

	// ModelPool lists the model ids battles draw from. ModelPoolFile, if
	// set, is a JSON array file that overrides it.
	ModelPool     []string `koanf:"model_pool"`
	ModelPoolFile string   `koanf:"model_pool_file"`

	// JournalQueueSize bounds the in-memory outcome journal queue.
	JournalQueueSize int `koanf:"journal_queue_size"`

	// JournalWorkers sets the number of journal writers.
	JournalWorkers int `koanf:"journal_workers"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DBPath:              "arena.db",
		KFactor:             32.0,
		BaselineRating:      1500.0,
		LockWaitMS:          5_000,
		JournalQueueSize:    4096,
		JournalWorkers:      2,
		MaxLeaderboardLimit: 100,
	}
}
