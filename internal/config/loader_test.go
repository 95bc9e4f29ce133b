package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9080" {
		t.Errorf("addr = %q, want :9080", cfg.Addr)
	}
	if cfg.KFactor != 32.0 {
		t.Errorf("k_factor = %v, want 32", cfg.KFactor)
	}
	if cfg.BaselineRating != 1500.0 {
		t.Errorf("baseline_rating = %v, want 1500", cfg.BaselineRating)
	}
	if cfg.JournalQueueSize != 4096 {
		t.Errorf("journal_queue_size = %d, want 4096", cfg.JournalQueueSize)
	}
	if cfg.MaxLeaderboardLimit != 100 {
		t.Errorf("max_leaderboard_limit = %d, want 100", cfg.MaxLeaderboardLimit)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARENA_ADDR", ":7070")
	t.Setenv("ARENA_DB_PATH", "/tmp/battles.db")
	t.Setenv("ARENA_K_FACTOR", "24")
	t.Setenv("ARENA_LOG_LEVEL", "debug")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q, want :7070", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/battles.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.KFactor != 24.0 {
		t.Errorf("k_factor = %v, want 24", cfg.KFactor)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.BaselineRating != 1500.0 {
		t.Errorf("baseline_rating = %v, want 1500", cfg.BaselineRating)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.yaml")
	payload := []byte("addr: \":6060\"\nk_factor: 16\nmodel_pool:\n  - alpha\n  - beta\n")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("ARENA_CONFIG", path)
	t.Setenv("ARENA_K_FACTOR", "40")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":6060" {
		t.Errorf("addr = %q, want file value :6060", cfg.Addr)
	}
	if cfg.KFactor != 40.0 {
		t.Errorf("k_factor = %v, env must win over file", cfg.KFactor)
	}
	if len(cfg.ModelPool) != 2 || cfg.ModelPool[0] != "alpha" {
		t.Errorf("model_pool = %v", cfg.ModelPool)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("ARENA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load(context.Background())
	if !errors.Is(err, ErrLoadConfig) {
		t.Fatalf("expected ErrLoadConfig, got %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"ARENA_K_FACTOR":           "-1",
		"ARENA_BASELINE_RATING":    "0",
		"ARENA_LOCK_WAIT_MS":       "-5",
		"ARENA_JOURNAL_QUEUE_SIZE": "0",
		"ARENA_JOURNAL_WORKERS":    "-2",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(context.Background())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
