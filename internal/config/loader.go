package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ARENA_CONFIG is set
//  3. env (prefix ARENA_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("ARENA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ARENA_ADDR, ARENA_K_FACTOR, ...
	// Map env keys like ARENA_DB_PATH -> db_path (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ARENA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "arena_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.KFactor <= 0 {
		return fmt.Errorf("%w: k_factor must be positive, got %v", ErrInvalidConfig, c.KFactor)
	}
	if c.BaselineRating <= 0 {
		return fmt.Errorf("%w: baseline_rating must be positive, got %v", ErrInvalidConfig, c.BaselineRating)
	}
	if c.LockWaitMS <= 0 {
		return fmt.Errorf("%w: lock_wait_ms must be positive, got %d", ErrInvalidConfig, c.LockWaitMS)
	}
	if c.JournalQueueSize <= 0 {
		return fmt.Errorf("%w: journal_queue_size must be positive, got %d", ErrInvalidConfig, c.JournalQueueSize)
	}
	if c.JournalWorkers <= 0 {
		return fmt.Errorf("%w: journal_workers must be positive, got %d", ErrInvalidConfig, c.JournalWorkers)
	}
	return nil
}
