package testbattles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Lianues/LeiNaoArena/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete battle load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting arena battle test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("battles", config.NumBattles),
		logger.Int("turns", config.Turns),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	battles := generateBattles(ctx, config, stats)

	if err := runBattles(ctx, config, battles, stats); err != nil {
		return fmt.Errorf("battle run failed: %w", err)
	}

	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	if err := verifyResults(config, leaderboard, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if err := saveBattlesToFile(ctx, config, battles); err != nil {
		logger.Get().Warn(ctx, "failed to save battles to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 is healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != statusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveBattlesToFile saves the generated battle scripts to a JSON file.
func saveBattlesToFile(ctx context.Context, config *Config, battles []Battle) error {
	if len(battles) == 0 {
		return fmt.Errorf("no battles to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "battles_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}
	for i, battle := range battles {
		jsonData, err := marshalJSON(battle)
		if err != nil {
			return fmt.Errorf("failed to marshal battle %d: %w", i, err)
		}
		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write battle %d: %w", i, err)
		}
		if i < len(battles)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}
	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "battles saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, battlesPerSecond float64

	if stats.BattlesSubmitted > 0 {
		successRate = float64(stats.BattlesSuccessful) / float64(stats.BattlesSubmitted) * 100
	}
	if stats.Duration > 0 {
		battlesPerSecond = float64(stats.BattlesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("battlesGenerated", stats.BattlesGenerated),
		logger.Int("battlesSubmitted", stats.BattlesSubmitted),
		logger.Int("battlesSuccessful", stats.BattlesSuccessful),
		logger.Int("battlesRejected", stats.BattlesRejected),
		logger.Int("battlesFailed", stats.BattlesFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("battlesPerSecond", battlesPerSecond))
}
