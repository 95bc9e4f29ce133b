package testbattles

import (
	"fmt"
	"log"
	"math"
)

// ratingTolerance absorbs float accumulation error across many updates.
const ratingTolerance = 1e-6

// defaultBaseline matches the engine default; conservation is checked
// against it because every rating delta is zero-sum around the baseline.
const defaultBaseline = 1500.0

// verifyResults checks the final leaderboard for internal consistency.
func verifyResults(config *Config, leaderboard []Row, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(leaderboard) == 0 {
		if stats.BattlesSuccessful > 0 {
			return fmt.Errorf("%d battles resolved but leaderboard is empty", stats.BattlesSuccessful)
		}
		log.Println("✅ No battles resolved, empty leaderboard is consistent")
		return nil
	}

	if err := verifyLeaderboardOrder(leaderboard); err != nil {
		return err
	}
	if err := verifyRatingConservation(leaderboard); err != nil {
		return err
	}
	if err := verifyCounters(leaderboard, stats); err != nil {
		return err
	}

	displayTopModels(leaderboard, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyLeaderboardOrder checks ratings never ascend down the board and
// ranks are dense from 1.
func verifyLeaderboardOrder(leaderboard []Row) error {
	for i, row := range leaderboard {
		if row.Rank != i+1 {
			return fmt.Errorf("rank at position %d is %d, want %d", i, row.Rank, i+1)
		}
		if i > 0 && row.Rating > leaderboard[i-1].Rating {
			return fmt.Errorf("leaderboard not sorted: entry %d outrates entry %d", i, i-1)
		}
	}
	return nil
}

// verifyRatingConservation checks that points only move between models.
// Every update is zero-sum, so the sum of ratings must equal the number
// of rated models times the baseline.
func verifyRatingConservation(leaderboard []Row) error {
	var sum float64
	for _, row := range leaderboard {
		sum += row.Rating
	}
	expected := float64(len(leaderboard)) * defaultBaseline
	if math.Abs(sum-expected) > ratingTolerance*float64(len(leaderboard)+1) {
		return fmt.Errorf("rating sum %.6f deviates from expected %.6f", sum, expected)
	}
	return nil
}

// verifyCounters checks per-model counters add up: every battle has two
// participants, and wins mirror losses across the board.
func verifyCounters(leaderboard []Row, stats *Stats) error {
	var games, wins, losses, ties int
	for _, row := range leaderboard {
		if row.Games < row.Wins+row.Losses+row.Ties {
			return fmt.Errorf("model %s has more results than games", row.ModelID)
		}
		games += row.Games
		wins += row.Wins
		losses += row.Losses
		ties += row.Ties
	}
	if games%2 != 0 {
		return fmt.Errorf("total games %d is odd; every battle has two participants", games)
	}
	if wins != losses {
		return fmt.Errorf("wins (%d) and losses (%d) do not mirror", wins, losses)
	}
	if ties%2 != 0 {
		return fmt.Errorf("total ties %d is odd", ties)
	}
	if games/2 != stats.BattlesSuccessful {
		log.Printf("⚠️  %d games on the board vs %d successful battles; earlier runs may share the store",
			games/2, stats.BattlesSuccessful)
	}
	return nil
}

// displayTopModels shows the best ranked models.
func displayTopModels(leaderboard []Row, verbose bool) {
	topN := 10
	if len(leaderboard) < topN {
		topN = len(leaderboard)
	}

	log.Printf("🏆 Top %d models:", topN)
	for i := 0; i < topN; i++ {
		row := leaderboard[i]
		log.Printf("   %d. %s - Rating: %.1f (%dW/%dL/%dT over %d games)",
			row.Rank, row.ModelID, row.Rating, row.Wins, row.Losses, row.Ties, row.Games)
	}

	if verbose && len(leaderboard) > 0 {
		var sum float64
		for _, row := range leaderboard {
			sum += row.Rating
		}
		log.Printf(`📊 Rating statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, sum/float64(len(leaderboard)), leaderboard[0].Rating, leaderboard[len(leaderboard)-1].Rating)
	}
}
