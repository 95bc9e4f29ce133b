// Package leaderboard projects rating records into a ranked view.
package leaderboard

import (
	"sort"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Rank orders records by rating descending and assigns 1-based ranks.
// Ties on rating rank the model with more games higher; remaining ties
// break on model id ascending so the output is deterministic. The input
// slice is not modified.
func Rank(records []model.RatingRecord) []model.LeaderboardRow {
	sorted := make([]model.RatingRecord, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.ModelID < b.ModelID
	})

	rows := make([]model.LeaderboardRow, len(sorted))
	for i, r := range sorted {
		rows[i] = model.LeaderboardRow{
			Rank:    i + 1,
			ModelID: r.ModelID,
			Rating:  r.Rating,
			Games:   r.Games,
			Wins:    r.Wins,
			Losses:  r.Losses,
			Ties:    r.Ties,
		}
	}
	return rows
}
