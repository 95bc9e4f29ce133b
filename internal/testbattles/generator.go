package testbattles

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/Lianues/LeiNaoArena/pkg/logger"
	"github.com/google/uuid"
)

// Outcome distribution cases.
const (
	caseWinA   = 0
	caseWinB   = 1
	caseWinA2  = 2
	caseWinB2  = 3
	caseTie    = 4
	caseBad    = 5
	outcomeDie = 6
)

var prompts = []string{
	"write a haiku about rain",
	"explain recursion to a child",
	"argue for and against tabs",
	"summarize the plot of Hamlet",
	"draft a polite complaint email",
	"name three uses for a brick",
}

// intn returns a random int64 in [0, n) using crypto/rand.
func intn(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateBattles scripts the requested number of battles, each with a
// unique session id, alternating turns and a randomized verdict. Wins
// outnumber ties and bad verdicts so the board actually moves.
func generateBattles(ctx context.Context, config *Config, stats *Stats) []Battle {
	logger.Get().Info(ctx, "generating battles", logger.Int("numBattles", config.NumBattles))

	battles := make([]Battle, config.NumBattles)
	for i := range battles {
		battles[i] = generateSingleBattle(config.Turns)
	}

	stats.BattlesGenerated = len(battles)
	logger.Get().Info(ctx, "generated battles successfully", logger.Int("count", len(battles)))
	return battles
}

func generateSingleBattle(turns int) Battle {
	sessionID := uuid.New().String()

	startSide, otherSide := "A", "B"
	if intn(2) == 1 {
		startSide, otherSide = "B", "A"
	}

	messages := make([]string, 0, turns+1)
	messages = append(messages, "$s"+startSide+sessionID+" "+prompts[intn(int64(len(prompts)))])

	// Alternate sides; the starter already spoke once.
	for t := 0; t < turns; t++ {
		side := otherSide
		if t%2 == 1 {
			side = startSide
		}
		messages = append(messages, "$"+side+" round "+strconv.Itoa(t+1))
	}

	return Battle{
		SessionID: sessionID,
		Messages:  messages,
		Outcome:   randomOutcome(),
	}
}

func randomOutcome() string {
	switch intn(outcomeDie) {
	case caseWinA, caseWinA2:
		return "$winA"
	case caseWinB, caseWinB2:
		return "$winB"
	case caseTie:
		return "$tie"
	case caseBad:
		return "$bad"
	default:
		return "$tie"
	}
}
