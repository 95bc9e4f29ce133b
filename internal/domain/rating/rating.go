// Package rating computes ELO rating updates for battle outcomes.
//
// The engine is pure: it takes a consistent snapshot of both records and
// returns both updated records. Persistence and locking live elsewhere.
package rating

import (
	"math"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Default rating configuration constants.
const (
	// DefaultKFactor controls the magnitude of each update.
	DefaultKFactor = 32.0
	// DefaultBaseline is the rating assigned on first participation.
	DefaultBaseline = 1500.0

	logisticDivisor = 400.0
)

// Engine applies the standard paired ELO update.
type Engine struct {
	k        float64
	baseline float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor overrides the K-factor.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithBaseline overrides the rating new models start from.
func WithBaseline(baseline float64) Option {
	return func(e *Engine) {
		if baseline > 0 {
			e.baseline = baseline
		}
	}
}

// NewEngine constructs an Engine with default configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		k:        DefaultKFactor,
		baseline: DefaultBaseline,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Baseline returns the initial rating for a model with no prior record.
func (e *Engine) Baseline() float64 {
	return e.baseline
}

// NewRecord returns a fresh record for a model's first appearance.
func (e *Engine) NewRecord(modelID string) model.RatingRecord {
	return model.RatingRecord{ModelID: modelID, Rating: e.baseline}
}

// Expected returns the logistic expected score of a against b.
func Expected(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/logisticDivisor))
}

// Update applies one outcome to the snapshot (a, b) and returns the
// updated pair. Both deltas are computed from the same pre-update
// snapshot. A "bad" outcome leaves ratings untouched but still counts a
// game for both participants.
func (e *Engine) Update(a, b model.RatingRecord, outcome model.Outcome) (model.RatingRecord, model.RatingRecord) {
	a.Games++
	b.Games++

	var sa, sb float64
	switch outcome {
	case model.OutcomeWinA:
		sa, sb = 1, 0
		a.Wins++
		b.Losses++
	case model.OutcomeWinB:
		sa, sb = 0, 1
		a.Losses++
		b.Wins++
	case model.OutcomeTie:
		sa, sb = 0.5, 0.5
		a.Ties++
		b.Ties++
	case model.OutcomeBad:
		// Participation only; no judgment, no rating movement.
		return a, b
	default:
		return a, b
	}

	ea := Expected(a.Rating, b.Rating)
	eb := 1.0 - ea
	a.Rating += e.k * (sa - ea)
	b.Rating += e.k * (sb - eb)
	return a, b
}
