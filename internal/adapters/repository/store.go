// Package repository defines the session, rating and history store
// contracts and their implementations.
package repository

import (
	"context"
	"time"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Sessions owns battle session records. Implementations must make every
// operation atomic per session id.
type Sessions interface {
	// CreateSession inserts a new open session. Returns
	// ErrDuplicateSession if the id was ever used before, locked
	// sessions included.
	CreateSession(ctx context.Context, s model.Session) error

	// GetSession returns the session for id, or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (model.Session, error)

	// TouchSession updates last-activity bookkeeping for a session.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// CompleteSession transitions the session from open to locked and
	// records the outcome. Returns ErrSessionNotFound if absent and
	// ErrSessionLocked if the transition already happened.
	CompleteSession(ctx context.Context, id string, outcome model.Outcome, at time.Time) error

	// CountSessions reports open and locked session totals.
	CountSessions(ctx context.Context) (open, locked int, err error)
}

// Ratings owns one rating record per model. Records are created lazily on
// first participation and never deleted.
type Ratings interface {
	// GetRating returns the record for modelID, or ErrRatingNotFound.
	GetRating(ctx context.Context, modelID string) (model.RatingRecord, error)

	// UpsertRatingPair writes both records as one atomic unit.
	UpsertRatingPair(ctx context.Context, a, b model.RatingRecord) error

	// ListRatings returns all records in no particular order.
	ListRatings(ctx context.Context) ([]model.RatingRecord, error)
}

// History is the append-only outcome journal.
type History interface {
	// AppendHistory records one completed outcome.
	AppendHistory(ctx context.Context, e model.OutcomeEvent) error

	// CountHistory returns the number of journaled outcomes.
	CountHistory(ctx context.Context) (int, error)
}

// Store bundles the three contracts a single backend provides.
type Store interface {
	Sessions
	Ratings
	History
}
