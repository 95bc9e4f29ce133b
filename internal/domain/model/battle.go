// Package model contains domain models passed between layers.
package model

import "time"

// Side is the anonymous label a battle participant is addressed by.
type Side string

// Anonymous participant labels. Callers never see the real model id
// behind a label until the outcome is resolved.
const (
	SideA Side = "A"
	SideB Side = "B"
)

// Label returns the user-facing name for the side, e.g. "Assistant A".
func (s Side) Label() string {
	return "Assistant " + string(s)
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Outcome categorizes the human judgment that ends a battle.
type Outcome string

const (
	OutcomeWinA Outcome = "win_a"
	OutcomeWinB Outcome = "win_b"
	OutcomeTie  Outcome = "tie"
	// OutcomeBad records participation without a win/loss/tie judgment.
	// Ratings stay untouched; games played still count.
	OutcomeBad Outcome = "bad"
)

// Phase governs which directives a session will still accept.
type Phase string

const (
	// PhaseOpen accepts Battle and exactly one Outcome directive.
	PhaseOpen Phase = "open"
	// PhaseLocked is terminal. Entered once, never left.
	PhaseLocked Phase = "locked"
)

// Session is one battle from Start to Outcome, keyed by a caller-chosen id.
// ModelA and ModelB are assigned at Start and never change.
type Session struct {
	ID        string
	ModelA    string
	ModelB    string
	Phase     Phase
	Outcome   Outcome // set when Phase is PhaseLocked
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Model resolves an anonymous side to the session's real model id.
func (s Session) Model(side Side) string {
	if side == SideA {
		return s.ModelA
	}
	return s.ModelB
}

// RatingRecord is one model's competitive standing. Created lazily on the
// model's first completed outcome; mutated only by outcome application.
type RatingRecord struct {
	ModelID string
	Rating  float64
	Games   int
	Wins    int
	Losses  int
	Ties    int
}

// LeaderboardRow is a ranked projection of a RatingRecord.
type LeaderboardRow struct {
	Rank    int     `json:"rank"`
	ModelID string  `json:"model_id"`
	Rating  float64 `json:"rating"`
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Ties    int     `json:"ties"`
}

// OutcomeEvent is the journal entry emitted after an outcome commits.
// It flows through the journal queue to the history store.
type OutcomeEvent struct {
	EventID    string
	SessionID  string
	ModelA     string
	ModelB     string
	Outcome    Outcome
	NewRatingA float64
	NewRatingB float64
	RecordedAt time.Time
}

// Confirmation reveals both real model ids once a battle is resolved.
type Confirmation struct {
	SessionID  string  `json:"session_id"`
	ModelA     string  `json:"model_a"`
	ModelB     string  `json:"model_b"`
	Outcome    Outcome `json:"outcome"`
	NewRatingA float64 `json:"new_rating_a"`
	NewRatingB float64 `json:"new_rating_b"`
}

// EngineResult is what the engine hands back to the transport layer for a
// single inbound message.
type EngineResult struct {
	// Message is the user text with any directive stripped.
	Message string `json:"message"`
	// SessionID echoes the session the directive addressed, if any.
	SessionID string `json:"session_id,omitempty"`
	// Speaker is the real model id that must produce the next reply.
	// Empty for passthrough and outcome results.
	Speaker string `json:"speaker,omitempty"`
	// SpeakerLabel is the anonymous label for Speaker, e.g. "Assistant A".
	SpeakerLabel string `json:"speaker_label,omitempty"`
	// Confirmation is set only when an outcome was recorded.
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}
