package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// MemoryStore keeps all records in process memory. It backs tests and
// ephemeral runs; state does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	ratings  map[string]model.RatingRecord
	history  []model.OutcomeEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		ratings:  make(map[string]model.RatingRecord),
	}
}

// CreateSession inserts a new open session.
func (m *MemoryStore) CreateSession(ctx context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSession, s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

// GetSession returns the session for id.
func (m *MemoryStore) GetSession(ctx context.Context, id string) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// TouchSession updates the session's last-activity timestamp.
func (m *MemoryStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	s.UpdatedAt = at
	m.sessions[id] = s
	return nil
}

// CompleteSession transitions the session to locked exactly once.
func (m *MemoryStore) CompleteSession(ctx context.Context, id string, outcome model.Outcome, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	if s.Phase == model.PhaseLocked {
		return fmt.Errorf("%w: %q", ErrSessionLocked, id)
	}
	s.Phase = model.PhaseLocked
	s.Outcome = outcome
	s.UpdatedAt = at
	m.sessions[id] = s
	return nil
}

// CountSessions reports open and locked totals.
func (m *MemoryStore) CountSessions(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var open, locked int
	for _, s := range m.sessions {
		if s.Phase == model.PhaseLocked {
			locked++
		} else {
			open++
		}
	}
	return open, locked, nil
}

// GetRating returns the rating record for modelID.
func (m *MemoryStore) GetRating(ctx context.Context, modelID string) (model.RatingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.ratings[modelID]
	if !ok {
		return model.RatingRecord{}, fmt.Errorf("%w: %q", ErrRatingNotFound, modelID)
	}
	return r, nil
}

// UpsertRatingPair writes both records under one lock hold.
func (m *MemoryStore) UpsertRatingPair(ctx context.Context, a, b model.RatingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratings[a.ModelID] = a
	m.ratings[b.ModelID] = b
	return nil
}

// ListRatings returns all rating records.
func (m *MemoryStore) ListRatings(ctx context.Context) ([]model.RatingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.RatingRecord, 0, len(m.ratings))
	for _, r := range m.ratings {
		out = append(out, r)
	}
	return out, nil
}

// AppendHistory records one completed outcome in the journal.
func (m *MemoryStore) AppendHistory(ctx context.Context, e model.OutcomeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, e)
	return nil
}

// CountHistory returns the number of journaled outcomes.
func (m *MemoryStore) CountHistory(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history), nil
}
