// Package service implements the battle session manager: the state
// machine that orchestrates Start, Battle and Outcome directives over the
// parser, assigner, rating engine and stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	journalqueue "github.com/Lianues/LeiNaoArena/internal/adapters/mq/queue"
	journalworker "github.com/Lianues/LeiNaoArena/internal/adapters/mq/worker"
	"github.com/Lianues/LeiNaoArena/internal/adapters/repository"
	"github.com/Lianues/LeiNaoArena/internal/domain/assign"
	"github.com/Lianues/LeiNaoArena/internal/domain/command"
	"github.com/Lianues/LeiNaoArena/internal/domain/keyedlock"
	"github.com/Lianues/LeiNaoArena/internal/domain/leaderboard"
	"github.com/Lianues/LeiNaoArena/internal/domain/model"
	"github.com/Lianues/LeiNaoArena/internal/domain/rating"
	"github.com/Lianues/LeiNaoArena/pkg/logger"
	"github.com/Lianues/LeiNaoArena/pkg/metrics"
)

const (
	defaultJournalQueueSize = 4096
	defaultJournalWorkers   = 2
	journalStopTimeout      = 5 * time.Second
)

// Service is the battle engine behind the transport layer.
type Service struct {
	mu sync.Mutex

	store    repository.Store
	assigner *assign.Assigner
	engine   *rating.Engine
	pool     []string

	sessionLocks *keyedlock.Registry
	modelLocks   *keyedlock.Registry

	journal    *journalqueue.InMemoryQueue
	journalers *journalworker.Pool

	kFactor          float64
	baseline         float64
	lockWait         time.Duration
	journalQueueSize int
	journalWorkers   int

	started bool

	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPool sets the model pool battles draw from.
func WithPool(pool []string) Option {
	return func(s *Service) {
		s.pool = pool
	}
}

// WithAssigner sets a custom assigner, e.g. a seeded one in tests.
func WithAssigner(a *assign.Assigner) Option {
	return func(s *Service) {
		if a != nil {
			s.assigner = a
		}
	}
}

// WithKFactor sets the ELO K-factor.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithBaseline sets the initial rating for new models.
func WithBaseline(baseline float64) Option {
	return func(s *Service) {
		if baseline > 0 {
			s.baseline = baseline
		}
	}
}

// WithLockWait bounds how long a directive waits on a busy session.
func WithLockWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithJournalQueueSize bounds the outcome journal queue.
func WithJournalQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.journalQueueSize = size
		}
	}
}

// WithJournalWorkers sets the number of journal writers.
func WithJournalWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.journalWorkers = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source. Tests pin it for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		kFactor:          rating.DefaultKFactor,
		baseline:         rating.DefaultBaseline,
		lockWait:         keyedlock.DefaultMaxWait,
		journalQueueSize: defaultJournalQueueSize,
		journalWorkers:   defaultJournalWorkers,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the engine components and launches the journal pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store; state will not survive restart")
	}
	if s.assigner == nil {
		s.assigner = assign.New()
	}
	s.engine = rating.NewEngine(rating.WithKFactor(s.kFactor), rating.WithBaseline(s.baseline))
	s.sessionLocks = keyedlock.NewRegistry(keyedlock.WithMaxWait(s.lockWait))
	s.modelLocks = keyedlock.NewRegistry(keyedlock.WithMaxWait(s.lockWait))

	s.journal = journalqueue.NewInMemoryQueue(journalqueue.WithCapacity(s.journalQueueSize))
	s.journalers = journalworker.NewPool(s.journalWorkers, s.journal, s.store)
	s.journalers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "battle engine started",
		logger.Int("pool_size", len(s.pool)),
		logger.Float64("k_factor", s.kFactor),
		logger.Float64("baseline", s.baseline),
	)
	return nil
}

// Stop drains and shuts down the journal pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	if s.journal != nil {
		_ = s.journal.Close()
	}
	if s.journalers != nil {
		s.journalers.Stop(journalStopTimeout)
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "battle engine stopped")
}

// Handle processes one inbound message.
//
// implicitSessionID is the "current session" the transport tracks per
// conversation; Battle and Outcome directives resolve against it since
// their lexical forms carry no id. A message without a directive passes
// through untouched.
func (s *Service) Handle(ctx context.Context, raw, implicitSessionID string) (model.EngineResult, error) {
	directive, rest, found, err := command.Parse(raw)
	if err != nil {
		metrics.RecordParseError()
		return model.EngineResult{}, fmt.Errorf("parse directive: %w", err)
	}
	if !found {
		return model.EngineResult{Message: raw}, nil
	}
	metrics.RecordDirectiveParsed(directive.Kind.String())

	switch directive.Kind {
	case command.KindStart:
		return s.start(ctx, directive, rest)
	case command.KindBattle:
		return s.battle(ctx, directive, rest, implicitSessionID)
	case command.KindOutcome:
		return s.outcome(ctx, directive, rest, implicitSessionID)
	default:
		return model.EngineResult{}, fmt.Errorf("%w: kind %d", command.ErrUnknownDirective, directive.Kind)
	}
}

// start creates a new session and names the opening speaker.
func (s *Service) start(ctx context.Context, d command.Directive, rest string) (model.EngineResult, error) {
	release, err := s.lockSession(ctx, d.SessionID)
	if err != nil {
		return model.EngineResult{}, err
	}
	defer release()

	modelA, modelB, err := s.assigner.Pick(s.pool)
	if err != nil {
		return model.EngineResult{}, fmt.Errorf("assign models: %w", err)
	}

	sess := model.Session{
		ID:        d.SessionID,
		ModelA:    modelA,
		ModelB:    modelB,
		Phase:     model.PhaseOpen,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return model.EngineResult{}, fmt.Errorf("create session: %w", err)
	}

	metrics.RecordBattleStarted()
	s.logger.Info(ctx, "battle started",
		logger.String("session_id", sess.ID),
		logger.String("first_speaker", d.Side.Label()),
	)

	return model.EngineResult{
		Message:      rest,
		SessionID:    sess.ID,
		Speaker:      sess.Model(d.Side),
		SpeakerLabel: d.Side.Label(),
	}, nil
}

// battle resolves an anonymous side to its real model for an open session.
func (s *Service) battle(ctx context.Context, d command.Directive, rest, sessionID string) (model.EngineResult, error) {
	if sessionID == "" {
		return model.EngineResult{}, fmt.Errorf("%w: no current session", repository.ErrSessionNotFound)
	}

	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return model.EngineResult{}, err
	}
	defer release()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return model.EngineResult{}, err
	}
	if sess.Phase == model.PhaseLocked {
		return model.EngineResult{}, fmt.Errorf("%w: %q", repository.ErrSessionLocked, sessionID)
	}

	if err := s.store.TouchSession(ctx, sessionID, s.now().UTC()); err != nil {
		s.logger.Warn(ctx, "session touch failed", logger.String("session_id", sessionID), logger.Error(err))
	}

	metrics.RecordBattleTurn()
	return model.EngineResult{
		Message:      rest,
		SessionID:    sessionID,
		Speaker:      sess.Model(d.Side),
		SpeakerLabel: d.Side.Label(),
	}, nil
}

// outcome locks the session and applies the rating update exactly once.
func (s *Service) outcome(ctx context.Context, d command.Directive, rest, sessionID string) (model.EngineResult, error) {
	if sessionID == "" {
		return model.EngineResult{}, fmt.Errorf("%w: no current session", repository.ErrSessionNotFound)
	}

	release, err := s.lockSession(ctx, sessionID)
	if err != nil {
		return model.EngineResult{}, err
	}
	defer release()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return model.EngineResult{}, err
	}
	if sess.Phase == model.PhaseLocked {
		return model.EngineResult{}, fmt.Errorf("%w: %q", repository.ErrSessionLocked, sessionID)
	}

	// Both rating records are read and written under the pair lock so a
	// model fighting in two simultaneous battles never loses an update.
	releasePair, err := s.modelLocks.AcquirePair(ctx, sess.ModelA, sess.ModelB)
	if err != nil {
		metrics.RecordLockTimeout()
		return model.EngineResult{}, fmt.Errorf("lock ratings: %w", err)
	}
	defer releasePair()

	recordA, err := s.ratingOrBaseline(ctx, sess.ModelA)
	if err != nil {
		return model.EngineResult{}, err
	}
	recordB, err := s.ratingOrBaseline(ctx, sess.ModelB)
	if err != nil {
		return model.EngineResult{}, err
	}
	newA, newB := s.engine.Update(recordA, recordB, d.Outcome)

	now := s.now().UTC()
	if err := s.store.CompleteSession(ctx, sessionID, d.Outcome, now); err != nil {
		return model.EngineResult{}, err
	}
	if err := s.store.UpsertRatingPair(ctx, newA, newB); err != nil {
		return model.EngineResult{}, fmt.Errorf("persist ratings: %w", err)
	}

	metrics.RecordOutcome(string(d.Outcome))
	s.logger.Info(ctx, "battle resolved",
		logger.String("session_id", sessionID),
		logger.String("outcome", string(d.Outcome)),
		logger.String("model_a", sess.ModelA),
		logger.String("model_b", sess.ModelB),
		logger.Float64("new_rating_a", newA.Rating),
		logger.Float64("new_rating_b", newB.Rating),
	)

	s.enqueueJournal(ctx, model.OutcomeEvent{
		EventID:    uuid.NewString(),
		SessionID:  sessionID,
		ModelA:     sess.ModelA,
		ModelB:     sess.ModelB,
		Outcome:    d.Outcome,
		NewRatingA: newA.Rating,
		NewRatingB: newB.Rating,
		RecordedAt: now,
	})

	return model.EngineResult{
		Message:   rest,
		SessionID: sessionID,
		Confirmation: &model.Confirmation{
			SessionID:  sessionID,
			ModelA:     sess.ModelA,
			ModelB:     sess.ModelB,
			Outcome:    d.Outcome,
			NewRatingA: newA.Rating,
			NewRatingB: newB.Rating,
		},
	}, nil
}

// Leaderboard returns the ranked view of all rated models.
func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error) {
	records, err := s.store.ListRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	metrics.UpdateModelsTracked(len(records))
	return leaderboard.Rank(records), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	stats := map[string]interface{}{
		"pool_size":       len(s.pool),
		"k_factor":        s.kFactor,
		"baseline_rating": s.baseline,
	}

	if open, locked, err := s.store.CountSessions(ctx); err == nil {
		stats["sessions_open"] = open
		stats["sessions_locked"] = locked
		metrics.UpdateSessionCounts(open, locked)
	}
	if records, err := s.store.ListRatings(ctx); err == nil {
		stats["models_tracked"] = len(records)
	}
	if n, err := s.store.CountHistory(ctx); err == nil {
		stats["outcomes_journaled"] = n
	}
	if s.journal != nil {
		stats["journal_depth"] = s.journal.Len(ctx)
	}
	return stats
}

func (s *Service) lockSession(ctx context.Context, id string) (func(), error) {
	release, err := s.sessionLocks.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, keyedlock.ErrTimeout) {
			metrics.RecordLockTimeout()
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return release, nil
}

func (s *Service) ratingOrBaseline(ctx context.Context, modelID string) (model.RatingRecord, error) {
	r, err := s.store.GetRating(ctx, modelID)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, repository.ErrRatingNotFound) {
		return s.engine.NewRecord(modelID), nil
	}
	return model.RatingRecord{}, fmt.Errorf("read rating %q: %w", modelID, err)
}

func (s *Service) enqueueJournal(ctx context.Context, e model.OutcomeEvent) {
	if s.journal == nil {
		return
	}
	if !s.journal.Enqueue(ctx, e) {
		metrics.RecordJournalError()
		s.logger.Warn(ctx, "journal queue full, outcome event dropped",
			logger.String("session_id", e.SessionID),
		)
	}
}
