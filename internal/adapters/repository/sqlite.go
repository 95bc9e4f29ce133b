package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

const timeFormat = time.RFC3339Nano

// SQLStore persists sessions, ratings and the outcome journal in a single
// SQLite database so state survives process restart.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and if needed creates) the database at path and
// ensures the schema exists.
func NewSQLStore(ctx context.Context, path string, opts ...SQLOption) (*SQLStore, error) {
	cfg := sqlConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS battle_sessions (
		rpid       TEXT PRIMARY KEY,
		model_a    TEXT NOT NULL,
		model_b    TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'open',
		winner     TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS ratings (
		model_id TEXT PRIMARY KEY,
		rating   REAL NOT NULL,
		games    INTEGER NOT NULL DEFAULT 0,
		wins     INTEGER NOT NULL DEFAULT 0,
		losses   INTEGER NOT NULL DEFAULT 0,
		ties     INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS battle_history (
		event_id    TEXT PRIMARY KEY,
		rpid        TEXT NOT NULL,
		model_a     TEXT NOT NULL,
		model_b     TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		rating_a    REAL NOT NULL,
		rating_b    REAL NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON battle_sessions(status);
	CREATE INDEX IF NOT EXISTS idx_history_rpid ON battle_history(rpid);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSession inserts a new open session. A previously used rpid is
// rejected whether that session is open or locked.
func (s *SQLStore) CreateSession(ctx context.Context, sess model.Session) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO battle_sessions (rpid, model_a, model_b, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.ModelA, sess.ModelB, string(model.PhaseOpen), sess.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateSession, sess.ID)
	}
	return nil
}

// GetSession returns the session for id.
func (s *SQLStore) GetSession(ctx context.Context, id string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT rpid, model_a, model_b, status, COALESCE(winner, ''), created_at, COALESCE(updated_at, '')
		 FROM battle_sessions WHERE rpid = ?`, id)

	var sess model.Session
	var status, outcome, created, updated string
	if err := row.Scan(&sess.ID, &sess.ModelA, &sess.ModelB, &status, &outcome, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
		}
		return model.Session{}, fmt.Errorf("select session: %w", err)
	}
	sess.Phase = model.Phase(status)
	sess.Outcome = model.Outcome(outcome)
	sess.CreatedAt, _ = time.Parse(timeFormat, created)
	if updated != "" {
		sess.UpdatedAt, _ = time.Parse(timeFormat, updated)
	}
	return sess, nil
}

// TouchSession updates last-activity bookkeeping.
func (s *SQLStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE battle_sessions SET updated_at = ? WHERE rpid = ?`,
		at.UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return nil
}

// CompleteSession performs the open to locked transition exactly once.
// The status guard in the WHERE clause makes the transition atomic at the
// database level as well.
func (s *SQLStore) CompleteSession(ctx context.Context, id string, outcome model.Outcome, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE battle_sessions SET status = ?, winner = ?, updated_at = ?
		 WHERE rpid = ? AND status = ?`,
		string(model.PhaseLocked), string(outcome), at.UTC().Format(timeFormat), id, string(model.PhaseOpen))
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already locked.
		var exists int
		row := s.db.QueryRowContext(ctx, `SELECT 1 FROM battle_sessions WHERE rpid = ?`, id)
		if err := row.Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
		}
		return fmt.Errorf("%w: %q", ErrSessionLocked, id)
	}
	return nil
}

// CountSessions reports open and locked totals.
func (s *SQLStore) CountSessions(ctx context.Context) (int, int, error) {
	var open, locked int
	row := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN status = 'open' THEN 1 END),
			COUNT(CASE WHEN status = 'locked' THEN 1 END)
		 FROM battle_sessions`)
	if err := row.Scan(&open, &locked); err != nil {
		return 0, 0, fmt.Errorf("count sessions: %w", err)
	}
	return open, locked, nil
}

// GetRating returns the rating record for modelID.
func (s *SQLStore) GetRating(ctx context.Context, modelID string) (model.RatingRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_id, rating, games, wins, losses, ties FROM ratings WHERE model_id = ?`, modelID)

	var r model.RatingRecord
	if err := row.Scan(&r.ModelID, &r.Rating, &r.Games, &r.Wins, &r.Losses, &r.Ties); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RatingRecord{}, fmt.Errorf("%w: %q", ErrRatingNotFound, modelID)
		}
		return model.RatingRecord{}, fmt.Errorf("select rating: %w", err)
	}
	return r, nil
}

// UpsertRatingPair writes both records in a single transaction so no
// reader ever observes one side of an outcome applied without the other.
func (s *SQLStore) UpsertRatingPair(ctx context.Context, a, b model.RatingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
	INSERT INTO ratings (model_id, rating, games, wins, losses, ties)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(model_id) DO UPDATE SET
		rating = excluded.rating,
		games  = excluded.games,
		wins   = excluded.wins,
		losses = excluded.losses,
		ties   = excluded.ties`

	for _, r := range []model.RatingRecord{a, b} {
		if _, err := tx.ExecContext(ctx, upsert, r.ModelID, r.Rating, r.Games, r.Wins, r.Losses, r.Ties); err != nil {
			return fmt.Errorf("upsert rating %q: %w", r.ModelID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating tx: %w", err)
	}
	return nil
}

// ListRatings returns all rating records.
func (s *SQLStore) ListRatings(ctx context.Context) ([]model.RatingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, rating, games, wins, losses, ties FROM ratings`)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []model.RatingRecord
	for rows.Next() {
		var r model.RatingRecord
		if err := rows.Scan(&r.ModelID, &r.Rating, &r.Games, &r.Wins, &r.Losses, &r.Ties); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

// AppendHistory records one completed outcome in the journal. Duplicate
// event ids are ignored so journal retries stay idempotent.
func (s *SQLStore) AppendHistory(ctx context.Context, e model.OutcomeEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO battle_history (event_id, rpid, model_a, model_b, outcome, rating_a, rating_b, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.SessionID, e.ModelA, e.ModelB, string(e.Outcome), e.NewRatingA, e.NewRatingB,
		e.RecordedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// CountHistory returns the number of journaled outcomes.
func (s *SQLStore) CountHistory(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM battle_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
