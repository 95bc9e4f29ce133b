package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlStore, err := NewSQLStore(ctx, filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			sess := model.Session{ID: "77", ModelA: "m2", ModelB: "m1", Phase: model.PhaseOpen, CreatedAt: now}

			if err := store.CreateSession(ctx, sess); err != nil {
				t.Fatalf("create: %v", err)
			}

			// Duplicate id always fails.
			if err := store.CreateSession(ctx, sess); !errors.Is(err, ErrDuplicateSession) {
				t.Errorf("expected ErrDuplicateSession, got %v", err)
			}

			got, err := store.GetSession(ctx, "77")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ModelA != "m2" || got.ModelB != "m1" {
				t.Errorf("model assignment changed: %+v", got)
			}
			if got.Phase != model.PhaseOpen {
				t.Errorf("expected open phase, got %s", got.Phase)
			}

			if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}

			if err := store.TouchSession(ctx, "77", now.Add(time.Minute)); err != nil {
				t.Errorf("touch: %v", err)
			}

			if err := store.CompleteSession(ctx, "77", model.OutcomeWinB, now.Add(2*time.Minute)); err != nil {
				t.Fatalf("complete: %v", err)
			}

			got, err = store.GetSession(ctx, "77")
			if err != nil {
				t.Fatalf("get after complete: %v", err)
			}
			if got.Phase != model.PhaseLocked || got.Outcome != model.OutcomeWinB {
				t.Errorf("expected locked win_b, got %+v", got)
			}

			// The transition happens exactly once.
			if err := store.CompleteSession(ctx, "77", model.OutcomeTie, now); !errors.Is(err, ErrSessionLocked) {
				t.Errorf("expected ErrSessionLocked, got %v", err)
			}
			if err := store.CompleteSession(ctx, "nope", model.OutcomeTie, now); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}

			// A locked id can never be reused.
			if err := store.CreateSession(ctx, sess); !errors.Is(err, ErrDuplicateSession) {
				t.Errorf("expected ErrDuplicateSession after lock, got %v", err)
			}

			open, locked, err := store.CountSessions(ctx)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if open != 0 || locked != 1 {
				t.Errorf("expected 0 open / 1 locked, got %d/%d", open, locked)
			}
		})
	}
}

func TestStore_ConcurrentComplete(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			if err := store.CreateSession(ctx, model.Session{ID: "race", ModelA: "a", ModelB: "b", Phase: model.PhaseOpen, CreatedAt: now}); err != nil {
				t.Fatalf("create: %v", err)
			}

			const attempts = 8
			var wg sync.WaitGroup
			results := make(chan error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results <- store.CompleteSession(ctx, "race", model.OutcomeTie, now)
				}()
			}
			wg.Wait()
			close(results)

			var wins, losses int
			for err := range results {
				switch {
				case err == nil:
					wins++
				case errors.Is(err, ErrSessionLocked):
					losses++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			if wins != 1 || losses != attempts-1 {
				t.Errorf("expected exactly one winner, got %d winners / %d locked", wins, losses)
			}
		})
	}
}

func TestStore_Ratings(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.GetRating(ctx, "m1"); !errors.Is(err, ErrRatingNotFound) {
				t.Errorf("expected ErrRatingNotFound, got %v", err)
			}

			a := model.RatingRecord{ModelID: "m1", Rating: 1516, Games: 1, Wins: 1}
			b := model.RatingRecord{ModelID: "m2", Rating: 1484, Games: 1, Losses: 1}
			if err := store.UpsertRatingPair(ctx, a, b); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			got, err := store.GetRating(ctx, "m1")
			if err != nil {
				t.Fatalf("get rating: %v", err)
			}
			if got.Rating != 1516 || got.Wins != 1 {
				t.Errorf("unexpected record: %+v", got)
			}

			// Second write updates in place.
			a.Rating, a.Games, a.Ties = 1508, 2, 1
			if err := store.UpsertRatingPair(ctx, a, b); err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			got, _ = store.GetRating(ctx, "m1")
			if got.Rating != 1508 || got.Games != 2 || got.Ties != 1 {
				t.Errorf("update not applied: %+v", got)
			}

			all, err := store.ListRatings(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(all) != 2 {
				t.Errorf("expected 2 records, got %d", len(all))
			}
		})
	}
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			e := model.OutcomeEvent{
				EventID:    "evt-1",
				SessionID:  "77",
				ModelA:     "m2",
				ModelB:     "m1",
				Outcome:    model.OutcomeWinB,
				NewRatingA: 1484,
				NewRatingB: 1516,
				RecordedAt: time.Now().UTC(),
			}
			if err := store.AppendHistory(ctx, e); err != nil {
				t.Fatalf("append: %v", err)
			}
			n, err := store.CountHistory(ctx)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if n != 1 {
				t.Errorf("expected 1 entry, got %d", n)
			}
		})
	}
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arena.db")

	store, err := NewSQLStore(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Now().UTC()
	if err := store.CreateSession(ctx, model.Session{ID: "persist", ModelA: "a", ModelB: "b", Phase: model.PhaseOpen, CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpsertRatingPair(ctx,
		model.RatingRecord{ModelID: "a", Rating: 1510, Games: 1, Wins: 1},
		model.RatingRecord{ModelID: "b", Rating: 1490, Games: 1, Losses: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	sess, err := reopened.GetSession(ctx, "persist")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if sess.ModelA != "a" || sess.Phase != model.PhaseOpen {
		t.Errorf("session not persisted: %+v", sess)
	}
	r, err := reopened.GetRating(ctx, "a")
	if err != nil {
		t.Fatalf("rating after reopen: %v", err)
	}
	if r.Rating != 1510 {
		t.Errorf("rating not persisted: %+v", r)
	}
}
