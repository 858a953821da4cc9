package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"studyhub/internal/db"
	"studyhub/internal/models"
	"studyhub/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return store.NewSQLiteStore(conn)
}

func newSession(userID, name string) *models.StudySession {
	return &models.StudySession{
		UserID:     userID,
		CreatedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		SourceName: name,
		Flashcards: "Q: a?\nA: b\n---",
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, newSession("user-1", "bio.pdf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || !created.Synced {
		t.Errorf("expected assigned id and synced flag: %+v", created)
	}

	got, err := st.Get(ctx, created.ID, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SourceName != "bio.pdf" || got.Flashcards != "Q: a?\nA: b\n---" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.CreatedAt.Format(models.TimestampLayout) != "2026-08-30 12:00:00" {
		t.Errorf("timestamp mismatch: %v", got.CreatedAt)
	}
	if got.Score.Valid || got.Adaptive.Valid || got.QuizData.Valid {
		t.Errorf("optional fields should start null: %+v", got)
	}

	t.Run("ScopedToOwner", func(t *testing.T) {
		if _, err := st.Get(ctx, created.ID, "someone-else"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for wrong user, got %v", err)
		}
	})

	t.Run("LocalIDNotFound", func(t *testing.T) {
		if _, err := st.Get(ctx, models.LocalIDPrefix+"abc", "user-1"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for local id, got %v", err)
		}
	})
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first.pdf", "second.pdf", "third.pdf"} {
		if _, err := st.Create(ctx, newSession("user-1", name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := st.Create(ctx, newSession("user-2", "other.pdf")); err != nil {
		t.Fatalf("create other: %v", err)
	}

	sessions, err := st.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i, want := range []string{"third.pdf", "second.pdf", "first.pdf"} {
		if sessions[i].SourceName != want {
			t.Errorf("position %d: expected %s, got %s", i, want, sessions[i].SourceName)
		}
	}
}

func TestSQLiteStore_Update(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, newSession("user-1", "bio.pdf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("PartialFields", func(t *testing.T) {
		score := "80"
		if err := st.Update(ctx, created.ID, "user-1", models.SessionUpdate{Score: &score}); err != nil {
			t.Fatalf("update score: %v", err)
		}

		got, err := st.Get(ctx, created.ID, "user-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.Score.Valid || got.Score.String != "80" {
			t.Errorf("score not persisted: %+v", got.Score)
		}
		if got.Adaptive.Valid {
			t.Error("adaptive must stay untouched by score update")
		}

		adaptive := "Q: harder?\nA: yes\n---"
		if err := st.Update(ctx, created.ID, "user-1", models.SessionUpdate{Adaptive: &adaptive}); err != nil {
			t.Fatalf("update adaptive: %v", err)
		}
		got, err = st.Get(ctx, created.ID, "user-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.Adaptive.Valid || got.Adaptive.String != adaptive {
			t.Errorf("adaptive not persisted: %+v", got.Adaptive)
		}
		if got.Score.String != "80" {
			t.Error("score must survive the adaptive update")
		}
	})

	t.Run("EmptyUpdateIsNoop", func(t *testing.T) {
		if err := st.Update(ctx, created.ID, "user-1", models.SessionUpdate{}); err != nil {
			t.Fatalf("empty update: %v", err)
		}
	})

	t.Run("WrongOwner", func(t *testing.T) {
		score := "10"
		if err := st.Update(ctx, created.ID, "someone-else", models.SessionUpdate{Score: &score}); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UnknownSession", func(t *testing.T) {
		score := "10"
		if err := st.Update(ctx, "9999", "user-1", models.SessionUpdate{Score: &score}); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
