package memory

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"toolhost/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestKV_PutGetDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "mem:note", "remember this"); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, ok, err := store.Get(ctx, "mem:note")
	if err != nil || !ok || v != "remember this" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}

	if err := store.Delete(ctx, "mem:note"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "mem:note"); ok {
		t.Fatal("key survived deletion")
	}
}

func TestKV_PutOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.Put(ctx, "k", "v1")
	store.Put(ctx, "k", "v2")
	v, _, _ := store.Get(ctx, "k")
	if v != "v2" {
		t.Fatalf("expected overwrite, got %q", v)
	}
}

func TestKV_GetMissingIsNotError(t *testing.T) {
	store := testStore(t)
	_, ok, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("missing key must not error: %v", err)
	}
	if ok {
		t.Fatal("absent key reported present")
	}
}

func TestKV_ListByPrefix(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.Put(ctx, "mem:a", "1")
	store.Put(ctx, "mem:b", "2")
	store.Put(ctx, "toolcache:x", "3")

	keys, err := store.List(ctx, "mem:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "mem:a" || keys[1] != "mem:b" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	n, err := store.Count(ctx, "toolcache:")
	if err != nil || n != 1 {
		t.Fatalf("count: %d %v", n, err)
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.CreateSession(ctx, domain.Session{ID: "s1", Title: "refactor", Goal: "split the parser"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err := store.GetSession(ctx, "s1")
	if err != nil || sess == nil {
		t.Fatalf("get: %v %v", sess, err)
	}
	if sess.Title != "refactor" || sess.EndedAt != nil {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := store.EndSession(ctx, "s1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	sess, _ = store.GetSession(ctx, "s1")
	if sess.EndedAt == nil {
		t.Fatal("ended_at not set")
	}

	if err := store.EndSession(ctx, "s1"); err == nil {
		t.Fatal("ending twice should error")
	}
}

func TestSessions_GetMissingReturnsNil(t *testing.T) {
	store := testStore(t)
	sess, err := store.GetSession(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("missing session must not error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil, got %+v", sess)
	}
}

func TestSessions_EventsOrdered(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.CreateSession(ctx, domain.Session{ID: "s1", Title: "t"})
	for _, kind := range []string{"note", "decision", "milestone"} {
		if err := store.AddSessionEvent(ctx, domain.SessionEvent{SessionID: "s1", Kind: kind, Content: kind + " body"}); err != nil {
			t.Fatalf("add event: %v", err)
		}
	}

	events, err := store.GetSessionEvents(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Kind != "note" || events[2].Kind != "milestone" {
		t.Fatalf("events out of insertion order: %+v", events)
	}
}

func TestSessions_ListNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.CreateSession(ctx, domain.Session{ID: "old", Title: "old"})
	store.CreateSession(ctx, domain.Session{ID: "new", Title: "new"})

	sessions, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}
