// Package memory is the persistent-memory capability: a SQLite-backed
// key-value store shared by the memory tools and the L2 cache tier, plus
// session bookkeeping tables.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"toolhost/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.KVStore and domain.SessionStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		title       TEXT,
		goal        TEXT,
		started_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at    DATETIME
	);

	CREATE TABLE IF NOT EXISTS session_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind        TEXT NOT NULL,
		content     TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_session_events ON session_events(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- domain.KVStore ---

func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Count reports the number of stored keys under a prefix (stats tool).
func (s *SQLiteStore) Count(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE key LIKE ? || '%'`, prefix).Scan(&n)
	return n, err
}

// --- domain.SessionStore ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess domain.Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, goal, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Title, sess.Goal, sess.StartedAt,
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	var ended sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, goal, started_at, ended_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Title, &sess.Goal, &sess.StartedAt, &ended)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, goal, started_at, ended_at FROM sessions
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		var ended sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.Goal, &sess.StartedAt, &ended); err != nil {
			return nil, err
		}
		if ended.Valid {
			sess.EndedAt = &ended.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) EndSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("session %s not found or already ended", id)
	}
	return err
}

func (s *SQLiteStore) AddSessionEvent(ctx context.Context, ev domain.SessionEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, kind, content, created_at) VALUES (?, ?, ?, ?)`,
		ev.SessionID, ev.Kind, ev.Content, ev.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) GetSessionEvents(ctx context.Context, sessionID string, limit int) ([]domain.SessionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, content, created_at FROM session_events
		 WHERE session_id = ? ORDER BY created_at, id LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.SessionEvent
	for rows.Next() {
		var ev domain.SessionEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &ev.Content, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ domain.KVStore      = (*SQLiteStore)(nil)
	_ domain.SessionStore = (*SQLiteStore)(nil)
)
