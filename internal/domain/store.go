package domain

import (
	"context"
	"time"
)

// KVStore is the persistent key-value capability. It backs the L2 cache tier
// and the memory tools. Values are opaque strings (JSON payloads in practice).
type KVStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// SessionStore persists development sessions and their event log.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)
	EndSession(ctx context.Context, id string) error
	AddSessionEvent(ctx context.Context, ev SessionEvent) error
	GetSessionEvents(ctx context.Context, sessionID string, limit int) ([]SessionEvent, error)
}

type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Goal      string     `json:"goal,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type SessionEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"` // note | decision | milestone | error
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
