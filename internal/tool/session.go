package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"toolhost/internal/domain"
)

// SessionProvider tracks development sessions: start one, log events against
// it, inspect the trail later. State lives in the SQLite store.
type SessionProvider struct {
	store domain.SessionStore
}

func NewSessionProvider(store domain.SessionStore) *SessionProvider {
	return &SessionProvider{store: store}
}

func (p *SessionProvider) Name() string { return "session" }

func (p *SessionProvider) Tools() (map[string]domain.ToolEntry, error) {
	notCacheable := cacheableFlag(false)
	return map[string]domain.ToolEntry{
		"session_start": {
			Handler: p.start,
			Meta: &domain.Metadata{
				Description: "Start a new development session with a title and optional goal. Returns the session ID.",
				Category:    "sessions",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"title": {Type: "string", Description: "Short session title"},
					"goal":  {Type: "string", Description: "What this session aims to accomplish"},
				}, []string{"title"}),
			},
		},
		"session_log": {
			Handler: p.log,
			Meta: &domain.Metadata{
				Description: "Record an event (note, decision, milestone, error) against a session.",
				Category:    "sessions",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"session_id": {Type: "string", Description: "Session to log against"},
					"kind":       {Type: "string", Description: "Event kind: note, decision, milestone, or error"},
					"content":    {Type: "string", Description: "Event content"},
				}, []string{"session_id", "content"}),
			},
		},
		"session_list": {
			Handler: p.list,
			Meta: &domain.Metadata{
				Description: "List recent sessions, newest first.",
				Category:    "sessions",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"limit": {Type: "number", Description: "Maximum sessions to return (default 20)"},
				}, nil),
			},
		},
		"session_get": {
			Handler: p.get,
			Meta: &domain.Metadata{
				Description: "Get a session and its event trail.",
				Category:    "sessions",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"session_id": {Type: "string", Description: "Session ID to fetch"},
				}, []string{"session_id"}),
			},
		},
		"session_end": {
			Handler: p.end,
			Meta: &domain.Metadata{
				Description: "Mark a session as ended.",
				Category:    "sessions",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"session_id": {Type: "string", Description: "Session ID to end"},
				}, []string{"session_id"}),
			},
		},
	}, nil
}

func (p *SessionProvider) start(ctx context.Context, args map[string]any) (any, error) {
	title, err := RequireString(args, "title")
	if err != nil {
		return nil, err
	}
	sess := domain.Session{
		ID:    uuid.NewString(),
		Title: title,
		Goal:  ArgString(args, "goal"),
	}
	if err := p.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return map[string]any{"session_id": sess.ID, "title": sess.Title}, nil
}

func (p *SessionProvider) log(ctx context.Context, args map[string]any) (any, error) {
	sessionID, err := RequireString(args, "session_id")
	if err != nil {
		return nil, err
	}
	content, err := RequireString(args, "content")
	if err != nil {
		return nil, err
	}
	kind := ArgString(args, "kind")
	if kind == "" {
		kind = "note"
	}
	switch kind {
	case "note", "decision", "milestone", "error":
	default:
		return nil, domain.BadArg("kind", "must be note, decision, milestone, or error")
	}

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	ev := domain.SessionEvent{SessionID: sessionID, Kind: kind, Content: content}
	if err := p.store.AddSessionEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("log event: %w", err)
	}
	return "Logged " + kind, nil
}

func (p *SessionProvider) list(ctx context.Context, args map[string]any) (any, error) {
	limit := ArgInt(args, "limit", 20)
	sessions, err := p.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (p *SessionProvider) get(ctx context.Context, args map[string]any) (any, error) {
	sessionID, err := RequireString(args, "session_id")
	if err != nil {
		return nil, err
	}
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	events, err := p.store.GetSessionEvents(ctx, sessionID, 100)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	return map[string]any{"session": sess, "events": events}, nil
}

func (p *SessionProvider) end(ctx context.Context, args map[string]any) (any, error) {
	sessionID, err := RequireString(args, "session_id")
	if err != nil {
		return nil, err
	}
	if err := p.store.EndSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	return "Ended session " + sessionID, nil
}

var _ domain.Provider = (*SessionProvider)(nil)
