package domain

import "context"

// ToolFunc is the uniform handler signature every tool is invoked through.
// Arguments arrive as the decoded JSON-RPC "arguments" object.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// Metadata describes a registered tool. CacheTTL is in seconds; zero means
// the server-wide default applies. Cacheable nil means "default" (true).
type Metadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Cacheable   *bool          `json:"cacheable,omitempty"`
	CacheTTL    float64        `json:"cache_ttl,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// ToolEntry is one declared tool as returned by a Provider. Meta may be nil
// (legacy bare-callable form); the registry synthesizes defaults for it.
// An entry with a nil Handler is malformed and is skipped at registration.
type ToolEntry struct {
	Handler ToolFunc
	Meta    *Metadata
}

// Provider is the capability-provider contract: a module exposing a set of
// named tool handlers. Providers are instantiated once at startup and kept
// alive for the server's lifetime.
type Provider interface {
	Name() string
	Tools() (map[string]ToolEntry, error)
}

// Descriptor is the registry's bound view of a tool: handler plus resolved
// metadata. Immutable after registration.
type Descriptor struct {
	Name        string
	Handler     ToolFunc
	Description string
	Category    string
	Cacheable   bool
	CacheTTL    float64 // seconds; 0 = server default
	InputSchema map[string]any
}

// Definition is the wire shape used by tools/list.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}
