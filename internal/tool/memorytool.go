package tool

import (
	"context"
	"fmt"
	"strings"

	"toolhost/internal/domain"
	"toolhost/internal/memory"
)

// memPrefix keeps memory-tool keys disjoint from the cache records that
// share the same store.
const memPrefix = "mem:"

// MemoryProvider exposes the persistent key-value store as tools. Nothing
// here is cacheable: a retrieve must always observe the latest store.
type MemoryProvider struct {
	store *memory.SQLiteStore
}

func NewMemoryProvider(store *memory.SQLiteStore) *MemoryProvider {
	return &MemoryProvider{store: store}
}

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) Tools() (map[string]domain.ToolEntry, error) {
	notCacheable := cacheableFlag(false)
	return map[string]domain.ToolEntry{
		"memory_store": {
			Handler: p.storeValue,
			Meta: &domain.Metadata{
				Description: "Store a value in persistent memory under a key. Use hierarchical names like 'project:myapp:architecture'.",
				Category:    "memory",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"key":   {Type: "string", Description: "Unique key, hierarchical naming recommended"},
					"value": {Type: "string", Description: "The information to store"},
				}, []string{"key", "value"}),
			},
		},
		"memory_retrieve": {
			Handler: p.retrieve,
			Meta: &domain.Metadata{
				Description: "Retrieve a stored value by key.",
				Category:    "memory",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"key": {Type: "string", Description: "The memory key to retrieve"},
				}, []string{"key"}),
			},
		},
		"memory_list": {
			Handler: p.list,
			Meta: &domain.Metadata{
				Description: "List stored memory keys, optionally filtered by prefix.",
				Category:    "memory",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"prefix": {Type: "string", Description: "Filter keys by prefix (e.g. 'project:')"},
				}, nil),
			},
		},
		"memory_delete": {
			Handler: p.delete,
			Meta: &domain.Metadata{
				Description: "Remove a key from persistent memory.",
				Category:    "memory",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{
					"key": {Type: "string", Description: "Memory key to delete"},
				}, []string{"key"}),
			},
		},
		"memory_stats": {
			Handler: p.stats,
			Meta: &domain.Metadata{
				Description: "Report how many entries persistent memory holds.",
				Category:    "memory",
				Cacheable:   notCacheable,
				InputSchema: Schema(map[string]Param{}, nil),
			},
		},
	}, nil
}

func (p *MemoryProvider) storeValue(ctx context.Context, args map[string]any) (any, error) {
	key, err := RequireString(args, "key")
	if err != nil {
		return nil, err
	}
	value, err := RequireString(args, "value")
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, memPrefix+key, value); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return "Stored " + key, nil
}

func (p *MemoryProvider) retrieve(ctx context.Context, args map[string]any) (any, error) {
	key, err := RequireString(args, "key")
	if err != nil {
		return nil, err
	}
	value, ok, err := p.store.Get(ctx, memPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("no memory stored under key %q", key)
	}
	return value, nil
}

func (p *MemoryProvider) list(ctx context.Context, args map[string]any) (any, error) {
	prefix := ArgString(args, "prefix")
	keys, err := p.store.List(ctx, memPrefix+prefix)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	trimmed := make([]string, len(keys))
	for i, k := range keys {
		trimmed[i] = strings.TrimPrefix(k, memPrefix)
	}
	return trimmed, nil
}

func (p *MemoryProvider) delete(ctx context.Context, args map[string]any) (any, error) {
	key, err := RequireString(args, "key")
	if err != nil {
		return nil, err
	}
	if err := p.store.Delete(ctx, memPrefix+key); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return "Deleted " + key, nil
}

func (p *MemoryProvider) stats(ctx context.Context, args map[string]any) (any, error) {
	n, err := p.store.Count(ctx, memPrefix)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return map[string]any{"entries": n}, nil
}

var _ domain.Provider = (*MemoryProvider)(nil)
