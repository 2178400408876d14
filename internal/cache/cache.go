// Package cache implements the two-tier invocation-result cache: a fast
// in-process L1 map with lazy TTL expiry, backed by the persistent key-value
// store as L2. The cache is a best-effort optimization; no failure in either
// tier ever propagates to a tool call.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"toolhost/internal/domain"
	"toolhost/internal/metrics"
)

// DefaultTTL applies when neither the tool metadata nor the caller resolves
// a TTL.
const DefaultTTL = 5 * time.Second

// l2Prefix namespaces cache records inside the shared key-value store so
// they cannot collide with memory-tool data.
const l2Prefix = "toolcache:"

type entry struct {
	value     any
	expiresAt time.Time // zero = never expires
}

// l2Record is the durable form of an entry. The intended expiry is recorded
// alongside the value; L2 reads are treated as last-known-value.
type l2Record struct {
	Value     any       `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	StoredAt  time.Time `json:"stored_at"`
}

// Tiered is the two-tier cache. A single mutex guards L1; L2 access happens
// outside the lock so a slow store never blocks concurrent L1 hits.
type Tiered struct {
	mu         sync.Mutex
	entries    map[string]entry
	store      domain.KVStore // nil disables L2
	defaultTTL time.Duration
	logger     *slog.Logger
}

func NewTiered(store domain.KVStore, defaultTTL time.Duration, logger *slog.Logger) *Tiered {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Tiered{
		entries:    make(map[string]entry),
		store:      store,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// DefaultTTL returns the server-wide TTL applied when a tool has no override.
func (c *Tiered) DefaultTTL() time.Duration { return c.defaultTTL }

// Get looks a key up in L1, then L2. An L1 entry whose deadline has passed is
// purged and treated as a miss. An L2 hit is backfilled into L1. Absence is
// not an error; L2 failures count as misses.
func (c *Tiered) Get(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if e.expiresAt.IsZero() || time.Now().Before(e.expiresAt) {
			c.mu.Unlock()
			metrics.CacheHits.Inc()
			return e.value, true
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if v, ok := c.fromL2(ctx, key); ok {
		metrics.CacheHits.Inc()
		return v, true
	}
	metrics.CacheMisses.Inc()
	return nil, false
}

func (c *Tiered) fromL2(ctx context.Context, key string) (any, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, ok, err := c.store.Get(ctx, l2Prefix+key)
	if err != nil {
		c.logger.Warn("l2 cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rec l2Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.Warn("l2 cache record malformed", "key", key, "err", err)
		return nil, false
	}

	// Backfill L1. A still-valid recorded deadline carries over; anything
	// else re-enters under the default TTL as a last-known value.
	deadline := rec.ExpiresAt
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		deadline = time.Now().Add(c.defaultTTL)
	}
	c.mu.Lock()
	c.entries[key] = entry{value: rec.Value, expiresAt: deadline}
	c.mu.Unlock()
	return rec.Value, true
}

// Set writes to L1 with the resolved TTL and best-effort to L2. ttl <= 0
// means the entry never expires by time.
func (c *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: deadline}
	c.mu.Unlock()

	c.toL2(ctx, key, value, deadline)
}

func (c *Tiered) toL2(ctx context.Context, key string, value any, deadline time.Time) {
	if c.store == nil {
		return
	}
	rec := l2Record{Value: value, ExpiresAt: deadline, StoredAt: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("l2 cache value not serializable", "key", key, "err", err)
		return
	}
	if err := c.store.Put(ctx, l2Prefix+key, string(data)); err != nil {
		c.logger.Warn("l2 cache write failed", "key", key, "err", err)
	}
}

// Invalidate removes a key from both tiers.
func (c *Tiered) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx, l2Prefix+key); err != nil {
			c.logger.Warn("l2 cache delete failed", "key", key, "err", err)
		}
	}
}

// Len reports the number of live L1 entries (expired ones included until
// observed; diagnostics only).
func (c *Tiered) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush drains live L1 entries into L2 so a later process start can warm
// from the store. Called on graceful shutdown; failures are logged, not fatal.
func (c *Tiered) Flush(ctx context.Context) {
	c.mu.Lock()
	now := time.Now()
	live := make(map[string]entry, len(c.entries))
	for k, e := range c.entries {
		if e.expiresAt.IsZero() || now.Before(e.expiresAt) {
			live[k] = e
		}
	}
	c.mu.Unlock()

	for k, e := range live {
		c.toL2(ctx, k, e.value, e.expiresAt)
	}
	if len(live) > 0 {
		c.logger.Info("cache drained to store", "entries", len(live))
	}
}
