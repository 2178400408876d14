// Package tool holds the registry and the built-in capability providers.
package tool

import (
	"log/slog"
	"sort"
	"sync"

	"toolhost/internal/domain"
)

const (
	defaultDescription = "No description provided."
	defaultCategory    = "uncategorized"
)

// Registry aggregates the tool maps of all capability providers into one
// flat namespace. It is built once at startup and read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Descriptor
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]domain.Descriptor),
		logger: logger,
	}
}

// RegisterAll binds every tool declared by every provider. Failures are
// isolated per provider and per tool: a provider whose discovery fails, or a
// malformed entry, degrades functionality but never aborts the pass.
func (r *Registry) RegisterAll(providers []domain.Provider) {
	for _, p := range providers {
		entries, err := p.Tools()
		if err != nil {
			r.logger.Error("provider discovery failed, skipping", "provider", p.Name(), "err", err)
			continue
		}
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.register(p.Name(), name, entries[name])
		}
	}
	r.logSummary()
}

func (r *Registry) register(provider, name string, e domain.ToolEntry) {
	if e.Handler == nil {
		r.logger.Warn("malformed tool entry, skipping", "provider", provider, "tool", name)
		return
	}

	desc := domain.Descriptor{
		Name:        name,
		Handler:     e.Handler,
		Description: defaultDescription,
		Category:    defaultCategory,
		Cacheable:   true,
	}
	if e.Meta == nil {
		r.logger.Warn("tool declared without metadata, using defaults", "provider", provider, "tool", name)
	} else {
		if e.Meta.Description != "" {
			desc.Description = e.Meta.Description
		}
		if e.Meta.Category != "" {
			desc.Category = e.Meta.Category
		}
		if e.Meta.Cacheable != nil {
			desc.Cacheable = *e.Meta.Cacheable
		}
		desc.CacheTTL = e.Meta.CacheTTL
		desc.InputSchema = e.Meta.InputSchema
	}

	r.mu.Lock()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn("tool name collision, last registration wins", "provider", provider, "tool", name)
	}
	r.tools[name] = desc
	r.mu.Unlock()

	r.logger.Debug("registered tool", "provider", provider, "tool", name, "category", desc.Category)
}

// Lookup resolves a tool name to its descriptor.
func (r *Registry) Lookup(name string) (domain.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the wire-shape tool list for tools/list.
func (r *Registry) Definitions() []domain.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]domain.Definition, 0, len(r.tools))
	for _, d := range r.tools {
		defs = append(defs, domain.Definition{
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			InputSchema: d.InputSchema,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Summary reports the tool count per category.
func (r *Registry) Summary() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, d := range r.tools {
		counts[d.Category]++
	}
	return counts
}

func (r *Registry) logSummary() {
	counts := r.Summary()
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		r.logger.Info("tool inventory", "category", c, "tools", counts[c])
	}
	r.logger.Info("tool registration complete", "total", r.Count())
}
