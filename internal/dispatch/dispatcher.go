// Package dispatch is the single choke point every tool call passes through.
// The dispatcher decides cache-or-execute, classifies failures, and records
// metrics; no error or panic escapes Invoke.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"toolhost/internal/cache"
	"toolhost/internal/domain"
	"toolhost/internal/metrics"
	"toolhost/internal/tool"
)

// Dispatcher holds no cross-call state beyond its references; concurrent
// Invoke calls only contend on the registry, cache, and metrics locks.
type Dispatcher struct {
	registry *tool.Registry
	cache    *cache.Tiered // nil disables caching entirely
	agg      *metrics.Aggregator
	logger   *slog.Logger
}

func New(registry *tool.Registry, c *cache.Tiered, agg *metrics.Aggregator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, cache: c, agg: agg, logger: logger}
}

// Invoke routes one (tool name, arguments) pair to a classified result.
// Every path, hit, success, or failure, yields exactly one envelope.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) domain.Result {
	start := time.Now()
	d.agg.RecordCallStart()
	metrics.ToolCalls.Inc()

	desc, found := d.registry.Lookup(name)

	// Unregistered names resolve to default cache policy purely for key
	// computation; the NOT_FOUND branch below fires before it matters.
	cacheEnabled := d.cache != nil
	if found && !desc.Cacheable {
		cacheEnabled = false
	}

	var key string
	if cacheEnabled {
		key = cache.Key(name, args)
		if v, ok := d.cache.Get(ctx, key); ok {
			d.success(time.Since(start))
			d.logger.Debug("cache hit", "tool", name)
			return domain.Result{Cached: true, Value: v}
		}
	}

	if !found {
		d.logger.Warn("tool not found", "tool", name)
		return d.failure(&domain.InvokeError{
			Kind:    domain.ErrNotFound,
			Message: fmt.Sprintf("tool %q is not registered", name),
		})
	}
	if desc.Handler == nil {
		// Defensive: registration rejects nil handlers, so this should
		// not occur.
		return d.failure(&domain.InvokeError{
			Kind:    domain.ErrNotCallable,
			Message: fmt.Sprintf("tool %q has no invocable handler", name),
		})
	}

	value, err := d.run(ctx, desc.Handler, name, args)
	elapsed := time.Since(start)

	if err != nil {
		var pe *domain.ParamError
		if errors.As(err, &pe) {
			d.logger.Warn("parameter error", "tool", name, "err", err)
			return d.failure(&domain.InvokeError{
				Kind:          domain.ErrParameter,
				Message:       fmt.Sprintf("tool %q rejected arguments: %v", name, err),
				ProvidedArgs:  domain.ArgNames(args),
				ExceptionType: domain.TypeName(pe),
			})
		}
		d.logger.Error("tool execution failed", "tool", name, "err", err)
		return d.failure(&domain.InvokeError{
			Kind:          domain.ErrExecution,
			Message:       fmt.Sprintf("tool %q failed: %v", name, err),
			ExceptionType: domain.TypeName(err),
		})
	}

	d.success(elapsed)
	metrics.ToolLatency.Observe(elapsed.Seconds())
	if cacheEnabled {
		d.cache.Set(ctx, key, value, d.resolveTTL(desc))
	}
	d.logger.Debug("tool executed", "tool", name, "elapsed", elapsed)
	return domain.Result{Value: value, TimeMS: elapsed.Milliseconds()}
}

// run invokes the handler with panic containment: a panicking tool is an
// EXECUTION_ERROR, not a dead server.
func (d *Dispatcher) run(ctx context.Context, fn domain.ToolFunc, name string, args map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

// resolveTTL maps tool metadata onto a concrete expiry: positive seconds
// override the server default, negative means the entry never expires.
func (d *Dispatcher) resolveTTL(desc domain.Descriptor) time.Duration {
	switch {
	case desc.CacheTTL > 0:
		return time.Duration(desc.CacheTTL * float64(time.Second))
	case desc.CacheTTL < 0:
		return 0
	default:
		return d.cache.DefaultTTL()
	}
}

func (d *Dispatcher) success(elapsed time.Duration) {
	d.agg.RecordSuccess(elapsed)
	metrics.ToolSuccesses.Inc()
}

func (d *Dispatcher) failure(ie *domain.InvokeError) domain.Result {
	d.agg.RecordFailure()
	metrics.ToolFailures.Inc()
	return domain.Result{Err: ie}
}
