// Package metrics holds the invocation aggregator and a lightweight
// Prometheus-compatible collector. The collector renders text/plain in
// Prometheus exposition format without pulling in prometheus/client_golang.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide metrics collector.
var Collector = NewCollector()

// MetricsCollector aggregates counters, gauges, and histograms.
type MetricsCollector struct {
	mu         sync.Mutex
	counters   []*Counter
	gauges     []*Gauge
	histograms []*Histogram
	startTime  time.Time
}

func NewCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.value.Store(v) }
func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of observed values.
type Histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	count   int64
	sum     float64
	bounds  []float64
	buckets []int64
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, le := range h.bounds {
		if v <= le {
			h.buckets[i]++
		}
	}
}

// Counter registers a counter with the given name.
func (c *MetricsCollector) Counter(name, help string) *Counter {
	ctr := &Counter{name: name, help: help}
	c.mu.Lock()
	c.counters = append(c.counters, ctr)
	c.mu.Unlock()
	return ctr
}

// Gauge registers a gauge with the given name.
func (c *MetricsCollector) Gauge(name, help string) *Gauge {
	g := &Gauge{name: name, help: help}
	c.mu.Lock()
	c.gauges = append(c.gauges, g)
	c.mu.Unlock()
	return g
}

// Histogram registers a histogram with the given bucket bounds.
func (c *MetricsCollector) Histogram(name, help string, buckets []float64) *Histogram {
	sort.Float64s(buckets)
	h := &Histogram{name: name, help: help, bounds: buckets, buckets: make([]int64, len(buckets))}
	c.mu.Lock()
	c.histograms = append(c.histograms, h)
	c.mu.Unlock()
	return h
}

// Handler renders all registered metrics in Prometheus text format.
func (c *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder
		fmt.Fprintf(&sb, "# HELP toolhost_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE toolhost_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "toolhost_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

		c.mu.Lock()
		counters := append([]*Counter(nil), c.counters...)
		gauges := append([]*Gauge(nil), c.gauges...)
		histograms := append([]*Histogram(nil), c.histograms...)
		c.mu.Unlock()

		for _, ctr := range counters {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
				ctr.name, ctr.help, ctr.name, ctr.name, ctr.Value())
		}
		for _, g := range gauges {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n",
				g.name, g.help, g.name, g.name, g.Value())
		}
		for _, h := range histograms {
			h.mu.Lock()
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
			for i, le := range h.bounds {
				label := fmt.Sprintf("%g", le)
				if math.IsInf(le, 1) {
					label = "+Inf"
				}
				fmt.Fprintf(&sb, "%s_bucket{le=%q} %d\n", h.name, label, h.buckets[i])
			}
			fmt.Fprintf(&sb, "%s_count %d\n%s_sum %f\n", h.name, h.count, h.name, h.sum)
			h.mu.Unlock()
		}

		fmt.Fprint(w, sb.String())
	}
}

// Metrics updated across the invocation pipeline.
var (
	ToolCalls     = Collector.Counter("toolhost_tool_calls_total", "Total tool invocations")
	ToolSuccesses = Collector.Counter("toolhost_tool_successes_total", "Total successful tool invocations")
	ToolFailures  = Collector.Counter("toolhost_tool_failures_total", "Total failed tool invocations")
	CacheHits     = Collector.Counter("toolhost_cache_hits_total", "Invocation cache hits (both tiers)")
	CacheMisses   = Collector.Counter("toolhost_cache_misses_total", "Invocation cache misses")
	ActiveConns   = Collector.Gauge("toolhost_active_connections", "Current gateway connections")

	ToolLatency = Collector.Histogram("toolhost_tool_latency_seconds", "Tool execution latency in seconds",
		[]float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30})
)
