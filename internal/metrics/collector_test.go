package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCollector_RendersPrometheusText(t *testing.T) {
	c := NewCollector()
	calls := c.Counter("test_calls_total", "Test calls")
	active := c.Gauge("test_active", "Test gauge")
	latency := c.Histogram("test_latency_seconds", "Test latency", []float64{0.1, 1})

	calls.Add(3)
	active.Set(2)
	latency.Observe(0.05)
	latency.Observe(5)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("wrong content type: %q", rec.Header().Get("Content-Type"))
	}
	for _, want := range []string{
		"# TYPE test_calls_total counter",
		"test_calls_total 3",
		"# TYPE test_active gauge",
		"test_active 2",
		"# TYPE test_latency_seconds histogram",
		`test_latency_seconds_bucket{le="0.1"} 1`,
		"test_latency_seconds_count 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestCounterGaugeSemantics(t *testing.T) {
	c := NewCollector()
	ctr := c.Counter("c", "")
	ctr.Inc()
	ctr.Add(4)
	if ctr.Value() != 5 {
		t.Fatalf("counter value %d", ctr.Value())
	}

	g := c.Gauge("g", "")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("gauge value %d", g.Value())
	}
}

func TestHistogram_BucketsAreCumulativePerBound(t *testing.T) {
	c := NewCollector()
	h := c.Histogram("h", "", []float64{1, 10})

	h.Observe(0.5) // falls in both bounds
	h.Observe(5)   // only <= 10
	h.Observe(50)  // beyond all bounds

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buckets[0] != 1 || h.buckets[1] != 2 || h.count != 3 {
		t.Fatalf("buckets %v count %d", h.buckets, h.count)
	}
}
