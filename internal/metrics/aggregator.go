package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the invocation counters.
type Snapshot struct {
	ToolCalls           int64     `json:"tool_calls"`
	SuccessfulCalls     int64     `json:"successful_calls"`
	FailedCalls         int64     `json:"failed_calls"`
	AverageResponseTime float64   `json:"average_response_time"` // seconds
	LastActivity        time.Time `json:"last_activity,omitzero"`
}

// Aggregator holds the rolling invocation counters every dispatch folds
// into. The average is an online mean over successful calls only: it
// reproduces the exact batch mean without storing per-call history.
type Aggregator struct {
	mu           sync.Mutex
	toolCalls    int64
	successful   int64
	failed       int64
	avgSeconds   float64
	lastActivity time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// RecordCallStart counts an invocation attempt. Called unconditionally,
// before the outcome is known.
func (a *Aggregator) RecordCallStart() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toolCalls++
	a.lastActivity = time.Now()
}

// RecordSuccess counts a successful call and folds its duration into the
// rolling average.
func (a *Aggregator) RecordSuccess(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successful++
	secs := d.Seconds()
	if a.successful == 1 {
		a.avgSeconds = secs
		return
	}
	a.avgSeconds = (a.avgSeconds*float64(a.successful-1) + secs) / float64(a.successful)
}

// RecordFailure counts a failed call. Failures do not touch the average.
func (a *Aggregator) RecordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		ToolCalls:           a.toolCalls,
		SuccessfulCalls:     a.successful,
		FailedCalls:         a.failed,
		AverageResponseTime: a.avgSeconds,
		LastActivity:        a.lastActivity,
	}
}
