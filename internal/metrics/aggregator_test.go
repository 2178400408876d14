package metrics

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestAggregator_Conservation(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < 7; i++ {
		agg.RecordCallStart()
	}
	for i := 0; i < 4; i++ {
		agg.RecordSuccess(10 * time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		agg.RecordFailure()
	}

	snap := agg.Snapshot()
	if snap.ToolCalls != 7 {
		t.Fatalf("expected 7 calls, got %d", snap.ToolCalls)
	}
	if snap.SuccessfulCalls+snap.FailedCalls != snap.ToolCalls {
		t.Fatalf("successes+failures != calls: %+v", snap)
	}
}

func TestAggregator_RollingAverageMatchesBatchMean(t *testing.T) {
	agg := NewAggregator()
	durations := []time.Duration{
		120 * time.Millisecond,
		5 * time.Millisecond,
		900 * time.Millisecond,
		33 * time.Millisecond,
		71 * time.Millisecond,
	}
	var sum float64
	for _, d := range durations {
		agg.RecordCallStart()
		agg.RecordSuccess(d)
		sum += d.Seconds()
	}

	want := sum / float64(len(durations))
	got := agg.Snapshot().AverageResponseTime
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("average %v, want %v", got, want)
	}
}

func TestAggregator_FirstSuccessSetsAverage(t *testing.T) {
	agg := NewAggregator()
	agg.RecordCallStart()
	agg.RecordSuccess(250 * time.Millisecond)
	if got := agg.Snapshot().AverageResponseTime; math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("average %v, want 0.25", got)
	}
}

func TestAggregator_FailuresDoNotTouchAverage(t *testing.T) {
	agg := NewAggregator()
	agg.RecordCallStart()
	agg.RecordSuccess(100 * time.Millisecond)
	agg.RecordCallStart()
	agg.RecordFailure()

	if got := agg.Snapshot().AverageResponseTime; math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("failure changed average: %v", got)
	}
}

func TestAggregator_LastActivitySet(t *testing.T) {
	agg := NewAggregator()
	if !agg.Snapshot().LastActivity.IsZero() {
		t.Fatal("expected zero last activity before any call")
	}
	agg.RecordCallStart()
	if agg.Snapshot().LastActivity.IsZero() {
		t.Fatal("expected last activity after a call")
	}
}

func TestAggregator_ConcurrentUpdates(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.RecordCallStart()
			agg.RecordSuccess(time.Millisecond)
		}()
	}
	wg.Wait()

	snap := agg.Snapshot()
	if snap.ToolCalls != 50 || snap.SuccessfulCalls != 50 {
		t.Fatalf("lost updates: %+v", snap)
	}
}
