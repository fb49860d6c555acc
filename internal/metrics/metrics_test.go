package metrics

import (
	"testing"
	"time"
)

func TestRecorder_SummaryBeforeAnyObserve(t *testing.T) {
	rec := NewRecorder()
	if _, ok := rec.Summary("doclookup"); ok {
		t.Error("expected ok=false before any observation for a stage")
	}
}

func TestRecorder_SummaryAggregatesObservations(t *testing.T) {
	rec := NewRecorder()
	durations := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for _, d := range durations {
		rec.Observe("geocoding", "success", d)
	}

	summary, ok := rec.Summary("geocoding")
	if !ok {
		t.Fatal("expected ok=true after observations")
	}
	if summary.Count != 3 {
		t.Errorf("Count = %d, want 3", summary.Count)
	}
	if summary.Min != 100*time.Millisecond {
		t.Errorf("Min = %v, want 100ms", summary.Min)
	}
	if summary.Max != 300*time.Millisecond {
		t.Errorf("Max = %v, want 300ms", summary.Max)
	}
	if summary.Mean != 200*time.Millisecond {
		t.Errorf("Mean = %v, want 200ms", summary.Mean)
	}
}

func TestRecorder_RingWrapsAfterCapacity(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < ringSize+10; i++ {
		rec.Observe("analysis", "success", time.Duration(i+1)*time.Millisecond)
	}

	summary, ok := rec.Summary("analysis")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if summary.Count != ringSize {
		t.Errorf("Count = %d, want ring capacity %d", summary.Count, ringSize)
	}
	// The first 10 pushes should have been overwritten, so the minimum
	// observed value is now 11ms, not 1ms.
	if summary.Min != 11*time.Millisecond {
		t.Errorf("Min = %v, want 11ms after wraparound", summary.Min)
	}
}

func TestRecorder_StagesAreIndependent(t *testing.T) {
	rec := NewRecorder()
	rec.Observe("doclookup", "success", 50*time.Millisecond)

	if _, ok := rec.Summary("places"); ok {
		t.Error("expected no summary for a stage that was never observed")
	}
}
