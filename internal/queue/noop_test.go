package queue

import (
	"context"
	"testing"
)

func TestNoopQueue_AllOperationsAreSafeNoops(t *testing.T) {
	var q NoopQueue
	ctx := context.Background()

	if err := q.Add(ctx, DocLookup, nil, JobOptions{}); err != nil {
		t.Errorf("Add returned %v, want nil", err)
	}
	if err := q.Pause(ctx, DocLookup); err != nil {
		t.Errorf("Pause returned %v, want nil", err)
	}
	if err := q.Resume(ctx, DocLookup); err != nil {
		t.Errorf("Resume returned %v, want nil", err)
	}

	paused, err := q.IsPaused(ctx, DocLookup)
	if err != nil || paused {
		t.Errorf("IsPaused = (%v, %v), want (false, nil)", paused, err)
	}

	counts, err := q.Counts(ctx, DocLookup)
	if err != nil || counts != (Counts{}) {
		t.Errorf("Counts = (%+v, %v), want (zero value, nil)", counts, err)
	}

	if jobs, err := q.GetCompleted(ctx, DocLookup, 10); jobs != nil || err != nil {
		t.Errorf("GetCompleted = (%v, %v), want (nil, nil)", jobs, err)
	}
	if jobs, err := q.GetFailed(ctx, DocLookup, 10); jobs != nil || err != nil {
		t.Errorf("GetFailed = (%v, %v), want (nil, nil)", jobs, err)
	}
	if jobs, err := q.GetActive(ctx, DocLookup, 10); jobs != nil || err != nil {
		t.Errorf("GetActive = (%v, %v), want (nil, nil)", jobs, err)
	}
}
