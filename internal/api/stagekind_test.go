package api

import (
	"context"
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/internal/workers"
)

func TestEnqueueStage_KnownKeysDispatchWithoutError(t *testing.T) {
	d := &workers.Deps{Queue: queue.NoopQueue{}}
	payload := workers.JobPayload{RecordID: "rec-1"}

	for _, key := range []stageKey{
		stageKeyDoc, stageKeyNormalization, stageKeyGeocoding,
		stageKeyPlaces, stageKeyAnalysis, stageKeyAnalyst,
	} {
		if err := enqueueStage(context.Background(), d, key, payload, queue.JobOptions{}); err != nil {
			t.Errorf("enqueueStage(%q) returned %v, want nil", key, err)
		}
	}
}

func TestEnqueueStage_UnknownKeyIsError(t *testing.T) {
	d := &workers.Deps{Queue: queue.NoopQueue{}}
	err := enqueueStage(context.Background(), d, stageKey("bogus"), workers.JobPayload{}, queue.JobOptions{})
	if err == nil {
		t.Error("expected an error for an unrecognized stage key")
	}
}

func TestStageDescriptors_CoverEveryStageKey(t *testing.T) {
	keys := []stageKey{
		stageKeyDoc, stageKeyNormalization, stageKeyGeocoding,
		stageKeyPlaces, stageKeyAnalysis, stageKeyAnalyst,
	}
	for _, key := range keys {
		if _, ok := stageDescriptors[key]; !ok {
			t.Errorf("stageDescriptors missing entry for %q", key)
		}
	}
}
