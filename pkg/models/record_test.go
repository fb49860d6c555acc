package models

import "testing"

func TestNewRecord_InitializesAllSevenStagesPending(t *testing.T) {
	r := NewRecord("rec-1", "14200166000151")
	if r.ID != "rec-1" || r.Document != "14200166000151" {
		t.Errorf("unexpected id/document: %+v", r)
	}

	stages := []StageName{
		StageDocLookup, StageNormalization, StageGeocoding, StagePlaces,
		StageAnalysis, StageDuplicateDetection, StageAnalyst,
	}
	if len(r.Stages) != len(stages) {
		t.Fatalf("Stages has %d entries, want %d", len(r.Stages), len(stages))
	}
	for _, s := range stages {
		if r.Stages[s].Status != StatusPending {
			t.Errorf("stage %q status = %q, want PENDING", s, r.Stages[s].Status)
		}
	}
}

func TestRecord_StageStatus_DefaultsToPendingForUninitializedStage(t *testing.T) {
	r := &Record{Stages: map[StageName]StageProgress{}}
	if got := r.StageStatus(StageGeocoding); got != StatusPending {
		t.Errorf("StageStatus = %q, want PENDING for an unset stage", got)
	}
}

func TestRecord_StageStatus_ReturnsStoredStatus(t *testing.T) {
	r := NewRecord("rec-2", "11144477735")
	r.Stages[StageAnalysis] = StageProgress{Status: StatusSuccess}
	if got := r.StageStatus(StageAnalysis); got != StatusSuccess {
		t.Errorf("StageStatus = %q, want SUCCESS", got)
	}
}
