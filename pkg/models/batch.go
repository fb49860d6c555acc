package models

import "time"

// BatchKind is the stage a batch was triggered for.
type BatchKind string

const (
	BatchDoc           BatchKind = "DOC"
	BatchNormalization BatchKind = "NORMALIZATION"
	BatchGeocoding     BatchKind = "GEOCODING"
	BatchPlaces        BatchKind = "PLACES"
	BatchAnalysis      BatchKind = "ANALYSIS"
	BatchAnalyst       BatchKind = "ANALYST"
)

// BatchStatus is the lifecycle of a Batch ledger row (§4.7).
type BatchStatus string

const (
	BatchStarted    BatchStatus = "STARTED"
	BatchInProgress BatchStatus = "IN_PROGRESS"
	BatchCompleted  BatchStatus = "COMPLETED"
	BatchAborted    BatchStatus = "ABORTED"
)

// Batch is a per-user-triggered bulk run of a stage, tracked for audit
// (§3.1, retained permanently per §3.3). Invariant 7: Processed ==
// Success+Failed and Processed <= Total must hold at every consistent
// read; the store enforces this with atomic counter increments, never
// read-modify-write from worker memory (§5).
type Batch struct {
	ID         string      `json:"id"`
	Kind       BatchKind   `json:"kind"`
	Status     BatchStatus `json:"status"`
	Total      int         `json:"total"`
	Processed  int         `json:"processed"`
	Success    int         `json:"success"`
	Failed     int         `json:"failed"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Note       string      `json:"note,omitempty"`
}

// Done reports whether every job belonging to the batch has completed.
func (b *Batch) Done() bool {
	return b.Processed >= b.Total
}

// AnalysisCacheEntry memoizes a vision-model verdict keyed by the photo
// content hash, the prompt revision and the model id (§3.1, §4.2 — 30
// day TTL).
type AnalysisCacheEntry struct {
	PhotoHash     string         `json:"photoHash"`
	PromptVersion string         `json:"promptVersion"`
	ModelID       string         `json:"modelId"`
	Result        map[string]any `json:"result"`
	CreatedAt     time.Time      `json:"createdAt"`
}
