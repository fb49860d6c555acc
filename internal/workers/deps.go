// Package workers implements the seven stage workers of C6 (§4.6): the
// common skeleton (load, transition, execute, persist, chain) shared by
// every stage, specialized per stage in its own file.
package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/batch"
	"github.com/catalogforge/enrichment-engine/internal/broadcast"
	"github.com/catalogforge/enrichment-engine/internal/cache"
	"github.com/catalogforge/enrichment-engine/internal/config"
	"github.com/catalogforge/enrichment-engine/internal/confidence"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/metrics"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// Deps is every collaborator a stage worker needs, injected once at
// boot in cmd/engine/main.go (§9 — explicit dependencies over globals).
type Deps struct {
	Records       *db.RecordStore
	Photos        *db.PhotoStore
	Logs          *db.ProcessingLogStore
	AnalysisCache *db.AnalysisCacheStore

	Cache   cache.Cache
	Queue   queue.Queue
	Ledger  *batch.Ledger
	Hub     *broadcast.Hub
	Weights confidence.Weights
	Cfg     *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Recorder

	TaxRegistry *providers.TaxRegistryClient
	CPFRegistry *providers.CPFRegistryClient
	GeocoderA   *providers.GeocoderA
	GeocoderB   *providers.GeocoderB
	Places      *providers.PlacesClient
	PhotoFetch  *providers.PhotoFetcher
	TextLLMA    providers.TextLLM
	TextLLMB    providers.TextLLM
	VisionPre   providers.VisionLLM
	VisionDeep  providers.VisionLLM
	Analyst     *providers.AnalystLLM
}

// JobPayload is the common envelope every stage job carries: the record
// it operates on and, optionally, the batch it belongs to (§4.7).
type JobPayload struct {
	RecordID string `json:"recordId"`
	BatchID  string `json:"batchId,omitempty"`
	Index    int    `json:"index,omitempty"`
}

// stageOutcome is what a stage's execute function reports back to the
// common skeleton.
type stageOutcome struct {
	status  models.StageStatus
	errMsg  string
	details map[string]any
}

func success(details map[string]any) stageOutcome {
	return stageOutcome{status: models.StatusSuccess, details: details}
}

func failure(err error) stageOutcome {
	return stageOutcome{status: models.StatusFail, errMsg: err.Error()}
}

func incomplete(reason string) stageOutcome {
	return stageOutcome{status: models.StatusIncomplete, errMsg: reason}
}

func notApplicable(reason string) stageOutcome {
	return stageOutcome{status: models.StatusNotApplicable, errMsg: reason}
}

// runStage implements the common worker skeleton of §4.6: load, mark
// PROCESSING, execute, persist the stage status, bump the batch ledger,
// chain the next stage and publish a broadcaster event. Each stage file
// supplies only `execute` and `chain`.
func runStage(
	ctx context.Context,
	d *Deps,
	stageName models.StageName,
	queueName string,
	payload JobPayload,
	execute func(ctx context.Context, r *models.Record) stageOutcome,
	chain func(ctx context.Context, r *models.Record, outcome stageOutcome),
) error {
	r, err := d.Records.Get(ctx, payload.RecordID)
	if err != nil {
		d.Logger.Warn("record not found, dropping job", zap.String("recordId", payload.RecordID), zap.String("stage", string(stageName)))
		return nil
	}

	now := time.Now()
	r.Stages[stageName] = models.StageProgress{Status: models.StatusProcessing, StartedAt: &now}
	if err := d.Records.Update(ctx, r); err != nil {
		return err
	}
	d.Hub.JobEvent("active", queueName, payload.RecordID, "stage started", nil)

	start := time.Now()
	outcome := execute(ctx, r)
	elapsedMs := int(time.Since(start).Milliseconds())

	finishedAt := time.Now()
	progress := models.StageProgress{Status: outcome.status, StartedAt: &now, FinishedAt: &finishedAt}
	if outcome.errMsg != "" {
		progress.Error = outcome.errMsg
	}
	r.Stages[stageName] = progress

	if err := d.Records.Update(ctx, r); err != nil {
		return err
	}

	d.appendLog(ctx, r.ID, stageName, outcome, elapsedMs)
	if d.Metrics != nil {
		metricOutcome := "success"
		if outcome.status != models.StatusSuccess {
			metricOutcome = "fail"
		}
		d.Metrics.Observe(string(stageName), metricOutcome, time.Since(start))
	}

	success := outcome.status == models.StatusSuccess
	if payload.BatchID != "" {
		if err := d.Ledger.RecordOutcome(ctx, payload.BatchID, queueName, success); err != nil {
			d.Logger.Warn("failed to record batch outcome", zap.Error(err))
		}
	}

	eventType := "completed"
	if outcome.status == models.StatusFail {
		eventType = "failed"
	}
	d.Hub.JobEvent(eventType, queueName, payload.RecordID, string(outcome.status), outcome.details)

	if chain != nil {
		chain(ctx, r, outcome)
	}
	return nil
}

func (d *Deps) appendLog(ctx context.Context, recordID string, stage models.StageName, outcome stageOutcome, elapsedMs int) {
	level := "SUCCESS"
	switch outcome.status {
	case models.StatusFail:
		level = "FAIL"
	case models.StatusIncomplete:
		level = "INCOMPLETE"
	case models.StatusNotApplicable:
		level = "NOT_APPLICABLE"
	}
	ms := elapsedMs
	entry := &db.LogEntry{
		CorrelationID:  recordID + ":" + string(stage) + ":1",
		Stage:          string(stage),
		Operation:      "execute",
		Level:          level,
		Message:        outcome.errMsg,
		ExecutionTimeMs: &ms,
		Output:         outcome.details,
	}
	if entry.Message == "" {
		entry.Message = string(outcome.status)
	}
	if err := d.Logs.Append(ctx, entry); err != nil {
		d.Logger.Warn("failed to append processing log", zap.Error(err))
	}
}

