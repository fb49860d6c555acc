package workers

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/catalogforge/enrichment-engine/internal/crossvalidate"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

const chainDelayAfterNormalization = 100 * time.Millisecond

// NormalizationWorker implements the address normalization worker
// (§4.4.1, §4.6.2): triple cross-validation between two text LLMs and a
// deterministic rule-based normalizer.
type NormalizationWorker struct {
	river.WorkerDefaults[NormalizationArgs]
	Deps *Deps
}

func (w *NormalizationWorker) Work(ctx context.Context, job *river.Job[NormalizationArgs]) error {
	return runStage(ctx, w.Deps, models.StageNormalization, queue.Normalization, job.Args.JobPayload, w.execute, w.chain)
}

func (w *NormalizationWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	raw := r.AddressRaw
	if raw == "" {
		raw = r.RegistryAddress
	}

	regex := crossvalidate.RuleBasedNormalize(raw, r.CityRaw, r.StateRaw)

	var llmA, llmB *providers.NormalizedAddress
	timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.LLMText)
	defer cancel()

	if res := w.Deps.TextLLMA.NormalizeAddress(timeoutCtx, raw, r.CityRaw, r.StateRaw); res.Ok {
		v := res.Value
		llmA = &v
	}
	if res := w.Deps.TextLLMB.NormalizeAddress(timeoutCtx, raw, r.CityRaw, r.StateRaw); res.Ok {
		v := res.Value
		llmB = &v
	}

	resolution := crossvalidate.ResolveAddress(llmA, llmB, regex, raw)

	r.AddressNormalized = resolution.Chosen.Street
	if resolution.Chosen.Number != "" {
		r.AddressNormalized = resolution.Chosen.Street + ", " + resolution.Chosen.Number
	}
	r.CityNormalized = resolution.Chosen.City
	r.StateNormalized = resolution.Chosen.State
	r.NormalizationConfidence = int(resolution.Confidence)
	r.NormalizationSource = string(resolution.Source)
	r.NormalizationDivergences = resolution.Divergences

	if resolution.Status == "INCOMPLETE" {
		return incomplete("raw address is empty and no LLM produced a result")
	}
	return success(map[string]any{"normalizationSource": r.NormalizationSource, "normalizationConfidence": r.NormalizationConfidence})
}

func (w *NormalizationWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {
	_ = w.Deps.Queue.Add(ctx, queue.Geocoding, GeocodingArgs{JobPayload{RecordID: r.ID}},
		queue.JobOptions{Delay: chainDelayAfterNormalization})
}
