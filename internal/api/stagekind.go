package api

import (
	"context"
	"fmt"

	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/internal/workers"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// stageKey is the short name the `POST /pipeline/start-<stage>` route
// uses, distinct from models.StageName and queue.* constants (§6.1).
type stageKey string

const (
	stageKeyDoc           stageKey = "doc"
	stageKeyNormalization stageKey = "normalization"
	stageKeyGeocoding     stageKey = "geocoding"
	stageKeyPlaces        stageKey = "places"
	stageKeyAnalysis      stageKey = "analysis"
	stageKeyAnalyst       stageKey = "analyst"
)

type stageDescriptor struct {
	stageName models.StageName
	queueName string
	batchKind models.BatchKind
}

var stageDescriptors = map[stageKey]stageDescriptor{
	stageKeyDoc:           {models.StageDocLookup, queue.DocLookup, models.BatchDoc},
	stageKeyNormalization: {models.StageNormalization, queue.Normalization, models.BatchNormalization},
	stageKeyGeocoding:     {models.StageGeocoding, queue.Geocoding, models.BatchGeocoding},
	stageKeyPlaces:        {models.StagePlaces, queue.Places, models.BatchPlaces},
	stageKeyAnalysis:      {models.StageAnalysis, queue.Analysis, models.BatchAnalysis},
	stageKeyAnalyst:       {models.StageAnalyst, queue.Analyst, models.BatchAnalyst},
}

// enqueueStage adds the right river.JobArgs type for stage onto its
// queue, the dispatch a generic `start-<stage>` endpoint needs since
// each stage's JobArgs is a distinct Go type (§4.5).
func enqueueStage(ctx context.Context, d *workers.Deps, key stageKey, payload workers.JobPayload, opts queue.JobOptions) error {
	switch key {
	case stageKeyDoc:
		return d.Queue.Add(ctx, queue.DocLookup, workers.DocLookupArgs{JobPayload: payload}, opts)
	case stageKeyNormalization:
		return d.Queue.Add(ctx, queue.Normalization, workers.NormalizationArgs{JobPayload: payload}, opts)
	case stageKeyGeocoding:
		return d.Queue.Add(ctx, queue.Geocoding, workers.GeocodingArgs{JobPayload: payload}, opts)
	case stageKeyPlaces:
		return d.Queue.Add(ctx, queue.Places, workers.PlacesArgs{JobPayload: payload}, opts)
	case stageKeyAnalysis:
		return d.Queue.Add(ctx, queue.Analysis, workers.AnalysisArgs{JobPayload: payload}, opts)
	case stageKeyAnalyst:
		return d.Queue.Add(ctx, queue.Analyst, workers.AnalystArgs{JobPayload: payload}, opts)
	default:
		return fmt.Errorf("unknown stage key %q", key)
	}
}
