package workers

import "github.com/catalogforge/enrichment-engine/internal/queue"

// Each stage's JobArgs is the river.JobArgs payload carried on its
// queue; Kind() ties the type to the river.Workers registry.

type DocLookupArgs struct{ JobPayload }

func (DocLookupArgs) Kind() string { return queue.DocLookup }

type NormalizationArgs struct{ JobPayload }

func (NormalizationArgs) Kind() string { return queue.Normalization }

type GeocodingArgs struct{ JobPayload }

func (GeocodingArgs) Kind() string { return queue.Geocoding }

type PlacesArgs struct{ JobPayload }

func (PlacesArgs) Kind() string { return queue.Places }

type AnalysisArgs struct{ JobPayload }

func (AnalysisArgs) Kind() string { return queue.Analysis }

type DuplicateDetectionArgs struct{ JobPayload }

func (DuplicateDetectionArgs) Kind() string { return queue.DuplicateDetection }

type AnalystArgs struct{ JobPayload }

func (AnalystArgs) Kind() string { return queue.Analyst }
