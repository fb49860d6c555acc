package workers

import (
	"github.com/riverqueue/river"
)

// Register builds the river.Workers registry for all seven pipeline
// queues, wiring each worker struct to the shared Deps (§4.5, §4.6).
func Register(deps *Deps) (*river.Workers, error) {
	w := river.NewWorkers()

	if err := river.AddWorkerSafely[DocLookupArgs](w, &DocLookupWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[NormalizationArgs](w, &NormalizationWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[GeocodingArgs](w, &GeocodingWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[PlacesArgs](w, &PlacesWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[AnalysisArgs](w, &AnalysisWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[DuplicateDetectionArgs](w, &DuplicateDetectionWorker{Deps: deps}); err != nil {
		return nil, err
	}
	if err := river.AddWorkerSafely[AnalystArgs](w, &AnalystWorker{Deps: deps}); err != nil {
		return nil, err
	}

	return w, nil
}
