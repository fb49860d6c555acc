package workers

import (
	"context"

	"github.com/riverqueue/river"
	"golang.org/x/sync/errgroup"

	"github.com/catalogforge/enrichment-engine/internal/crossvalidate"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// GeocodingWorker implements the coordinate cross-validation worker
// (§4.4.2, §4.6.3).
type GeocodingWorker struct {
	river.WorkerDefaults[GeocodingArgs]
	Deps *Deps
}

func (w *GeocodingWorker) Work(ctx context.Context, job *river.Job[GeocodingArgs]) error {
	return runStage(ctx, w.Deps, models.StageGeocoding, queue.Geocoding, job.Args.JobPayload, w.execute, w.chain)
}

func addressForGeocoding(r *models.Record) string {
	switch {
	case r.AddressNormalized != "":
		return r.AddressNormalized
	case r.RegistryAddress != "":
		return r.RegistryAddress
	default:
		return r.AddressRaw
	}
}

func nameHint(r *models.Record) string {
	if r.TradeName != "" {
		return r.TradeName
	}
	return r.NameRaw
}

func (w *GeocodingWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	address := addressForGeocoding(r)
	city := r.CityNormalized
	if city == "" {
		city = r.CityRaw
	}
	state := r.StateNormalized
	if state == "" {
		state = r.StateRaw
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.Geocoder)
	defer cancel()

	var resA, resB providers.Result[providers.GeocodeResult]
	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.Go(func() error {
		resA = w.Deps.GeocoderA.Geocode(gCtx, address, city, state, nameHint(r))
		return nil
	})
	g.Go(func() error {
		resB = w.Deps.GeocoderB.Geocode(gCtx, address, city, state)
		return nil
	})
	_ = g.Wait()

	if !resA.Ok && !resB.Ok {
		return failure(resA.Err)
	}

	box, hasBox := crossvalidate.StateBoundingBox(state)

	resolution := crossvalidate.ResolveCoordinates(
		resA.Value.Lat, resA.Value.Lng, resA.Ok,
		resB.Value.Lat, resB.Value.Lng, resB.Ok,
		box,
	)

	r.Lat = resolution.Lat
	r.Lng = resolution.Lng
	r.GeocodingConfidence = int(resolution.Confidence)
	r.GeocodingMaxDivergenceMeters = resolution.DistanceM
	r.GeoValidated = resolution.Confidence >= 75

	switch resolution.Source {
	case crossvalidate.CoordinateSourceA:
		r.GeocodingSource = "GEOCODER_A"
		r.FormattedAddress = resA.Value.FormattedAddress
		r.PlaceHint = resA.Value.PlaceHint
	case crossvalidate.CoordinateSourceB:
		r.GeocodingSource = "GEOCODER_B"
		r.FormattedAddress = resB.Value.DisplayName
	}

	r.GeoWithinState = !hasBox || box.Contains(r.Lat, r.Lng)
	r.GeoWithinCity = r.GeoWithinState && !resolution.Divergence

	return success(map[string]any{
		"geocodingSource":     r.GeocodingSource,
		"geocodingConfidence": r.GeocodingConfidence,
		"geoWithinState":      r.GeoWithinState,
	})
}

func (w *GeocodingWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {
	if outcome.status != models.StatusSuccess {
		return
	}
	_ = w.Deps.Queue.Add(ctx, queue.Places, PlacesArgs{JobPayload{RecordID: r.ID}}, queue.JobOptions{})
	_ = w.Deps.Queue.Add(ctx, queue.DuplicateDetection, DuplicateDetectionArgs{JobPayload{RecordID: r.ID}}, queue.JobOptions{})
}
