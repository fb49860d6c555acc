package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/crossvalidate"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// PlacesWorker implements the places cross-validation worker (§4.4.3,
// §4.6.4): nearby-mode and text-mode searches, photo ingestion and the
// preliminary potential-score rubric.
type PlacesWorker struct {
	river.WorkerDefaults[PlacesArgs]
	Deps *Deps
}

func (w *PlacesWorker) Work(ctx context.Context, job *river.Job[PlacesArgs]) error {
	payload := job.Args.JobPayload
	return runStage(ctx, w.Deps, models.StagePlaces, queue.Places, payload, w.execute,
		func(ctx context.Context, r *models.Record, outcome stageOutcome) {
			w.chain(ctx, r, outcome, payload)
		})
}

func (w *PlacesWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.Places)
	defer cancel()

	nearby := w.Deps.Places.Nearby(timeoutCtx, r.PlaceID, r.Lat, r.Lng, nameHint(r))

	textQuery := fmt.Sprintf("%s, %s, %s, %s", nameHint(r), r.AddressNormalized, r.CityNormalized, r.StateNormalized)
	text := w.Deps.Places.Text(timeoutCtx, textQuery)

	if !nearby.Ok && !text.Ok {
		return failure(nearby.Err)
	}

	chosen := nearby.Value
	nearbyWasNamed := nearby.Ok
	textWasNamed := text.Ok
	if !nearby.Ok {
		chosen = text.Value
	}

	resolution := crossvalidate.ResolvePlaces(
		nearby.Value.PlaceID, text.Value.PlaceID,
		chosen.DisplayName, chosen.FormattedAddress,
		nearbyWasNamed, textWasNamed,
		r.NameRaw, r.TradeName,
		r.AddressNormalized, r.RegistryAddress, r.AddressRaw,
	)

	if !resolution.Accepted {
		return failure(fmt.Errorf("places result rejected: nameSim=%.0f addressSim=%.0f", resolution.NameSim, resolution.AddressSim))
	}

	r.PlaceID = chosen.PlaceID
	r.PlaceTypesPrimary = firstOrEmpty(chosen.Types)
	r.EstablishmentType = r.PlaceTypesPrimary
	r.Rating = chosen.Rating
	r.ReviewCount = chosen.ReviewCount
	r.OpeningHours = chosen.OpeningHours
	r.PlacePhone = chosen.Phone
	r.PlaceWebsite = chosen.Website
	r.PhotoRefs = chosen.PhotoRefs
	r.PlaceNameValidated = resolution.NameSim >= 55
	r.PlaceAddressValidated = resolution.AddressSim >= 60
	r.PlaceCrossConfidence = int(resolution.Confidence)
	r.PlaceCrossMethod = resolution.Method
	r.AcceptedByHighAddress = resolution.AcceptedByHighAddress

	w.ingestPhotos(ctx, r)

	score, category, breakdown := scorePotential(r, 0)
	r.PotentialScore = score
	r.PotentialCategory = category
	r.ScoringBreakdown = breakdown

	return success(map[string]any{"placeCrossMethod": r.PlaceCrossMethod, "photoRefs": len(r.PhotoRefs)})
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// ingestPhotos downloads each Places photo reference and inserts a Photo
// row with an increasing ordinal (§4.6.4). Bytes are persisted under the
// configured storage directory when writable; otherwise only the
// externalRef is kept and bytes are re-fetched on demand by the analysis
// worker (§6.3).
func (w *PlacesWorker) ingestPhotos(ctx context.Context, r *models.Record) {
	for i, ref := range r.PhotoRefs {
		externalRef := "places:" + ref
		photo := &models.Photo{
			ID:          uuid.NewString(),
			RecordID:    r.ID,
			ExternalRef: externalRef,
			Ordinal:     i,
		}

		if w.Deps.Cfg.PhotoStorageDir != "" {
			if fileName, hash := w.fetchAndStore(ctx, r.ID, photo.ID, externalRef); fileName != "" {
				photo.FileName = fileName
				photo.FileHash = hash
			}
		}

		if err := w.Deps.Photos.Insert(ctx, photo); err != nil {
			w.Deps.Logger.Warn("failed to insert photo row", zap.Error(err))
		}
	}
}

// fetchAndStore re-downloads a photo's bytes through the shared
// PhotoFetcher and writes them under <PhotoStorageDir>/<recordID>/. A
// write or fetch failure just leaves the Photo keyed by externalRef.
func (w *PlacesWorker) fetchAndStore(ctx context.Context, recordID, photoID, externalRef string) (string, string) {
	res := w.Deps.PhotoFetch.Fetch(ctx, externalRef)
	if !res.Ok {
		return "", ""
	}

	dir := filepath.Join(w.Deps.Cfg.PhotoStorageDir, recordID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", res.Value.Hash
	}

	relName := photoID + ".jpg"
	if err := os.WriteFile(filepath.Join(dir, relName), res.Value.Data, 0o644); err != nil {
		return "", res.Value.Hash
	}
	return filepath.Join(recordID, relName), res.Value.Hash
}

func (w *PlacesWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome, payload JobPayload) {
	if outcome.status != models.StatusSuccess {
		return
	}
	delay := 2 * time.Second * time.Duration(payload.Index)
	_ = w.Deps.Queue.Add(ctx, queue.Analysis, AnalysisArgs{JobPayload{RecordID: r.ID, BatchID: payload.BatchID}},
		queue.JobOptions{Delay: delay})
}
