package workers

import (
	"context"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// duplicateProximityDegrees is the ±0.00045° (~50 m) square used by the
// coordinate-proximity duplicate strategy of §4.6.6.
const duplicateProximityDegrees = 0.00045

// DuplicateDetectionWorker implements the address and QSA duplicate
// cross-check of §4.6.6. It is terminal: it never chains to another
// stage.
type DuplicateDetectionWorker struct {
	river.WorkerDefaults[DuplicateDetectionArgs]
	Deps *Deps
}

func (w *DuplicateDetectionWorker) Work(ctx context.Context, job *river.Job[DuplicateDetectionArgs]) error {
	return runStage(ctx, w.Deps, models.StageDuplicateDetection, queue.DuplicateDetection, job.Args.JobPayload, w.execute, w.chain)
}

func (w *DuplicateDetectionWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	peerIDs, err := w.findAddressDuplicates(ctx, r)
	if err != nil {
		return failure(err)
	}

	r.DuplicateAddressIDs = peerIDs
	r.DuplicateCount = len(peerIDs)
	r.DuplicateAlert = len(peerIDs) > 0

	for _, peerID := range peerIDs {
		if err := w.addReciprocalDuplicate(ctx, peerID, r.ID); err != nil {
			w.Deps.Logger.Warn("failed to update peer duplicate list", zap.Error(err))
		}
	}

	if r.DocumentKind == models.DocumentCPF {
		w.qsaCrossCheck(ctx, r)
	}

	return success(map[string]any{"duplicateCount": r.DuplicateCount, "cpfIsPartner": r.CPFIsPartner})
}

// findAddressDuplicates tries exact addressNormalized equality first,
// falling back to coordinate-box proximity only when that yields nothing
// (§4.6.6, "stop at first non-empty result").
func (w *DuplicateDetectionWorker) findAddressDuplicates(ctx context.Context, r *models.Record) ([]string, error) {
	if r.AddressNormalized != "" {
		ids, err := w.Deps.Records.FindByNormalizedAddress(ctx, r.ID, r.AddressNormalized)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}
	if r.Lat == 0 && r.Lng == 0 {
		return nil, nil
	}
	return w.Deps.Records.FindByCoordinateBox(ctx, r.ID, r.Lat, r.Lng, duplicateProximityDegrees)
}

// addReciprocalDuplicate appends id to a peer's duplicateAddressIds if
// not already present, so both sides of a duplicate pair point at each
// other (§4.6.6).
func (w *DuplicateDetectionWorker) addReciprocalDuplicate(ctx context.Context, peerID, id string) error {
	peer, err := w.Deps.Records.Get(ctx, peerID)
	if err != nil {
		return err
	}
	for _, existing := range peer.DuplicateAddressIDs {
		if existing == id {
			return nil
		}
	}
	peer.DuplicateAddressIDs = append(peer.DuplicateAddressIDs, id)
	peer.DuplicateCount = len(peer.DuplicateAddressIDs)
	peer.DuplicateAlert = true
	return w.Deps.Records.Update(ctx, peer)
}

func (w *DuplicateDetectionWorker) qsaCrossCheck(ctx context.Context, r *models.Record) {
	cpfDigits := digitsOnly(r.Document)

	company, partner, err := w.Deps.Records.FindCNPJByPartnerTaxID(ctx, cpfDigits)
	if err != nil {
		w.Deps.Logger.Warn("QSA cross-check lookup failed", zap.Error(err))
		return
	}
	if company == nil || partner == nil {
		r.CPFIsPartner = false
		return
	}

	r.CPFIsPartner = true
	var since string
	if partner.Since != nil {
		since = partner.Since.Format("2006-01-02")
	}
	r.CPFPartnerRelation = &models.CPFPartnerRelation{
		CompanyID:   company.ID,
		CompanyName: company.LegalName,
		CompanyCNPJ: company.Document,
		PartnerRole: partner.Role,
		Since:       since,
	}
}

func (w *DuplicateDetectionWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {}
