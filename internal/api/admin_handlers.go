package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// handleResetStuck implements POST /pipeline/reset-stuck?timeoutMinutes=N
// (§4.9): records in PROCESSING for longer than the timeout are reset
// to PENDING with their startedAt and error cleared.
func (h *APIHandler) handleResetStuck(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("timeoutMinutes", strconv.Itoa(h.Deps.Cfg.ResetStuckDefaultMinutes)))
	if err != nil || minutes <= 0 {
		minutes = h.Deps.Cfg.ResetStuckDefaultMinutes
	}
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	ctx := c.Request.Context()

	reset := make(map[models.StageName]int, len(allStages))
	for _, stage := range allStages {
		ids, err := h.Deps.Records.ListStuckInStage(ctx, stage, cutoff)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
		for _, id := range ids {
			r, err := h.Deps.Records.Get(ctx, id)
			if err != nil {
				continue
			}
			r.Stages[stage] = models.StageProgress{Status: models.StatusPending}
			if err := h.Deps.Records.Update(ctx, r); err != nil {
				h.Deps.Logger.Warn("failed to reset stuck record", zap.String("recordId", id), zap.Error(err))
				continue
			}
		}
		reset[stage] = len(ids)
	}

	c.JSON(http.StatusOK, gin.H{"timeoutMinutes": minutes, "reset": reset})
}

// richness scores how many "rich" enrichment fields a record carries,
// the tie-breaker merge-duplicates uses to pick which peer survives
// (§4.9).
func richness(r *models.Record) int {
	score := 0
	nonEmpty := []string{
		r.LegalName, r.TradeName, r.AddressNormalized, r.FormattedAddress,
		r.PlaceID, r.EstablishmentType, r.SignageQuality, r.PotentialCategory,
		r.TypologyCode, r.AnalystStatus,
	}
	for _, v := range nonEmpty {
		if v != "" {
			score++
		}
	}
	if r.Lat != 0 || r.Lng != 0 {
		score++
	}
	if r.Rating != 0 {
		score++
	}
	if r.ReviewCount != 0 {
		score++
	}
	score += len(r.Partners) + len(r.PhotoRefs)
	return score
}

// mergeFillBlanks copies a fixed set of enrichment fields (names,
// addresses, coordinates, place data, potential score, typology,
// partners) from peer into survivor wherever survivor's key field for
// that group is still empty. Companion fields of a group (rating and
// review count with placeId, score with category, typology name with
// code) are copied together with their key field; other fields are not
// merged.
func mergeFillBlanks(survivor, peer *models.Record) {
	if survivor.LegalName == "" {
		survivor.LegalName = peer.LegalName
	}
	if survivor.TradeName == "" {
		survivor.TradeName = peer.TradeName
	}
	if survivor.AddressNormalized == "" {
		survivor.AddressNormalized = peer.AddressNormalized
	}
	if survivor.FormattedAddress == "" {
		survivor.FormattedAddress = peer.FormattedAddress
	}
	if survivor.Lat == 0 && survivor.Lng == 0 {
		survivor.Lat, survivor.Lng = peer.Lat, peer.Lng
	}
	if survivor.PlaceID == "" {
		survivor.PlaceID = peer.PlaceID
		survivor.Rating = peer.Rating
		survivor.ReviewCount = peer.ReviewCount
	}
	if survivor.PotentialCategory == "" {
		survivor.PotentialScore = peer.PotentialScore
		survivor.PotentialCategory = peer.PotentialCategory
	}
	if survivor.TypologyCode == "" {
		survivor.TypologyCode = peer.TypologyCode
		survivor.TypologyName = peer.TypologyName
	}
	if len(survivor.Partners) == 0 {
		survivor.Partners = peer.Partners
	}
}

// handleMergeDuplicates implements POST /pipeline/merge-duplicates
// (§4.9): groups records by normalized nameRaw, keeps the richest
// member of each group, fills its blanks from the peers, moves their
// photos over, and deletes the peers.
func (h *APIHandler) handleMergeDuplicates(c *gin.Context) {
	ctx := c.Request.Context()
	groups, err := h.Deps.Records.GroupByNormalizedName(ctx)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	mergedGroups, deletedRecords := 0, 0
	for _, ids := range groups {
		if err := h.mergeGroup(ctx, ids); err != nil {
			h.Deps.Logger.Warn("merge-duplicates group failed", zap.Error(err))
			continue
		}
		mergedGroups++
		deletedRecords += len(ids) - 1
	}

	c.JSON(http.StatusOK, gin.H{"groupsMerged": mergedGroups, "recordsDeleted": deletedRecords})
}

func (h *APIHandler) mergeGroup(ctx context.Context, ids []string) error {
	records := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		r, err := h.Deps.Records.Get(ctx, id)
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	survivor := records[0]
	for _, r := range records[1:] {
		if richness(r) > richness(survivor) {
			survivor = r
		}
	}

	for _, r := range records {
		if r.ID == survivor.ID {
			continue
		}
		mergeFillBlanks(survivor, r)
		if err := h.Deps.Photos.ReassignRecord(ctx, r.ID, survivor.ID); err != nil {
			return err
		}
	}

	if err := h.Deps.Records.Update(ctx, survivor); err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == survivor.ID {
			continue
		}
		if err := h.Deps.Records.Delete(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}

// recordsInAnalysisError returns the ids of records whose analysis
// stage is currently FAIL, the "ERROR analysis state" of §4.9.
func (h *APIHandler) recordsInAnalysisError(ctx context.Context) ([]string, error) {
	return h.Deps.Records.ListByStageStatus(ctx, models.StageAnalysis, models.StatusFail, h.Deps.Cfg.MaxScanBatchSize)
}

// markErrorPhotosAnalyzed implements the mark-error-photos-analyzed
// operation (§4.9): unanalyzed photos belonging to a record stuck in an
// analysis error state are marked analyzed with a sentinel failure
// result so aggregate progress counters stop waiting on them.
func (h *APIHandler) markErrorPhotosAnalyzed(ctx context.Context) (int, error) {
	ids, err := h.recordsInAnalysisError(ctx)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, id := range ids {
		photos, err := h.Deps.Photos.ListUnanalyzed(ctx, id)
		if err != nil {
			return marked, err
		}
		for _, p := range photos {
			p.AnalyzedByAI = true
			p.AnalysisResult = map[string]any{"ok": false, "reason": "record in error state"}
			if err := h.Deps.Photos.SetAnalysisResult(ctx, p); err != nil {
				return marked, err
			}
			marked++
		}
	}
	return marked, nil
}

func (h *APIHandler) handleMarkErrorPhotosAnalyzed(c *gin.Context) {
	marked, err := h.markErrorPhotosAnalyzed(c.Request.Context())
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photosMarked": marked})
}

// handleUnlockPipelines implements POST /pipeline/unlock (§4.9): runs
// mark-error-photos-analyzed, then bulk-sets every record still in
// analysis FAIL whose photos are now all analyzed to analysis=SUCCESS.
func (h *APIHandler) handleUnlockPipelines(c *gin.Context) {
	ctx := c.Request.Context()
	marked, err := h.markErrorPhotosAnalyzed(ctx)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	ids, err := h.recordsInAnalysisError(ctx)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	unlocked := 0
	for _, id := range ids {
		photos, err := h.Deps.Photos.ListByRecord(ctx, id)
		if err != nil {
			continue
		}
		allAnalyzed := true
		for _, p := range photos {
			if !p.AnalyzedByAI {
				allAnalyzed = false
				break
			}
		}
		if !allAnalyzed {
			continue
		}
		r, err := h.Deps.Records.Get(ctx, id)
		if err != nil {
			continue
		}
		r.Stages[models.StageAnalysis] = models.StageProgress{Status: models.StatusSuccess}
		if err := h.Deps.Records.Update(ctx, r); err != nil {
			h.Deps.Logger.Warn("failed to unlock record", zap.String("recordId", id), zap.Error(err))
			continue
		}
		unlocked++
	}

	c.JSON(http.StatusOK, gin.H{"photosMarked": marked, "recordsUnlocked": unlocked})
}
