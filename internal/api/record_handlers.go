package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/sourcemap"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

func (h *APIHandler) getRecordOrRespond(c *gin.Context) *models.Record {
	r, err := h.Deps.Records.Get(c.Request.Context(), c.Param("id"))
	if err == db.ErrNotFound {
		respondErr(c, http.StatusNotFound, "NotFound", "record not found")
		return nil
	}
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return nil
	}
	return r
}

// handleRecordResult implements GET /records/:id/result (§6.1): the
// full record plus its photos and consolidated analysis.
func (h *APIHandler) handleRecordResult(c *gin.Context) {
	r := h.getRecordOrRespond(c)
	if r == nil {
		return
	}
	photos, err := h.Deps.Photos.ListByRecord(c.Request.Context(), r.ID)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": r, "photos": photos})
}

// handleRecordSources implements GET /records/:id/sources (§6.1, §4.3):
// the Source Map.
func (h *APIHandler) handleRecordSources(c *gin.Context) {
	r := h.getRecordOrRespond(c)
	if r == nil {
		return
	}
	c.JSON(http.StatusOK, sourcemap.Build(r))
}

// qualityReport is the source-aware quality analysis GET
// /records/:id/real-quality returns: it weighs confidence by how many
// independent sources actually agreed, rather than trusting the single
// confidenceOverall figure at face value.
type qualityReport struct {
	FieldCount       int                         `json:"fieldCount"`
	ValidatedCount   int                          `json:"validatedCount"`
	CrossValidated   int                          `json:"crossValidatedCount"`
	LowConfidence    []string                      `json:"lowConfidenceFields,omitempty"`
	Divergent        []string                      `json:"divergentFields,omitempty"`
	ConfidenceByField map[string]int               `json:"confidenceByField"`
}

const lowConfidenceThreshold = 50

// handleRecordRealQuality implements GET /records/:id/real-quality
// (§6.1) by deriving a quality report straight from the Source Map
// instead of from the stored confidenceOverall snapshot, so it reflects
// provenance even if a stage has not rerun since an upstream change.
func (h *APIHandler) handleRecordRealQuality(c *gin.Context) {
	r := h.getRecordOrRespond(c)
	if r == nil {
		return
	}
	sm := sourcemap.Build(r)

	report := qualityReport{
		ConfidenceByField: make(map[string]int, len(sm)),
	}
	for field, fo := range sm {
		report.FieldCount++
		report.ConfidenceByField[field] = fo.Confidence
		if fo.Validated {
			report.ValidatedCount++
		}
		if fo.Source == sourcemap.OriginCrossValidated {
			report.CrossValidated++
		}
		if fo.Confidence < lowConfidenceThreshold {
			report.LowConfidence = append(report.LowConfidence, field)
		}
		if fo.Divergence != "" {
			report.Divergent = append(report.Divergent, field)
		}
	}
	c.JSON(http.StatusOK, report)
}

// handleAnalystContext implements GET /records/:id/analyst-context
// (§6.1): the structured context the analyst stage consumed, rebuilt
// on demand from the same Source Map rather than persisted separately.
func (h *APIHandler) handleAnalystContext(c *gin.Context) {
	r := h.getRecordOrRespond(c)
	if r == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document":          r.Document,
		"documentKind":      r.DocumentKind,
		"rawInput":          gin.H{"name": r.NameRaw, "address": r.AddressRaw, "city": r.CityRaw, "state": r.StateRaw},
		"sourceMap":         sourcemap.Build(r),
		"validatedData": gin.H{
			"legalName":          r.LegalName,
			"tradeName":          r.TradeName,
			"registryStatus":     r.RegistryStatus,
			"addressNormalized":  r.AddressNormalized,
			"lat":                r.Lat,
			"lng":                r.Lng,
			"geoWithinState":     r.GeoWithinState,
			"placeId":            r.PlaceID,
			"rating":             r.Rating,
			"reviewCount":        r.ReviewCount,
			"potentialScore":     r.PotentialScore,
			"potentialCategory":  r.PotentialCategory,
		},
		"existingAlerts": gin.H{
			"confidenceOverall": r.ConfidenceOverall,
			"confidenceLevel":   r.ConfidenceLevel,
			"duplicateAlert":    r.DuplicateAlert,
			"duplicateCount":    r.DuplicateCount,
			"alerts":            r.Alerts,
			"normalizationDivergences": r.NormalizationDivergences,
		},
		"cpfIsPartner": r.CPFIsPartner,
	})
}

type forceFailRequest struct {
	Pipeline string `json:"pipeline" binding:"required"` // "registry" or "normalization"
	Reason   string `json:"reason"`                      // stored as the stage error; defaults to "forced by operator"
}

var forceFailStages = map[string]models.StageName{
	"registry":      models.StageDocLookup,
	"normalization": models.StageNormalization,
}

// handleForceFail implements POST /records/:id/force-fail (§6.1, §4.9):
// sets a named stage to FAIL with an operator-supplied reason.
func (h *APIHandler) handleForceFail(c *gin.Context) {
	var req forceFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	stage, ok := forceFailStages[req.Pipeline]
	if !ok {
		respondErr(c, http.StatusBadRequest, "InvalidInput", "pipeline must be \"registry\" or \"normalization\"")
		return
	}

	r := h.getRecordOrRespond(c)
	if r == nil {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "forced by operator"
	}
	r.Stages[stage] = models.StageProgress{Status: models.StatusFail, Error: reason}
	if err := h.Deps.Records.Update(c.Request.Context(), r); err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordId": r.ID, "stage": stage, "status": models.StatusFail})
}
