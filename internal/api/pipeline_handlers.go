package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/broadcast"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/internal/workers"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

type startStageRequest struct {
	Force bool   `json:"force"`
	Scope string `json:"scope"` // "batch" (default, PENDING only) or "all" (every status except PROCESSING)
}

// handleStartStage implements POST /pipeline/start-<stage> (§6.1):
// scans candidate records, opens a Batch, and enqueues one job per
// candidate carrying that batch's id.
func (h *APIHandler) handleStartStage(c *gin.Context) {
	key := stageKey(c.Param("stage"))
	desc, ok := stageDescriptors[key]
	if !ok {
		respondErr(c, http.StatusBadRequest, "InvalidInput", "unknown stage "+string(key))
		return
	}

	var req startStageRequest
	_ = c.ShouldBindJSON(&req)
	if req.Scope == "" {
		req.Scope = "batch"
	}

	ctx := c.Request.Context()
	statuses := []models.StageStatus{models.StatusPending}
	if req.Force || req.Scope == "all" {
		statuses = []models.StageStatus{
			models.StatusPending, models.StatusSuccess, models.StatusFail,
			models.StatusIncomplete, models.StatusNotApplicable,
		}
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, st := range statuses {
		batchIDs, err := h.Deps.Records.ListByStageStatus(ctx, desc.stageName, st, h.Deps.Cfg.MaxScanBatchSize)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
		for _, id := range batchIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	b, err := h.Deps.Ledger.Start(ctx, desc.batchKind, len(ids), "start-"+string(key))
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	for i, id := range ids {
		payload := workers.JobPayload{RecordID: id, BatchID: b.ID, Index: i}
		if err := enqueueStage(ctx, h.Deps, key, payload, queue.JobOptions{}); err != nil {
			h.Deps.Logger.Warn("failed to enqueue job during start-stage", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"batchId":      b.ID,
		"total":        len(ids),
		"reprocessing": req.Force || req.Scope == "all",
		"scope":        req.Scope,
	})
}

// handleRetryFailed implements POST /pipeline/retry-failed (§6.1): clears
// the analysis stage's FAIL status and re-enqueues those records.
func (h *APIHandler) handleRetryFailed(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := h.Deps.Records.ListByStageStatus(ctx, models.StageAnalysis, models.StatusFail, h.Deps.Cfg.MaxScanBatchSize)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	b, err := h.Deps.Ledger.Start(ctx, models.BatchAnalysis, len(ids), "retry-failed")
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	for i, id := range ids {
		r, err := h.Deps.Records.Get(ctx, id)
		if err != nil {
			continue
		}
		r.Stages[models.StageAnalysis] = models.StageProgress{Status: models.StatusPending}
		if err := h.Deps.Records.Update(ctx, r); err != nil {
			h.Deps.Logger.Warn("failed to clear failed analysis before retry", zap.Error(err))
			continue
		}
		payload := workers.JobPayload{RecordID: id, BatchID: b.ID, Index: i}
		if err := h.Deps.Queue.Add(ctx, queue.Analysis, workers.AnalysisArgs{JobPayload: payload}, queue.JobOptions{}); err != nil {
			h.Deps.Logger.Warn("failed to re-enqueue analysis", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"batchId": b.ID, "total": len(ids)})
}

func (h *APIHandler) handlePauseQueue(c *gin.Context) {
	name := c.Param("queue")
	if err := h.Deps.Queue.Pause(c.Request.Context(), name); err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": name, "paused": true})
}

func (h *APIHandler) handleResumeQueue(c *gin.Context) {
	name := c.Param("queue")
	if err := h.Deps.Queue.Resume(c.Request.Context(), name); err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": name, "paused": false})
}

func (h *APIHandler) handlePausedStatus(c *gin.Context) {
	ctx := c.Request.Context()
	out := make(map[string]bool, len(queue.AllQueues))
	for _, q := range queue.AllQueues {
		paused, err := h.Deps.Queue.IsPaused(ctx, q)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
		out[q] = paused
	}
	c.JSON(http.StatusOK, out)
}

// handlePipelineStatus implements GET /pipeline/status: aggregate queue
// counts plus per-stage database counts (§6.1).
func (h *APIHandler) handlePipelineStatus(c *gin.Context) {
	ctx := c.Request.Context()

	queues := make(map[string]queue.Counts, len(queue.AllQueues))
	for _, q := range queue.AllQueues {
		counts, err := h.Deps.Queue.Counts(ctx, q)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
		queues[q] = counts
	}

	stages := make(map[models.StageName]map[models.StageStatus]int, len(allStages))
	for _, s := range allStages {
		counts, err := h.Deps.Records.CountByStageStatus(ctx, s)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
		stages[s] = counts
	}

	c.JSON(http.StatusOK, gin.H{"queues": queues, "stages": stages})
}

var allStages = []models.StageName{
	models.StageDocLookup, models.StageNormalization, models.StageGeocoding,
	models.StagePlaces, models.StageAnalysis, models.StageDuplicateDetection, models.StageAnalyst,
}

var queueToBatchKind = map[string]models.BatchKind{
	queue.DocLookup:     models.BatchDoc,
	queue.Normalization: models.BatchNormalization,
	queue.Geocoding:      models.BatchGeocoding,
	queue.Places:         models.BatchPlaces,
	queue.Analysis:       models.BatchAnalysis,
	queue.Analyst:        models.BatchAnalyst,
}

// handleQueueLogs implements GET /pipeline/queue-logs/<queue> (§6.1):
// recent completed/failed/active jobs plus the 5 most recent batches.
func (h *APIHandler) handleQueueLogs(c *gin.Context) {
	name := c.Param("queue")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}
	ctx := c.Request.Context()

	completed, err := h.Deps.Queue.GetCompleted(ctx, name, limit)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	failed, err := h.Deps.Queue.GetFailed(ctx, name, limit)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	active, err := h.Deps.Queue.GetActive(ctx, name, limit)
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}

	var batches []*models.Batch
	if kind, ok := queueToBatchKind[name]; ok {
		batches, err = h.Batches.ListByKind(ctx, kind, 5)
		if err != nil {
			respondAppErr(c, h.Deps.Logger, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"completed": completed,
		"failed":    failed,
		"active":    active,
		"batches":   batches,
	})
}

// handleQueueLogsStream implements GET /pipeline/queue-logs-stream/<queue>
// (§6.1) by delegating straight to the broadcaster's SSE writer.
func (h *APIHandler) handleQueueLogsStream(c *gin.Context) {
	name := c.Param("queue")
	broadcast.ServeSSE(h.Deps.Hub, name)(c)
}
