package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/catalogforge/enrichment-engine/internal/broadcast"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/metrics"
	"github.com/catalogforge/enrichment-engine/internal/workers"
)

// SetupRouter wires every §6.1 endpoint onto a gin.Engine. The public
// group holds only login; everything else requires a bearer token and
// is rate-limited per IP.
func SetupRouter(deps *workers.Deps, users *db.UserStore, batches *db.BatchStore) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var.
	// Production: ALLOWED_ORIGINS=https://app.example.com
	// Development: leave empty for *.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := NewAPIHandler(deps, users, batches)

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.POST("/auth/login", h.handleLogin)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/api/v1")
	auth.Use(h.AuthMiddleware())
	auth.Use(NewRateLimiter(60, 20).Middleware())
	{
		auth.POST("/auth/refresh", h.handleRefresh)

		auth.GET("/records/:id/result", h.handleRecordResult)
		auth.GET("/records/:id/sources", h.handleRecordSources)
		auth.GET("/records/:id/real-quality", h.handleRecordRealQuality)
		auth.GET("/records/:id/analyst-context", h.handleAnalystContext)
		auth.POST("/records/:id/force-fail", h.handleForceFail)

		pipeline := auth.Group("/pipeline")
		{
			pipeline.POST("/start-:stage", h.handleStartStage)
			pipeline.POST("/retry-failed", h.handleRetryFailed)
			pipeline.POST("/reset-stuck", h.handleResetStuck)
			pipeline.POST("/merge-duplicates", h.handleMergeDuplicates)
			pipeline.POST("/mark-error-photos-analyzed", h.handleMarkErrorPhotosAnalyzed)
			pipeline.POST("/unlock", h.handleUnlockPipelines)
			pipeline.GET("/status", h.handlePipelineStatus)
			pipeline.GET("/paused", h.handlePausedStatus)
			pipeline.POST("/:queue/pause", h.handlePauseQueue)
			pipeline.POST("/:queue/resume", h.handleResumeQueue)
			pipeline.GET("/queue-logs/:queue", h.handleQueueLogs)
			pipeline.GET("/queue-logs-stream/:queue", h.handleQueueLogsStream)
			pipeline.GET("/queue-ws/:queue", h.handleQueueWS)
		}

		auth.GET("/logs/correlation/:id", h.handleLogsByCorrelation)
		auth.GET("/logs/record/:id", h.handleLogsByRecord)
		auth.GET("/metrics/:stage", h.handleStageMetrics)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational", "engine": "enrichment-engine"})
}

func (h *APIHandler) handleQueueWS(c *gin.Context) {
	name := c.Param("queue")
	broadcast.ServeWebSocket(h.Deps.Hub, h.Deps.Logger, name)(c)
}

func (h *APIHandler) handleLogsByCorrelation(c *gin.Context) {
	entries, err := h.logsStore().ByCorrelation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *APIHandler) handleLogsByRecord(c *gin.Context) {
	entries, err := h.logsStore().ByRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *APIHandler) handleStageMetrics(c *gin.Context) {
	metrics, err := h.logsStore().MetricsForStage(c.Request.Context(), c.Param("stage"))
	if err != nil {
		respondAppErr(c, h.Deps.Logger, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *APIHandler) logsStore() *db.ProcessingLogStore {
	return h.Deps.Logs
}
