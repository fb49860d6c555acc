// Package api implements the HTTP surface of §6.1: a gin.Engine wired
// to the same Deps the stage workers run against, generalizing the
// teacher's single-domain APIHandler into the enrichment pipeline's
// control-plane and read endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/workers"
)

// APIHandler holds every collaborator a handler needs. It wraps the
// same *workers.Deps the pipeline runs against plus the read-only
// stores the stage workers never touch directly.
type APIHandler struct {
	Deps    *workers.Deps
	Users   *db.UserStore
	Batches *db.BatchStore
}

func NewAPIHandler(deps *workers.Deps, users *db.UserStore, batches *db.BatchStore) *APIHandler {
	return &APIHandler{Deps: deps, Users: users, Batches: batches}
}

// respondErr writes the {success:false, error, details?} envelope every
// endpoint uses for failures (§7).
func respondErr(c *gin.Context, status int, message string, details string) {
	body := gin.H{"success": false, "error": message}
	if details != "" {
		body["details"] = details
	}
	c.JSON(status, body)
}

// respondAppErr maps an *apperr.AppError (or a generic error) to its
// taxonomy status code.
func respondAppErr(c *gin.Context, logger *zap.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		respondErr(c, ae.StatusCode, string(ae.Kind), ae.Message)
		return
	}
	logger.Error("unhandled error in handler", zap.Error(err))
	respondErr(c, http.StatusInternalServerError, "Internal", err.Error())
}
