package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "homesteer/internal/errors"
)

// RolloverRunner runs the nightly meal rollover on demand.
type RolloverRunner interface {
	RunNow() (int64, error)
}

// OpsHandler serves operator endpoints guarded by middleware.OpsAuthMiddleware.
type OpsHandler struct {
	runner RolloverRunner
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(runner RolloverRunner) *OpsHandler {
	return &OpsHandler{runner: runner}
}

// Rollover backfills meal placeholders for every active room
// @Summary     Run the meal rollover
// @Tags        ops
// @Produce     json
// @Param       X-API-Key header string true "Operations API key"
// @Success     200 {object} map[string]int64 "Rows created"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /internal/rollover [post]
func (h *OpsHandler) Rollover(c *gin.Context) {
	created, err := h.runner.RunNow()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}
