package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homesteer/internal/services"
)

// TotalsHandler serves the running totals.
type TotalsHandler struct {
	totalsService services.TotalsServicer
}

// NewTotalsHandler creates a new TotalsHandler.
func NewTotalsHandler(totalsService services.TotalsServicer) *TotalsHandler {
	return &TotalsHandler{totalsService: totalsService}
}

// GetTotals returns every total for the caller and their room this month
// @Summary     Ledger totals
// @Tags        totals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LedgerTotals "Totals"
// @Failure     404 {object} ErrorResponse "Not a member of any room"
// @Router      /totals [get]
func (h *TotalsHandler) GetTotals(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.totalsService.Summary(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}
