package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"homesteer/internal/services"
)

// CostSectorHandler handles cost sector requests.
type CostSectorHandler struct {
	costService  services.CostSectorServicer
	auditService services.AuditServicer
}

// NewCostSectorHandler creates a new CostSectorHandler.
func NewCostSectorHandler(costService services.CostSectorServicer, auditService services.AuditServicer) *CostSectorHandler {
	return &CostSectorHandler{costService: costService, auditService: auditService}
}

// FieldRequest represents the payload for creating or renaming a cost sector
type FieldRequest struct {
	Title       string `json:"title" binding:"required,max=20,field_title"`
	Description string `json:"description" binding:"max=30"`
}

// AssignAmountsRequest maps field slugs to the amount assigned to one member
type AssignAmountsRequest struct {
	Amounts map[string]decimal.Decimal `json:"amounts" binding:"required,min=1,dive,gte=0" swaggertype:"object,number"`
}

// CreateField handles cost sector creation
// @Summary     Create a cost sector
// @Description Managers and the room creator only. Seeds a zero row for every member.
// @Tags        cost-sectors
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FieldRequest true "Cost sector"
// @Success     201 {object} models.TrackerField "Cost sector created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     409 {object} ErrorResponse "Title taken"
// @Router      /cost-sectors [post]
func (h *CostSectorHandler) CreateField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	field, err := h.costService.CreateField(actor, services.FieldInput{Title: req.Title, Description: req.Description})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CREATE_COST_SECTOR", "tracker_field", field.Slug, c.ClientIP(),
		map[string]interface{}{"title": field.Title})

	c.JSON(http.StatusCreated, gin.H{"field": field})
}

// GetFields lists the room's cost sectors
// @Summary     List cost sectors
// @Tags        cost-sectors
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.TrackerField "Cost sectors"
// @Router      /cost-sectors [get]
func (h *CostSectorHandler) GetFields(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fields, err := h.costService.GetFields(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// UpdateField renames a cost sector
// @Summary     Update a cost sector
// @Tags        cost-sectors
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string       true "Cost sector slug"
// @Param       request body FieldRequest true "Cost sector"
// @Success     200 {object} models.TrackerField "Cost sector updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Title taken"
// @Router      /cost-sectors/{slug} [put]
func (h *CostSectorHandler) UpdateField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	field, err := h.costService.UpdateField(actor, c.Param("slug"), services.FieldInput{Title: req.Title, Description: req.Description})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "UPDATE_COST_SECTOR", "tracker_field", field.Slug, c.ClientIP(),
		map[string]interface{}{"title": field.Title, "description": field.Description})

	c.JSON(http.StatusOK, gin.H{"field": field})
}

// DeleteField removes a cost sector and every member's allocation of it
// @Summary     Delete a cost sector
// @Tags        cost-sectors
// @Security    BearerAuth
// @Param       slug path string true "Cost sector slug"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /cost-sectors/{slug} [delete]
func (h *CostSectorHandler) DeleteField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slug := c.Param("slug")
	if err := h.costService.DeleteField(actor, slug); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "DELETE_COST_SECTOR", "tracker_field", slug, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// AssignCosts sets a member's share of one or more cost sectors
// @Summary     Assign member costs
// @Description Supervisors and Managers only
// @Tags        cost-sectors
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string               true "Membership slug"
// @Param       request body AssignAmountsRequest true "Amounts keyed by cost sector slug"
// @Success     200 {array} models.MemberTrack "Updated allocations"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Member or field not found"
// @Router      /members/{slug}/costs [put]
func (h *CostSectorHandler) AssignCosts(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssignAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	target := c.Param("slug")
	tracks, err := h.costService.AssignCosts(actor, target, req.Amounts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "ASSIGN_COSTS", "membership", target, c.ClientIP(), amountChanges(req.Amounts))

	c.JSON(http.StatusOK, gin.H{"costs": tracks})
}

// GetChart returns the room's cost allocation matrix
// @Summary     Cost chart
// @Description Supervisors and Managers only
// @Tags        cost-sectors
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CostChart "Cost chart"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Router      /cost-sectors/chart [get]
func (h *CostSectorHandler) GetChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.costService.GetCostChart(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// amountChanges renders an amounts map for the audit log.
func amountChanges(amounts map[string]decimal.Decimal) map[string]interface{} {
	changes := make(map[string]interface{}, len(amounts))
	for slug, amount := range amounts {
		changes[slug] = amount.String()
	}
	return changes
}
