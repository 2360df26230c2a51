package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homesteer/internal/services"
)

// DepositHandler handles cash deposit requests.
type DepositHandler struct {
	depositService services.DepositServicer
	auditService   services.AuditServicer
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositService services.DepositServicer, auditService services.AuditServicer) *DepositHandler {
	return &DepositHandler{depositService: depositService, auditService: auditService}
}

// DepositFieldRequest represents the payload for creating or updating a deposit field
type DepositFieldRequest struct {
	Title       string `json:"title" binding:"required,max=20,field_title"`
	Description string `json:"description" binding:"max=30"`
}

// CreateField handles deposit field creation
// @Summary     Create a deposit field
// @Description Managers only. Seeds this month's zero row for every member.
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DepositFieldRequest true "Deposit field"
// @Success     201 {object} models.CashDepositField "Field created"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     409 {object} ErrorResponse "Title taken"
// @Router      /deposit-fields [post]
func (h *DepositHandler) CreateField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DepositFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	field, err := h.depositService.CreateField(actor, services.FieldInput{Title: req.Title, Description: req.Description})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CREATE_DEPOSIT_FIELD", "deposit_field", field.Slug, c.ClientIP(),
		map[string]interface{}{"title": field.Title})

	c.JSON(http.StatusCreated, gin.H{"field": field})
}

// GetFields lists the room's deposit fields
// @Summary     List deposit fields
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.CashDepositField "Deposit fields"
// @Router      /deposit-fields [get]
func (h *DepositHandler) GetFields(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fields, err := h.depositService.GetFields(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// UpdateField renames a deposit field or changes its description
// @Summary     Update a deposit field
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string              true "Deposit field slug"
// @Param       request body DepositFieldRequest true "Deposit field"
// @Success     200 {object} models.CashDepositField "Field updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /deposit-fields/{slug} [put]
func (h *DepositHandler) UpdateField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DepositFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	field, err := h.depositService.UpdateField(actor, c.Param("slug"), services.FieldInput{Title: req.Title, Description: req.Description})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "UPDATE_DEPOSIT_FIELD", "deposit_field", field.Slug, c.ClientIP(),
		map[string]interface{}{"title": field.Title, "description": field.Description})

	c.JSON(http.StatusOK, gin.H{"field": field})
}

// DeleteField removes a deposit field and its member rows
// @Summary     Delete a deposit field
// @Tags        deposits
// @Security    BearerAuth
// @Param       slug path string true "Deposit field slug"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /deposit-fields/{slug} [delete]
func (h *DepositHandler) DeleteField(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slug := c.Param("slug")
	if err := h.depositService.DeleteField(actor, slug); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "DELETE_DEPOSIT_FIELD", "deposit_field", slug, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// AssignDeposits records what a member deposited this month
// @Summary     Assign member deposits
// @Description Managers only
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string               true "Membership slug"
// @Param       request body AssignAmountsRequest true "Amounts keyed by deposit field slug"
// @Success     200 {array} models.CashDepositMember "Updated deposits"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Member or field not found"
// @Router      /members/{slug}/deposits [put]
func (h *DepositHandler) AssignDeposits(c *gin.Context) {
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
	deposits, err := h.depositService.AssignDeposits(actor, target, req.Amounts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "ASSIGN_DEPOSITS", "membership", target, c.ClientIP(), amountChanges(req.Amounts))

	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

// GetChart returns this month's deposits for the room
// @Summary     Deposit chart
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DepositChart "Deposit chart"
// @Router      /deposit-fields/chart [get]
func (h *DepositHandler) GetChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.depositService.GetDepositChart(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}
