package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"homesteer/internal/services"
)

// MealHandler handles meal ledger requests.
type MealHandler struct {
	mealService  services.MealServicer
	auditService services.AuditServicer
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(mealService services.MealServicer, auditService services.AuditServicer) *MealHandler {
	return &MealHandler{mealService: mealService, auditService: auditService}
}

// CreateMealRequest represents the payload for today's meal entry.
type CreateMealRequest struct {
	MealToday      *decimal.Decimal `json:"meal_today" binding:"required,gte=0,lte=99.99" swaggertype:"number"`
	MealNextDay    *decimal.Decimal `json:"meal_next_day" binding:"required,gte=0,lte=99.99" swaggertype:"number"`
	AutoEntryValue *decimal.Decimal `json:"auto_entry_value" binding:"omitempty,gte=0,lte=99.99" swaggertype:"number"`
}

// UpdateMealRequest represents the payload for updating today's meal entry.
type UpdateMealRequest struct {
	MealNextDay    *decimal.Decimal `json:"meal_next_day" binding:"required,gte=0,lte=99.99" swaggertype:"number"`
	AutoEntryValue *decimal.Decimal `json:"auto_entry_value" binding:"omitempty,gte=0,lte=99.99" swaggertype:"number"`
}

// OverrideMealRequest represents a maintainer's direct correction of a meal.
type OverrideMealRequest struct {
	MealToday *decimal.Decimal `json:"meal_today" binding:"required,gte=0,lte=99.99" swaggertype:"number"`
}

// MealChangeRequest asks another member to approve a new meal value.
type MealChangeRequest struct {
	MealShouldBe *decimal.Decimal `json:"meal_should_be" binding:"required,gte=0,lte=99.99" swaggertype:"number"`
	RequestTo    string           `json:"request_to" binding:"required"`
}

// CreateToday handles today's meal entry
// @Summary     Enter today's meals
// @Description Records today's and tomorrow's meals, optionally switching on auto entry
// @Tags        meals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMealRequest true "Meal counts"
// @Success     201 {object} services.MealEntryResult "Entry recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Entry already exists"
// @Failure     503 {object} ErrorResponse "Maintenance window"
// @Router      /meals [post]
func (h *MealHandler) CreateToday(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.mealService.CreateTodayEntry(actor, services.MealEntryInput{
		MealToday:      *req.MealToday,
		MealNextDay:    *req.MealNextDay,
		AutoEntryValue: req.AutoEntryValue,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CREATE_MEAL", "meal", result.Today.Slug, c.ClientIP(),
		map[string]interface{}{"meal_today": req.MealToday.String(), "meal_next_day": req.MealNextDay.String()})

	c.JSON(http.StatusCreated, result)
}

// UpdateToday handles updating tomorrow's meals from today's entry
// @Summary     Update today's entry
// @Tags        meals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateMealRequest true "Meal counts"
// @Success     200 {object} services.MealEntryResult "Entry updated"
// @Failure     404 {object} ErrorResponse "No entry today"
// @Failure     503 {object} ErrorResponse "Maintenance window"
// @Router      /meals/today [put]
func (h *MealHandler) UpdateToday(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.mealService.UpdateTodayEntry(actor, services.MealUpdateInput{
		MealNextDay:    *req.MealNextDay,
		AutoEntryValue: req.AutoEntryValue,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "UPDATE_MEAL", "meal", result.Today.Slug, c.ClientIP(),
		map[string]interface{}{"meal_next_day": req.MealNextDay.String()})

	c.JSON(http.StatusOK, result)
}

// GetToday returns the caller's meal row for today
// @Summary     Get today's entry
// @Tags        meals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Meal "Today's meal"
// @Failure     404 {object} ErrorResponse "No entry today"
// @Router      /meals/today [get]
func (h *MealHandler) GetToday(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	meal, err := h.mealService.GetTodayEntry(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// GetChart returns the room's meal chart for the current month
// @Summary     Meal chart
// @Tags        meals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.MealChart "Meal chart"
// @Router      /meals/chart [get]
func (h *MealHandler) GetChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.mealService.GetMealChart(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// GetRequestCandidates lists who may approve the caller's meal change requests
// @Summary     Request candidates
// @Tags        meals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Membership "Candidates"
// @Router      /meals/request-candidates [get]
func (h *MealHandler) GetRequestCandidates(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	candidates, err := h.mealService.RequestCandidates(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// Override lets a manager correct another member's meal for today
// @Summary     Override a meal
// @Tags        meals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string              true "Meal slug"
// @Param       request body OverrideMealRequest true "New value"
// @Success     200 {object} models.Meal "Updated meal"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Router      /meals/{slug}/override [put]
func (h *MealHandler) Override(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OverrideMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	meal, err := h.mealService.AdminOverrideEntry(actor, c.Param("slug"), *req.MealToday)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "OVERRIDE_MEAL", "meal", meal.Slug, c.ClientIP(),
		map[string]interface{}{"meal_today": req.MealToday.String()})

	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// RequestChange asks a room-mate to approve a change to one of the caller's meals
// @Summary     Request a meal change
// @Tags        meal-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string            true "Meal slug"
// @Param       request body MealChangeRequest true "Requested value and approver"
// @Success     201 {object} models.MealUpdateRequest "Request created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Router      /meals/{slug}/requests [post]
func (h *MealHandler) RequestChange(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MealChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	request, err := h.mealService.RequestChange(actor, c.Param("slug"), *req.MealShouldBe, req.RequestTo)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "REQUEST_MEAL_CHANGE", "meal_request", request.Slug, c.ClientIP(),
		map[string]interface{}{"meal_should_be": req.MealShouldBe.String(), "request_to": req.RequestTo})

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ConfirmChange applies a pending request addressed to the caller
// @Summary     Confirm a meal change request
// @Tags        meal-requests
// @Produce     json
// @Security    BearerAuth
// @Param       slug path string true "Meal slug"
// @Success     200 {object} models.Meal "Updated meal"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Router      /meals/{slug}/requests/confirm [post]
func (h *MealHandler) ConfirmChange(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	meal, err := h.mealService.ConfirmChange(actor, c.Param("slug"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CONFIRM_MEAL_CHANGE", "meal", meal.Slug, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// DenyChange rejects a pending request addressed to the caller
// @Summary     Deny a meal change request
// @Tags        meal-requests
// @Produce     json
// @Security    BearerAuth
// @Param       slug path string true "Meal slug"
// @Success     204 "Request denied"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Router      /meals/{slug}/requests/deny [post]
func (h *MealHandler) DenyChange(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slug := c.Param("slug")
	if err := h.mealService.DenyChange(actor, slug); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "DENY_MEAL_CHANGE", "meal_request", slug, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// CancelChange withdraws the caller's own pending request
// @Summary     Cancel a meal change request
// @Tags        meal-requests
// @Produce     json
// @Security    BearerAuth
// @Param       slug path string true "Meal slug"
// @Success     204 "Request cancelled"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Router      /meals/{slug}/requests [delete]
func (h *MealHandler) CancelChange(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slug := c.Param("slug")
	if err := h.mealService.CancelChange(actor, slug); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CANCEL_MEAL_CHANGE", "meal_request", slug, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetPendingRequests lists requests waiting for the caller's decision
// @Summary     Pending meal requests
// @Tags        meal-requests
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.MealUpdateRequest "Pending requests"
// @Router      /meal-requests [get]
func (h *MealHandler) GetPendingRequests(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requests, err := h.mealService.GetPendingRequests(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
