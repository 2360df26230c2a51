package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/pagination"
	"homesteer/internal/services"
)

const shoppingDateLayout = "2006-01-02"

// ShoppingHandler handles shopping requests for both lanes.
type ShoppingHandler struct {
	shoppingService services.ShoppingServicer
	auditService    services.AuditServicer
	loc             *time.Location
}

// NewShoppingHandler creates a new ShoppingHandler. Dates in requests are read in loc.
func NewShoppingHandler(shoppingService services.ShoppingServicer, auditService services.AuditServicer, loc *time.Location) *ShoppingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ShoppingHandler{shoppingService: shoppingService, auditService: auditService, loc: loc}
}

// ShoppingRequest represents the payload for creating or updating a shopping item
type ShoppingRequest struct {
	Item         string           `json:"item" binding:"required,max=15,item_name"`
	Quantity     *decimal.Decimal `json:"quantity" binding:"omitempty,gte=0" swaggertype:"number"`
	QuantityUnit *string          `json:"quantity_unit" binding:"omitempty,max=10,quantity_unit"`
	Cost         *decimal.Decimal `json:"cost" binding:"required,gte=0" swaggertype:"number"`
	Date         string           `json:"date" binding:"required,datetime=2006-01-02" example:"2024-04-10"`
}

func (h *ShoppingHandler) toInput(req ShoppingRequest) (services.ShoppingInput, error) {
	date, err := time.ParseInLocation(shoppingDateLayout, req.Date, h.loc)
	if err != nil {
		return services.ShoppingInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}
	return services.ShoppingInput{
		Item:         req.Item,
		Quantity:     req.Quantity,
		QuantityUnit: req.QuantityUnit,
		Cost:         *req.Cost,
		Date:         date,
	}, nil
}

// CreateShopping records one of the caller's own purchases
// @Summary     Add individual shopping
// @Tags        shopping
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ShoppingRequest true "Shopping item"
// @Success     201 {object} models.Shopping "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input or date outside this month"
// @Failure     409 {object} ErrorResponse "Item already listed"
// @Router      /shopping [post]
func (h *ShoppingHandler) CreateShopping(c *gin.Context) {
	h.create(c, models.ShopTypeIndividual)
}

// CreateMonthlyShopping records a purchase managed for the whole room
// @Summary     Add monthly shopping
// @Description Managers only
// @Tags        shopping
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ShoppingRequest true "Shopping item"
// @Success     201 {object} models.Shopping "Item created"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     409 {object} ErrorResponse "Item already listed"
// @Router      /shopping/monthly [post]
func (h *ShoppingHandler) CreateMonthlyShopping(c *gin.Context) {
	h.create(c, models.ShopTypeMonthly)
}

// UpdateShopping edits one of the caller's own purchases
// @Summary     Update individual shopping
// @Tags        shopping
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string          true "Shopping slug"
// @Param       request body ShoppingRequest true "Shopping item"
// @Success     200 {object} models.Shopping "Item updated"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /shopping/{slug} [put]
func (h *ShoppingHandler) UpdateShopping(c *gin.Context) {
	h.update(c, models.ShopTypeIndividual)
}

// UpdateMonthlyShopping edits a room-managed purchase
// @Summary     Update monthly shopping
// @Description Managers only
// @Tags        shopping
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string          true "Shopping slug"
// @Param       request body ShoppingRequest true "Shopping item"
// @Success     200 {object} models.Shopping "Item updated"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /shopping/monthly/{slug} [put]
func (h *ShoppingHandler) UpdateMonthlyShopping(c *gin.Context) {
	h.update(c, models.ShopTypeMonthly)
}

// DeleteShopping removes one of the caller's own purchases
// @Summary     Delete individual shopping
// @Tags        shopping
// @Security    BearerAuth
// @Param       slug path string true "Shopping slug"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /shopping/{slug} [delete]
func (h *ShoppingHandler) DeleteShopping(c *gin.Context) {
	h.remove(c, models.ShopTypeIndividual)
}

// DeleteMonthlyShopping removes a room-managed purchase
// @Summary     Delete monthly shopping
// @Description Managers only
// @Tags        shopping
// @Security    BearerAuth
// @Param       slug path string true "Shopping slug"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /shopping/monthly/{slug} [delete]
func (h *ShoppingHandler) DeleteMonthlyShopping(c *gin.Context) {
	h.remove(c, models.ShopTypeMonthly)
}

// GetChart lists this month's purchases in the room's active lane
// @Summary     Shopping chart
// @Description Supervisors and Managers only
// @Tags        shopping
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Shopping] "Shopping items"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Router      /shopping/chart [get]
func (h *ShoppingHandler) GetChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	items, err := h.shoppingService.GetShoppingChart(actor, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *ShoppingHandler) create(c *gin.Context, shopType models.ShopType) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ShoppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := h.toInput(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	shopping, err := h.shoppingService.CreateShopping(actor, shopType, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "CREATE_SHOPPING", "shopping", shopping.Slug, c.ClientIP(),
		map[string]interface{}{"item": shopping.Item, "cost": shopping.Cost.String(), "shop_type": shopType})

	c.JSON(http.StatusCreated, gin.H{"shopping": shopping})
}

func (h *ShoppingHandler) update(c *gin.Context, shopType models.ShopType) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ShoppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := h.toInput(req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	shopping, err := h.shoppingService.UpdateShopping(actor, shopType, c.Param("slug"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "UPDATE_SHOPPING", "shopping", shopping.Slug, c.ClientIP(),
		map[string]interface{}{"item": shopping.Item, "cost": shopping.Cost.String(), "shop_type": shopType})

	c.JSON(http.StatusOK, gin.H{"shopping": shopping})
}

func (h *ShoppingHandler) remove(c *gin.Context, shopType models.ShopType) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	slug := c.Param("slug")
	if err := h.shoppingService.DeleteShopping(actor, shopType, slug); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "DELETE_SHOPPING", "shopping", slug, c.ClientIP(),
		map[string]interface{}{"shop_type": shopType})

	c.Status(http.StatusNoContent)
}
