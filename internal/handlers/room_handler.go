package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homesteer/internal/models"
	"homesteer/internal/services"
)

// RoomHandler handles room and membership requests.
type RoomHandler struct {
	membershipService services.MembershipServicer
	auditService      services.AuditServicer
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(membershipService services.MembershipServicer, auditService services.AuditServicer) *RoomHandler {
	return &RoomHandler{membershipService: membershipService, auditService: auditService}
}

// CreateRoomRequest represents the request payload for creating a room
type CreateRoomRequest struct {
	Title       string             `json:"title" binding:"required,max=50"`
	Description string             `json:"description" binding:"max=250"`
	Privacy     models.RoomPrivacy `json:"privacy" binding:"oneof=0 1"`
}

// UpdateRoleRequest represents the request payload for changing a member's role
type UpdateRoleRequest struct {
	Role *models.Role `json:"role" binding:"required,member_role"`
}

// ShoppingTypeRequest represents the request payload for the room's shopping type
type ShoppingTypeRequest struct {
	ShoppingType *models.ShoppingType `json:"shopping_type" binding:"required,shopping_type"`
}

// RoomResponse is the caller's room with its setting and their membership.
type RoomResponse struct {
	Room       *models.Room              `json:"room"`
	Setting    *models.ManagerialSetting `json:"setting"`
	Membership *models.Membership        `json:"membership"`
}

// CreateRoom handles room creation
// @Summary     Create a room
// @Description Create a room; the caller becomes its Manager
// @Tags        rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRoomRequest true "Room details"
// @Success     201 {object} models.Room "Room created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Title taken or already a member"
// @Router      /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	room, err := h.membershipService.CreateRoom(userID, req.Title, req.Description, req.Privacy)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ROOM", "room", room.Slug, c.ClientIP(),
		map[string]interface{}{"title": room.Title})

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// JoinRoom handles joining an existing room
// @Summary     Join a room
// @Description Join the room identified by slug as a Member
// @Tags        rooms
// @Produce     json
// @Security    BearerAuth
// @Param       slug path string true "Room slug"
// @Success     201 {object} models.Membership "Membership created"
// @Failure     404 {object} ErrorResponse "Room not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /rooms/{slug}/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	membership, err := h.membershipService.JoinRoom(userID, c.Param("slug"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "JOIN_ROOM", "membership", membership.Slug, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"membership": membership})
}

// GetRoom returns the caller's room
// @Summary     Get my room
// @Tags        rooms
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} RoomResponse "Room, setting and membership"
// @Failure     404 {object} ErrorResponse "Not a member of any room"
// @Router      /room [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setting, err := h.membershipService.GetSetting(actor.Room.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RoomResponse{Room: actor.Room, Setting: setting, Membership: actor.Membership})
}

// GetMembers lists the members of the caller's room
// @Summary     List room members
// @Tags        rooms
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Membership "Members"
// @Router      /room/members [get]
func (h *RoomHandler) GetMembers(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.membershipService.GetRoomMembers(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// UpdateRole changes a member's role
// @Summary     Change a member's role
// @Description Managers only. A room holds at most 6 Supervisors and Managers.
// @Tags        rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       slug    path string            true "Membership slug"
// @Param       request body UpdateRoleRequest true "New role (0 member, 1 supervisor, 2 manager)"
// @Success     200 {object} models.Membership "Updated membership"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     409 {object} ErrorResponse "Maintainer limit reached"
// @Router      /room/members/{slug}/role [put]
func (h *RoomHandler) UpdateRole(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	membership, err := h.membershipService.UpdateRole(actor, c.Param("slug"), *req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "UPDATE_ROLE", "membership", membership.Slug, c.ClientIP(),
		map[string]interface{}{"role": membership.Role})

	c.JSON(http.StatusOK, gin.H{"membership": membership})
}

// SetShoppingType switches which shopping lane counts toward the grand total
// @Summary     Set the room's shopping type
// @Description Managers only. 0 individual-dependent, 1 manager-dependent.
// @Tags        rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ShoppingTypeRequest true "Shopping type"
// @Success     200 {object} models.ManagerialSetting "Updated setting"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Router      /room/settings/shopping-type [put]
func (h *RoomHandler) SetShoppingType(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ShoppingTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	setting, err := h.membershipService.SetShoppingType(actor, *req.ShoppingType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.User.ID, "SET_SHOPPING_TYPE", "room", actor.Room.Slug, c.ClientIP(),
		map[string]interface{}{"shopping_type": setting.ShoppingType})

	c.JSON(http.StatusOK, gin.H{"setting": setting})
}
