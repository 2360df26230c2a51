package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/services"
)

// --- mock membership service ---

type mockMembershipService struct {
	resolveActorFn    func(userID string) (*services.ActorContext, error)
	createRoomFn      func(userID, title, description string, privacy models.RoomPrivacy) (*models.Room, error)
	joinRoomFn        func(userID, roomSlug string) (*models.Membership, error)
	getRoomMembersFn  func(actor *services.ActorContext) ([]models.Membership, error)
	getMemberBySlugFn func(actor *services.ActorContext, memberSlug string) (*models.Membership, error)
	updateRoleFn      func(actor *services.ActorContext, memberSlug string, role models.Role) (*models.Membership, error)
	getSettingFn      func(roomID string) (*models.ManagerialSetting, error)
	setShoppingTypeFn func(actor *services.ActorContext, shoppingType models.ShoppingType) (*models.ManagerialSetting, error)
}

func (m *mockMembershipService) ResolveActor(userID string) (*services.ActorContext, error) {
	if m.resolveActorFn != nil {
		return m.resolveActorFn(userID)
	}
	return &services.ActorContext{}, nil
}

func (m *mockMembershipService) CreateRoom(userID, title, description string, privacy models.RoomPrivacy) (*models.Room, error) {
	if m.createRoomFn != nil {
		return m.createRoomFn(userID, title, description, privacy)
	}
	return &models.Room{}, nil
}

func (m *mockMembershipService) JoinRoom(userID, roomSlug string) (*models.Membership, error) {
	if m.joinRoomFn != nil {
		return m.joinRoomFn(userID, roomSlug)
	}
	return &models.Membership{}, nil
}

func (m *mockMembershipService) GetRoomMembers(actor *services.ActorContext) ([]models.Membership, error) {
	if m.getRoomMembersFn != nil {
		return m.getRoomMembersFn(actor)
	}
	return []models.Membership{}, nil
}

func (m *mockMembershipService) GetMemberBySlug(actor *services.ActorContext, memberSlug string) (*models.Membership, error) {
	if m.getMemberBySlugFn != nil {
		return m.getMemberBySlugFn(actor, memberSlug)
	}
	return &models.Membership{}, nil
}

func (m *mockMembershipService) UpdateRole(actor *services.ActorContext, memberSlug string, role models.Role) (*models.Membership, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(actor, memberSlug, role)
	}
	return &models.Membership{}, nil
}

func (m *mockMembershipService) GetSetting(roomID string) (*models.ManagerialSetting, error) {
	if m.getSettingFn != nil {
		return m.getSettingFn(roomID)
	}
	return &models.ManagerialSetting{RoomID: roomID}, nil
}

func (m *mockMembershipService) SetShoppingType(actor *services.ActorContext, shoppingType models.ShoppingType) (*models.ManagerialSetting, error) {
	if m.setShoppingTypeFn != nil {
		return m.setShoppingTypeFn(actor, shoppingType)
	}
	return &models.ManagerialSetting{ShoppingType: shoppingType}, nil
}

var _ services.MembershipServicer = (*mockMembershipService)(nil)

func setupRoomRouter(handler *RoomHandler, actor *services.ActorContext) *gin.Engine {
	r := gin.New()
	user := r.Group("", injectUserID(testUserID))
	user.POST("/rooms", handler.CreateRoom)
	user.POST("/rooms/:slug/join", handler.JoinRoom)

	room := r.Group("/room", injectActor(actor))
	room.GET("", handler.GetRoom)
	room.GET("/members", handler.GetMembers)
	room.PUT("/members/:slug/role", handler.UpdateRole)
	room.PUT("/settings/shopping-type", handler.SetShoppingType)
	return r
}

func TestRoomHandler_CreateRoom(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotPrivacy models.RoomPrivacy
		svc := &mockMembershipService{
			createRoomFn: func(userID, title, _ string, privacy models.RoomPrivacy) (*models.Room, error) {
				gotPrivacy = privacy
				return &models.Room{Title: title, Slug: "green-house-1", CreatorID: userID}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupRoomRouter(NewRoomHandler(svc, audit), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/rooms", `{"title":"green-house","description":"two floors","privacy":1}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		room := parseJSON(t, rec)["room"].(map[string]interface{})
		if room["slug"] != "green-house-1" || room["creator_id"] != testUserID {
			t.Errorf("unexpected room: %v", room)
		}
		if gotPrivacy != models.RoomPrivacySecret {
			t.Errorf("expected secret privacy, got %d", gotPrivacy)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_ROOM" {
			t.Errorf("expected CREATE_ROOM audit entry, got %v", audit.entries)
		}
	})

	t.Run("returns 400 on missing title", func(t *testing.T) {
		r := setupRoomRouter(NewRoomHandler(&mockMembershipService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/rooms", `{"description":"no title"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 when title is taken", func(t *testing.T) {
		svc := &mockMembershipService{
			createRoomFn: func(_, _, _ string, _ models.RoomPrivacy) (*models.Room, error) {
				return nil, apperrors.ErrDuplicateTitle
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/rooms", `{"title":"green-house"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_TITLE")
	})
}

func TestRoomHandler_JoinRoom(t *testing.T) {
	t.Run("passes the room slug", func(t *testing.T) {
		svc := &mockMembershipService{
			joinRoomFn: func(userID, roomSlug string) (*models.Membership, error) {
				if roomSlug != "green-house-1" {
					t.Errorf("expected green-house-1, got %s", roomSlug)
				}
				return &models.Membership{UserID: userID, Slug: "bob-1"}, nil
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleMember))

		rec := doRequest(r, "POST", "/rooms/green-house-1/join", "")

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 409 when already a member", func(t *testing.T) {
		svc := &mockMembershipService{
			joinRoomFn: func(_, _ string) (*models.Membership, error) {
				return nil, apperrors.ErrAlreadyMember
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleMember))

		rec := doRequest(r, "POST", "/rooms/green-house-1/join", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_MEMBER")
	})
}

func TestRoomHandler_GetRoom(t *testing.T) {
	svc := &mockMembershipService{
		getSettingFn: func(roomID string) (*models.ManagerialSetting, error) {
			return &models.ManagerialSetting{RoomID: roomID, ShoppingType: models.ShoppingTypeManager}, nil
		},
	}
	r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleMember))

	rec := doRequest(r, "GET", "/room", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	setting := result["setting"].(map[string]interface{})
	if setting["shopping_type"].(float64) != 1 {
		t.Errorf("expected shopping_type 1, got %v", setting["shopping_type"])
	}
	membership := result["membership"].(map[string]interface{})
	if membership["slug"] != "alice-1" {
		t.Errorf("expected alice-1, got %v", membership["slug"])
	}
}

func TestRoomHandler_UpdateRole(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockMembershipService{
			updateRoleFn: func(_ *services.ActorContext, slug string, role models.Role) (*models.Membership, error) {
				return &models.Membership{Slug: slug, Role: role}, nil
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/members/bob-1/role", `{"role":1}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		membership := parseJSON(t, rec)["membership"].(map[string]interface{})
		if membership["role"].(float64) != 1 {
			t.Errorf("expected role 1, got %v", membership["role"])
		}
	})

	t.Run("accepts demotion to member", func(t *testing.T) {
		var got models.Role = -1
		svc := &mockMembershipService{
			updateRoleFn: func(_ *services.ActorContext, slug string, role models.Role) (*models.Membership, error) {
				got = role
				return &models.Membership{Slug: slug, Role: role}, nil
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/members/bob-1/role", `{"role":0}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got != models.RoleMember {
			t.Errorf("expected member role, got %d", got)
		}
	})

	t.Run("returns 400 on unknown role", func(t *testing.T) {
		r := setupRoomRouter(NewRoomHandler(&mockMembershipService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/members/bob-1/role", `{"role":7}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 403 for non-managers", func(t *testing.T) {
		svc := &mockMembershipService{
			updateRoleFn: func(_ *services.ActorContext, _ string, _ models.Role) (*models.Membership, error) {
				return nil, apperrors.ErrNotAllowed
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleMember))

		rec := doRequest(r, "PUT", "/room/members/bob-1/role", `{"role":2}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_ALLOWED")
	})

	t.Run("returns 409 at the maintainer limit", func(t *testing.T) {
		svc := &mockMembershipService{
			updateRoleFn: func(_ *services.ActorContext, _ string, _ models.Role) (*models.Membership, error) {
				return nil, apperrors.ErrMaintainerLimit
			},
		}
		r := setupRoomRouter(NewRoomHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/members/bob-1/role", `{"role":1}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestRoomHandler_SetShoppingType(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupRoomRouter(NewRoomHandler(&mockMembershipService{}, audit), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/settings/shopping-type", `{"shopping_type":1}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceSlug != "green-house-1" {
			t.Errorf("expected audit entry for green-house-1, got %v", audit.entries)
		}
	})

	t.Run("returns 400 when missing", func(t *testing.T) {
		r := setupRoomRouter(NewRoomHandler(&mockMembershipService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/room/settings/shopping-type", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
