package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/services"
)

// --- mock deposit service ---

type mockDepositService struct {
	createFieldFn     func(actor *services.ActorContext, input services.FieldInput) (*models.CashDepositField, error)
	updateFieldFn     func(actor *services.ActorContext, fieldSlug string, input services.FieldInput) (*models.CashDepositField, error)
	deleteFieldFn     func(actor *services.ActorContext, fieldSlug string) error
	getFieldsFn       func(actor *services.ActorContext) ([]models.CashDepositField, error)
	assignDepositsFn  func(actor *services.ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.CashDepositMember, error)
	getDepositChartFn func(actor *services.ActorContext) (*services.DepositChart, error)
}

func (m *mockDepositService) CreateField(actor *services.ActorContext, input services.FieldInput) (*models.CashDepositField, error) {
	if m.createFieldFn != nil {
		return m.createFieldFn(actor, input)
	}
	return &models.CashDepositField{Title: input.Title, Description: input.Description}, nil
}

func (m *mockDepositService) UpdateField(actor *services.ActorContext, fieldSlug string, input services.FieldInput) (*models.CashDepositField, error) {
	if m.updateFieldFn != nil {
		return m.updateFieldFn(actor, fieldSlug, input)
	}
	return &models.CashDepositField{Slug: fieldSlug, Title: input.Title, Description: input.Description}, nil
}

func (m *mockDepositService) DeleteField(actor *services.ActorContext, fieldSlug string) error {
	if m.deleteFieldFn != nil {
		return m.deleteFieldFn(actor, fieldSlug)
	}
	return nil
}

func (m *mockDepositService) GetFields(actor *services.ActorContext) ([]models.CashDepositField, error) {
	if m.getFieldsFn != nil {
		return m.getFieldsFn(actor)
	}
	return []models.CashDepositField{}, nil
}

func (m *mockDepositService) AssignDeposits(actor *services.ActorContext, targetSlug string, amounts map[string]decimal.Decimal) ([]models.CashDepositMember, error) {
	if m.assignDepositsFn != nil {
		return m.assignDepositsFn(actor, targetSlug, amounts)
	}
	return []models.CashDepositMember{}, nil
}

func (m *mockDepositService) GetDepositChart(actor *services.ActorContext) (*services.DepositChart, error) {
	if m.getDepositChartFn != nil {
		return m.getDepositChartFn(actor)
	}
	return &services.DepositChart{}, nil
}

var _ services.DepositServicer = (*mockDepositService)(nil)

func setupDepositRouter(handler *DepositHandler, actor *services.ActorContext) *gin.Engine {
	r := gin.New()
	g := r.Group("", injectActor(actor))
	g.POST("/deposit-fields", handler.CreateField)
	g.GET("/deposit-fields", handler.GetFields)
	g.GET("/deposit-fields/chart", handler.GetChart)
	g.PUT("/deposit-fields/:slug", handler.UpdateField)
	g.DELETE("/deposit-fields/:slug", handler.DeleteField)
	g.PUT("/members/:slug/deposits", handler.AssignDeposits)
	return r
}

func TestDepositHandler_Fields(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupDepositRouter(NewDepositHandler(&mockDepositService{}, audit), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/deposit-fields", `{"title":"Cash","description":"hand cash"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if desc := parseJSON(t, rec)["field"].(map[string]interface{})["description"]; desc != "hand cash" {
			t.Errorf("expected description to be passed through, got %v", desc)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_DEPOSIT_FIELD" {
			t.Errorf("unexpected audit entries: %v", audit.entries)
		}
	})

	t.Run("create rejects invalid title", func(t *testing.T) {
		r := setupDepositRouter(NewDepositHandler(&mockDepositService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/deposit-fields", `{"title":"bank transfer!"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("create rejects a long description", func(t *testing.T) {
		r := setupDepositRouter(NewDepositHandler(&mockDepositService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/deposit-fields", `{"title":"Cash","description":"this description is far too long"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("create returns 403 for supervisors", func(t *testing.T) {
		svc := &mockDepositService{
			createFieldFn: func(_ *services.ActorContext, _ services.FieldInput) (*models.CashDepositField, error) {
				return nil, apperrors.ErrNotAllowed
			},
		}
		r := setupDepositRouter(NewDepositHandler(svc, &mockAuditService{}), testActor(models.RoleSupervisor))

		rec := doRequest(r, "POST", "/deposit-fields", `{"title":"Cash"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("rename returns 200", func(t *testing.T) {
		r := setupDepositRouter(NewDepositHandler(&mockDepositService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/deposit-fields/cash-1", `{"title":"Bkash"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		field := parseJSON(t, rec)["field"].(map[string]interface{})
		if field["slug"] != "cash-1" || field["title"] != "Bkash" {
			t.Errorf("unexpected field: %v", field)
		}
	})

	t.Run("delete returns 204", func(t *testing.T) {
		r := setupDepositRouter(NewDepositHandler(&mockDepositService{}, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "DELETE", "/deposit-fields/cash-1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}

func TestDepositHandler_AssignDeposits(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockDepositService{
			assignDepositsFn: func(_ *services.ActorContext, target string, amounts map[string]decimal.Decimal) ([]models.CashDepositMember, error) {
				if target != "bob-1" {
					t.Errorf("expected bob-1, got %s", target)
				}
				return []models.CashDepositMember{{Amount: amounts["cash-1"], Year: 2024, Month: 4}}, nil
			},
		}
		r := setupDepositRouter(NewDepositHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/members/bob-1/deposits", `{"amounts":{"cash-1":250}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		deposits := parseJSON(t, rec)["deposits"].([]interface{})
		if len(deposits) != 1 || deposits[0].(map[string]interface{})["amount"] != "250" {
			t.Errorf("unexpected deposits: %v", deposits)
		}
	})

	t.Run("returns 404 for unknown field", func(t *testing.T) {
		svc := &mockDepositService{
			assignDepositsFn: func(_ *services.ActorContext, _ string, _ map[string]decimal.Decimal) ([]models.CashDepositMember, error) {
				return nil, apperrors.ErrFieldNotFound
			},
		}
		r := setupDepositRouter(NewDepositHandler(svc, &mockAuditService{}), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/members/bob-1/deposits", `{"amounts":{"nope":1}}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FIELD_NOT_FOUND")
	})
}

func TestDepositHandler_GetChart(t *testing.T) {
	svc := &mockDepositService{
		getDepositChartFn: func(_ *services.ActorContext) (*services.DepositChart, error) {
			return &services.DepositChart{Year: 2024, Month: 4, RoomTotal: decimal.NewFromInt(850)}, nil
		},
	}
	r := setupDepositRouter(NewDepositHandler(svc, &mockAuditService{}), testActor(models.RoleMember))

	rec := doRequest(r, "GET", "/deposit-fields/chart", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["room_total"] != "850" || result["month"].(float64) != 4 {
		t.Errorf("unexpected chart: %v", result)
	}
}
