package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/models"
	"homesteer/internal/pagination"
	"homesteer/internal/services"
)

// --- mock shopping service ---

type mockShoppingService struct {
	createShoppingFn   func(actor *services.ActorContext, shopType models.ShopType, input services.ShoppingInput) (*models.Shopping, error)
	updateShoppingFn   func(actor *services.ActorContext, shopType models.ShopType, slug string, input services.ShoppingInput) (*models.Shopping, error)
	deleteShoppingFn   func(actor *services.ActorContext, shopType models.ShopType, slug string) error
	getShoppingChartFn func(actor *services.ActorContext, page pagination.PageRequest) (*pagination.PageResponse[models.Shopping], error)
}

func (m *mockShoppingService) CreateShopping(actor *services.ActorContext, shopType models.ShopType, input services.ShoppingInput) (*models.Shopping, error) {
	if m.createShoppingFn != nil {
		return m.createShoppingFn(actor, shopType, input)
	}
	return &models.Shopping{Item: input.Item, Cost: input.Cost, ShopType: shopType}, nil
}

func (m *mockShoppingService) UpdateShopping(actor *services.ActorContext, shopType models.ShopType, slug string, input services.ShoppingInput) (*models.Shopping, error) {
	if m.updateShoppingFn != nil {
		return m.updateShoppingFn(actor, shopType, slug, input)
	}
	return &models.Shopping{Slug: slug, Item: input.Item, Cost: input.Cost, ShopType: shopType}, nil
}

func (m *mockShoppingService) DeleteShopping(actor *services.ActorContext, shopType models.ShopType, slug string) error {
	if m.deleteShoppingFn != nil {
		return m.deleteShoppingFn(actor, shopType, slug)
	}
	return nil
}

func (m *mockShoppingService) GetShoppingChart(actor *services.ActorContext, page pagination.PageRequest) (*pagination.PageResponse[models.Shopping], error) {
	if m.getShoppingChartFn != nil {
		return m.getShoppingChartFn(actor, page)
	}
	resp := pagination.NewPageResponse([]models.Shopping{}, 1, 20, 0)
	return &resp, nil
}

var _ services.ShoppingServicer = (*mockShoppingService)(nil)

func setupShoppingRouter(handler *ShoppingHandler, actor *services.ActorContext) *gin.Engine {
	r := gin.New()
	g := r.Group("", injectActor(actor))
	g.POST("/shopping", handler.CreateShopping)
	g.POST("/shopping/monthly", handler.CreateMonthlyShopping)
	g.GET("/shopping/chart", handler.GetChart)
	g.PUT("/shopping/:slug", handler.UpdateShopping)
	g.DELETE("/shopping/:slug", handler.DeleteShopping)
	g.PUT("/shopping/monthly/:slug", handler.UpdateMonthlyShopping)
	g.DELETE("/shopping/monthly/:slug", handler.DeleteMonthlyShopping)
	return r
}

func TestShoppingHandler_Create(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	t.Run("parses the date in the room timezone", func(t *testing.T) {
		var got services.ShoppingInput
		var gotType models.ShopType = -1
		svc := &mockShoppingService{
			createShoppingFn: func(_ *services.ActorContext, shopType models.ShopType, input services.ShoppingInput) (*models.Shopping, error) {
				got, gotType = input, shopType
				return &models.Shopping{Item: input.Item, Slug: "rice-1", Cost: input.Cost}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupShoppingRouter(NewShoppingHandler(svc, audit, loc), testActor(models.RoleMember))

		rec := doRequest(r, "POST", "/shopping",
			`{"item":"rice","quantity":5,"quantity_unit":"KG","cost":"12.50","date":"2024-04-10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != models.ShopTypeIndividual {
			t.Errorf("expected individual lane, got %d", gotType)
		}
		want := time.Date(2024, time.April, 10, 0, 0, 0, 0, loc)
		if !got.Date.Equal(want) {
			t.Errorf("expected date %v, got %v", want, got.Date)
		}
		if got.Quantity == nil || !got.Quantity.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected quantity 5, got %v", got.Quantity)
		}
		if got.QuantityUnit == nil || *got.QuantityUnit != "KG" {
			t.Errorf("expected unit KG, got %v", got.QuantityUnit)
		}
		if !got.Cost.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("expected cost 12.5, got %s", got.Cost)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceSlug != "rice-1" {
			t.Errorf("unexpected audit entries: %v", audit.entries)
		}
	})

	t.Run("monthly lane", func(t *testing.T) {
		var gotType models.ShopType = -1
		svc := &mockShoppingService{
			createShoppingFn: func(_ *services.ActorContext, shopType models.ShopType, input services.ShoppingInput) (*models.Shopping, error) {
				gotType = shopType
				return &models.Shopping{Item: input.Item}, nil
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, loc), testActor(models.RoleManager))

		rec := doRequest(r, "POST", "/shopping/monthly", `{"item":"oil","cost":3,"date":"2024-04-10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != models.ShopTypeMonthly {
			t.Errorf("expected monthly lane, got %d", gotType)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing item", `{"cost":1,"date":"2024-04-10"}`},
		{"item with spaces", `{"item":"brown rice","cost":1,"date":"2024-04-10"}`},
		{"item too long", `{"item":"abcdefghijklmnop","cost":1,"date":"2024-04-10"}`},
		{"missing cost", `{"item":"rice","date":"2024-04-10"}`},
		{"negative cost", `{"item":"rice","cost":-1,"date":"2024-04-10"}`},
		{"unit with digits", `{"item":"rice","quantity":1,"quantity_unit":"kg2","cost":1,"date":"2024-04-10"}`},
		{"bad date", `{"item":"rice","cost":1,"date":"10/04/2024"}`},
		{"missing date", `{"item":"rice","cost":1}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupShoppingRouter(NewShoppingHandler(&mockShoppingService{}, &mockAuditService{}, loc), testActor(models.RoleMember))

			rec := doRequest(r, "POST", "/shopping", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 400 on date outside this month", func(t *testing.T) {
		svc := &mockShoppingService{
			createShoppingFn: func(_ *services.ActorContext, _ models.ShopType, _ services.ShoppingInput) (*models.Shopping, error) {
				return nil, apperrors.ErrDateOutOfMonth
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, loc), testActor(models.RoleMember))

		rec := doRequest(r, "POST", "/shopping", `{"item":"rice","cost":1,"date":"2024-03-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DATE_OUT_OF_MONTH")
	})
}

func TestShoppingHandler_UpdateAndDelete(t *testing.T) {
	t.Run("update passes lane and slug", func(t *testing.T) {
		svc := &mockShoppingService{
			updateShoppingFn: func(_ *services.ActorContext, shopType models.ShopType, slug string, input services.ShoppingInput) (*models.Shopping, error) {
				if shopType != models.ShopTypeMonthly || slug != "oil-1" {
					t.Errorf("unexpected update %d %s", shopType, slug)
				}
				return &models.Shopping{Slug: slug, Item: input.Item, Cost: input.Cost}, nil
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, nil), testActor(models.RoleManager))

		rec := doRequest(r, "PUT", "/shopping/monthly/oil-1", `{"item":"oil","cost":4,"date":"2024-04-11"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("update of someone else's item returns 403", func(t *testing.T) {
		svc := &mockShoppingService{
			updateShoppingFn: func(_ *services.ActorContext, _ models.ShopType, _ string, _ services.ShoppingInput) (*models.Shopping, error) {
				return nil, apperrors.ErrNotAllowed
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, nil), testActor(models.RoleMember))

		rec := doRequest(r, "PUT", "/shopping/rice-1", `{"item":"rice","cost":4,"date":"2024-04-11"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("delete individual returns 204", func(t *testing.T) {
		var gotType models.ShopType = -1
		svc := &mockShoppingService{
			deleteShoppingFn: func(_ *services.ActorContext, shopType models.ShopType, _ string) error {
				gotType = shopType
				return nil
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, nil), testActor(models.RoleMember))

		rec := doRequest(r, "DELETE", "/shopping/rice-1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if gotType != models.ShopTypeIndividual {
			t.Errorf("expected individual lane, got %d", gotType)
		}
	})

	t.Run("delete of unknown item returns 404", func(t *testing.T) {
		svc := &mockShoppingService{
			deleteShoppingFn: func(_ *services.ActorContext, _ models.ShopType, _ string) error {
				return apperrors.ErrShoppingNotFound
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, nil), testActor(models.RoleManager))

		rec := doRequest(r, "DELETE", "/shopping/monthly/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SHOPPING_NOT_FOUND")
	})
}

func TestShoppingHandler_GetChart(t *testing.T) {
	t.Run("passes paging", func(t *testing.T) {
		svc := &mockShoppingService{
			getShoppingChartFn: func(_ *services.ActorContext, page pagination.PageRequest) (*pagination.PageResponse[models.Shopping], error) {
				if page.Page != 2 || page.PageSize != 5 {
					t.Errorf("unexpected page request %+v", page)
				}
				resp := pagination.NewPageResponse([]models.Shopping{{Slug: "rice-1"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupShoppingRouter(NewShoppingHandler(svc, &mockAuditService{}, nil), testActor(models.RoleSupervisor))

		rec := doRequest(r, "GET", "/shopping/chart?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_pages"].(float64) != 2 {
			t.Errorf("expected 2 pages, got %v", result["total_pages"])
		}
	})

	t.Run("rejects oversized pages", func(t *testing.T) {
		r := setupShoppingRouter(NewShoppingHandler(&mockShoppingService{}, &mockAuditService{}, nil), testActor(models.RoleSupervisor))

		rec := doRequest(r, "GET", "/shopping/chart?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
