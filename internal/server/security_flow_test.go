package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"homesteer/internal/models"
)

func TestSecurity_Unauthenticated(t *testing.T) {
	app := setupApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/profile"},
		{"POST", "/api/v1/rooms"},
		{"GET", "/api/v1/room"},
		{"GET", "/api/v1/meals/today"},
		{"GET", "/api/v1/totals"},
		{"GET", "/api/v1/notifications"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := app.request(p.method, p.path, "", "")
			expect(t, rec, http.StatusUnauthorized)
		})
	}

	rec := app.request("GET", "/api/v1/room", "", "not-a-token")
	expect(t, rec, http.StatusUnauthorized)
}

func TestSecurity_RoomlessUser(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "carol")

	rec := app.request("GET", "/api/v1/room", "", token)
	expect(t, rec, http.StatusNotFound)
	if code := errorCode(t, rec); code != "MEMBERSHIP_NOT_FOUND" {
		t.Errorf("expected MEMBERSHIP_NOT_FOUND, got %s", code)
	}

	rec = app.request("POST", "/api/v1/meals", `{"meal_today":1,"meal_next_day":1}`, token)
	expect(t, rec, http.StatusNotFound)

	// profile and notifications do not need a room
	rec = app.request("GET", "/api/v1/profile", "", token)
	expect(t, rec, http.StatusOK)
	rec = app.request("GET", "/api/v1/notifications", "", token)
	expect(t, rec, http.StatusOK)
}

func TestSecurity_OneRoomPerUser(t *testing.T) {
	app := setupApp(t)
	h := app.setupHousehold(t)

	rec := app.request("POST", "/api/v1/rooms", `{"title":"Second Home"}`, h.Bob)
	expect(t, rec, http.StatusConflict)
	if code := errorCode(t, rec); code != "ALREADY_MEMBER" {
		t.Errorf("expected ALREADY_MEMBER, got %s", code)
	}

	rec = app.request("POST", "/api/v1/rooms/"+h.RoomSlug+"/join", "", h.Alice)
	expect(t, rec, http.StatusConflict)
}

func TestSecurity_DeniedAttemptsAreTracked(t *testing.T) {
	app := setupApp(t)
	h := app.setupHousehold(t)

	for i := 0; i < 2; i++ {
		rec := app.request("POST", "/api/v1/cost-sectors", `{"title":"Rent"}`, h.Bob)
		expect(t, rec, http.StatusForbidden)
		if code := errorCode(t, rec); code != "NOT_ALLOWED" {
			t.Errorf("expected NOT_ALLOWED, got %s", code)
		}
	}

	rec := app.request("PUT", "/api/v1/room/members/"+h.AliceSlug+"/role", `{"role":0}`, h.Bob)
	expect(t, rec, http.StatusForbidden)

	var bob models.User
	if err := app.DB.Where("username = ?", "bob").First(&bob).Error; err != nil {
		t.Fatalf("failed to load bob: %v", err)
	}
	var activity models.SuspiciousActivity
	if err := app.DB.Where("user_id = ?", bob.ID).First(&activity).Error; err != nil {
		t.Fatalf("expected suspicious activity row: %v", err)
	}
	if activity.Attempt != 3 {
		t.Errorf("expected 3 attempts, got %d", activity.Attempt)
	}
}

func TestOpsRollover(t *testing.T) {
	t.Run("rejects a wrong key", func(t *testing.T) {
		app := setupApp(t)
		req := httptest.NewRequest("POST", "/internal/rollover", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		expect(t, rec, http.StatusUnauthorized)
	})

	t.Run("runs with the right key", func(t *testing.T) {
		app := setupApp(t)
		req := httptest.NewRequest("POST", "/internal/rollover", nil)
		req.Header.Set("X-API-Key", "ops-secret")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		expect(t, rec, http.StatusOK)
		if created := parseJSON(t, rec)["created"].(float64); created != 30 {
			t.Errorf("expected 30 created rows, got %v", created)
		}
	})

	t.Run("is disabled without a key", func(t *testing.T) {
		app := setupApp(t)
		router := NewRouter(app.Svc, Options{Rollover: &stubRollover{}})
		req := httptest.NewRequest("POST", "/internal/rollover", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		expect(t, rec, http.StatusServiceUnavailable)
	})
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/health", "", "")
	expect(t, rec, http.StatusOK)
	if parseJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}

	rec = app.request("OPTIONS", "/api/v1/meals", "", "")
	expect(t, rec, http.StatusNoContent)
}
