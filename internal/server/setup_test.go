package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homesteer/internal/clock"
	"homesteer/internal/logger"
	"homesteer/internal/testutil"
	"homesteer/internal/validator"
)

// april10 is a mid-month instant clear of the midnight maintenance minute.
var april10 = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Clock  *clock.Fixed
	Svc    *Services
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// stubRollover counts manual rollover runs.
type stubRollover struct {
	runs int
}

func (s *stubRollover) RunNow() (int64, error) {
	s.runs++
	return 30, nil
}

// setupApp creates the full router backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	clk := clock.NewFixed(april10)
	svc := NewServices(db, clk)
	router := NewRouter(svc, Options{
		Location:  time.UTC,
		OpsAPIKey: "ops-secret",
		Rollover:  &stubRollover{},
	})

	return &testApp{DB: db, Clock: clk, Svc: svc, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expect fails the test unless rec has the wanted status.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// assertDecimal compares a JSON decimal string against want.
func assertDecimal(t *testing.T, name string, got interface{}, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Errorf("%s: expected decimal string, got %v", name, got)
		return
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Errorf("%s: %v", name, err)
		return
	}
	if !d.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, s)
	}
}

// registerUser registers a user and returns its access token.
func (app *testApp) registerUser(t *testing.T, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"password123"}`, username, username)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	expect(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["token"].(string)
}

// createRoom creates a room for token's user and returns the room slug.
func (app *testApp) createRoom(t *testing.T, token, title string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/rooms", fmt.Sprintf(`{"title":%q}`, title), token)
	expect(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["room"].(map[string]interface{})["slug"].(string)
}

// joinRoom joins token's user to roomSlug and returns the membership slug.
func (app *testApp) joinRoom(t *testing.T, token, roomSlug string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/rooms/"+roomSlug+"/join", "", token)
	expect(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["membership"].(map[string]interface{})["slug"].(string)
}

// membershipSlug returns the caller's own membership slug.
func (app *testApp) membershipSlug(t *testing.T, token string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/room", "", token)
	expect(t, rec, http.StatusOK)
	return parseJSON(t, rec)["membership"].(map[string]interface{})["slug"].(string)
}

// household is a room with a manager (alice) and a plain member (bob).
type household struct {
	RoomSlug  string
	Alice     string
	AliceSlug string
	Bob       string
	BobSlug   string
}

func (app *testApp) setupHousehold(t *testing.T) household {
	t.Helper()
	h := household{Alice: app.registerUser(t, "alice"), Bob: app.registerUser(t, "bob")}
	h.RoomSlug = app.createRoom(t, h.Alice, "Green House")
	h.BobSlug = app.joinRoom(t, h.Bob, h.RoomSlug)
	h.AliceSlug = app.membershipSlug(t, h.Alice)
	return h
}
