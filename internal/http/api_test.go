package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"civic-complaints/internal/classifier"
	"civic-complaints/internal/domain"
	"civic-complaints/internal/repository/sqlite"
	"civic-complaints/internal/service"
)

type pickFirst struct{}

func (pickFirst) IntN(int) int { return 0 }

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "complaints.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	if _, err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	complaints := sqlite.NewComplaintRepository(db)
	if err := complaints.Init(ctx); err != nil {
		t.Fatalf("init complaints: %v", err)
	}

	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	auth, err := service.NewAuthService(users, tokens, service.AuthConfig{BcryptCost: bcrypt.MinCost, Logger: logger})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	if _, err := auth.CreateAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	complaintSvc := service.NewComplaintService(complaints, auth, classifier.New(pickFirst{}), service.ComplaintConfig{Logger: logger})

	opts.Logger = logger
	router := gin.New()
	NewHandler(auth, complaintSvc, opts).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
}

type loginBody struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	return decode[loginBody](t, rec).Token
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	if got := decode[errorBody](t, rec).Error; got != msg {
		t.Fatalf("expected error %q, got %q", msg, got)
	}
}

func TestComplaintLifecycle(t *testing.T) {
	router := newTestRouter(t, Options{})

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	registered := decode[struct {
		Message string       `json:"message"`
		Data    UserResponse `json:"data"`
	}](t, rec)
	if registered.Message != "User registered successfully" || registered.Data.Username != "alice" || registered.Data.Role != "citizen" {
		t.Fatalf("unexpected register response %+v", registered)
	}

	alice := login(t, router, "alice", "pw1")

	rec = doJSON(t, router, http.MethodPost, "/api/complaints", alice, gin.H{
		"description": "Deep pothole on Main St",
		"imageBase64": "data:image/png;base64,AAAA",
		"location":    gin.H{"latitude": 12.97, "longitude": 77.59},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	submitted := decode[struct {
		Message string         `json:"message"`
		Data    SubmitResponse `json:"data"`
	}](t, rec)
	if submitted.Message != "Complaint submitted" {
		t.Fatalf("unexpected message %q", submitted.Message)
	}
	if submitted.Data.Category != "Pothole" || submitted.Data.Department != "RoadMaintenance" || submitted.Data.Status != "Submitted" {
		t.Fatalf("unexpected routing %+v", submitted.Data)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/complaints", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	listed := decode[struct {
		Message string           `json:"message"`
		Data    []map[string]any `json:"data"`
	}](t, rec)
	if listed.Message != "success" || len(listed.Data) != 1 {
		t.Fatalf("unexpected list %+v", listed)
	}
	row := listed.Data[0]
	if row["id"] != float64(submitted.Data.ID) || row["status"] != "Submitted" || row["latitude"] != 12.97 || row["longitude"] != 77.59 {
		t.Fatalf("unexpected row %v", row)
	}
	if row["resolved_at"] != nil || row["resolved_image_base64"] != nil {
		t.Fatalf("unresolved complaint should have null resolution fields: %v", row)
	}
	if _, ok := row["evidence_location"]; ok {
		t.Fatalf("evidence_location should be omitted when not archived: %v", row)
	}

	resolvePath := "/api/complaints/" + jsonNumber(submitted.Data.ID) + "/resolve"
	expectError(t, doJSON(t, router, http.MethodPatch, resolvePath, alice, nil), http.StatusForbidden, "Admin access required")

	admin := login(t, router, "admin", "admin123")
	rec = doJSON(t, router, http.MethodPatch, resolvePath, admin, gin.H{"resolvedImageBase64": "data:image/png;base64,BBBB"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: status %d body %s", rec.Code, rec.Body.String())
	}
	resolved := decode[struct {
		Message string `json:"message"`
		Changes int64  `json:"changes"`
	}](t, rec)
	if resolved.Message != "Complaint resolved" || resolved.Changes != 1 {
		t.Fatalf("unexpected resolve response %+v", resolved)
	}

	rec = doJSON(t, router, http.MethodPatch, resolvePath, admin, nil)
	again := decode[struct {
		Changes int64 `json:"changes"`
	}](t, rec)
	if rec.Code != http.StatusOK || again.Changes != 0 {
		t.Fatalf("second resolve should report 0 changes: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/complaints", admin, nil)
	row = decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec).Data[0]
	if row["status"] != "Resolved" || row["resolved_image_base64"] != "data:image/png;base64,BBBB" || row["resolved_at"] == nil {
		t.Fatalf("unexpected resolved row %v", row)
	}
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func TestAuthorization(t *testing.T) {
	router := newTestRouter(t, Options{})

	expectError(t, doJSON(t, router, http.MethodGet, "/api/complaints", "", nil), http.StatusUnauthorized, "Unauthorized")

	req := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusUnauthorized, "Unauthorized")

	expectError(t, doJSON(t, router, http.MethodGet, "/api/complaints", "not.a.jwt", nil), http.StatusUnauthorized, "Unauthorized")

	forged, err := service.NewTokenIssuer("other-secret", time.Hour).Issue(&domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, doJSON(t, router, http.MethodPatch, "/api/complaints/1/resolve", forged, nil), http.StatusForbidden, "Forbidden")
}

func TestRegisterAdminRequiresAdminToken(t *testing.T) {
	router := newTestRouter(t, Options{})
	body := gin.H{"username": "mallory", "password": "pw", "role": "admin"}

	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", body), http.StatusForbidden, "Admin access required")

	admin := login(t, router, "admin", "admin123")
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", admin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin granted register: status %d body %s", rec.Code, rec.Body.String())
	}
	if token := login(t, router, "mallory", "pw"); token == "" {
		t.Fatal("expected a token for the new admin")
	}
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t, Options{})

	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob"}),
		http.StatusBadRequest, "Username and password required")
	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": strings.Repeat("b", 65), "password": "pw"}),
		http.StatusBadRequest, "username must be at most 64 characters")
	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", `{"username":`),
		http.StatusBadRequest, "invalid JSON body")

	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": "a"}); rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d", rec.Code)
	}
	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": "b", "role": "citizen"}),
		http.StatusBadRequest, "Username already exists")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	router := newTestRouter(t, Options{})

	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong"}),
		http.StatusUnauthorized, "Invalid username or password")
	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody", "password": "wrong"}),
		http.StatusUnauthorized, "Invalid username or password")
}

func TestSubmitValidation(t *testing.T) {
	router := newTestRouter(t, Options{})
	admin := login(t, router, "admin", "admin123")

	expectError(t, doJSON(t, router, http.MethodPost, "/api/complaints", admin, gin.H{"description": "no photo"}),
		http.StatusBadRequest, "Description and Image required")

	rec := doJSON(t, router, http.MethodPost, "/api/complaints", admin, gin.H{
		"description": "mystery",
		"imageBase64": "xyz",
		"location":    gin.H{"latitude": "abc", "longitude": 3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit with bad location should still succeed: %d %s", rec.Code, rec.Body.String())
	}
	row := decode[struct {
		Data []ComplaintResponse `json:"data"`
	}](t, doJSON(t, router, http.MethodGet, "/api/complaints", admin, nil)).Data[0]
	if row.Latitude != 0 || row.Longitude != 0 {
		t.Fatalf("expected 0,0 for unreadable location, got %v,%v", row.Latitude, row.Longitude)
	}
}

func TestResolveRejectsNonNumericID(t *testing.T) {
	router := newTestRouter(t, Options{})
	admin := login(t, router, "admin", "admin123")

	expectError(t, doJSON(t, router, http.MethodPatch, "/api/complaints/abc/resolve", admin, nil), http.StatusBadRequest, "invalid complaint id")

	rec := doJSON(t, router, http.MethodPatch, "/api/complaints/999/resolve", admin, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"changes":0`) {
		t.Fatalf("unknown id should report 0 changes: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	router := newTestRouter(t, Options{MaxBodyBytes: 1024})
	admin := login(t, router, "admin", "admin123")

	rec := doJSON(t, router, http.MethodPost, "/api/complaints", admin, gin.H{
		"description": "pothole",
		"imageBase64": strings.Repeat("A", 4096),
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAmbientRoutes(t *testing.T) {
	router := newTestRouter(t, Options{BasePath: "/v1"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/complaints", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: status %d headers %v", rec.Code, rec.Header())
	}

	if rec := doJSON(t, router, http.MethodGet, "/v1/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "message") {
		t.Fatalf("root: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "civic_http_request_duration_seconds") {
		t.Fatalf("metrics: status %d", rec.Code)
	}
}

func TestTokenCheckedBeforeBody(t *testing.T) {
	router := newTestRouter(t, Options{})

	expectError(t, doJSON(t, router, http.MethodPost, "/api/complaints", "", `{not json`), http.StatusUnauthorized, "Unauthorized")
	expectError(t, doJSON(t, router, http.MethodPost, "/api/complaints", "", gin.H{"description": ""}), http.StatusUnauthorized, "Unauthorized")
	expectError(t, doJSON(t, router, http.MethodPatch, "/api/complaints/1/resolve", "", `{not json`), http.StatusUnauthorized, "Unauthorized")

	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw1"}); rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d", rec.Code)
	}
	alice := login(t, router, "alice", "pw1")
	expectError(t, doJSON(t, router, http.MethodPatch, "/api/complaints/1/resolve", alice, `{not json`), http.StatusForbidden, "Admin access required")
}

func TestLongDescriptionAccepted(t *testing.T) {
	router := newTestRouter(t, Options{})
	admin := login(t, router, "admin", "admin123")

	rec := doJSON(t, router, http.MethodPost, "/api/complaints", admin, gin.H{
		"description": "pothole " + strings.Repeat("a", 10000),
		"imageBase64": "data:image/png;base64,AAAA",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("long description: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterPasswordBytes(t *testing.T) {
	router := newTestRouter(t, Options{})

	expectError(t, doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "password": strings.Repeat("é", 40)}),
		http.StatusBadRequest, "Password must be at most 72 bytes")

	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": " admin", "password": "pw"}); rec.Code != http.StatusCreated {
		t.Fatalf("' admin' is a distinct username: status %d body %s", rec.Code, rec.Body.String())
	}
}
