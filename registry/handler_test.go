package registry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/registry"
)

const adminPassword = "admin-pass"

// newTestAPI wires the full registry stack (store, directory, auth, handler)
// onto a fresh engine with a seeded admin credential.
func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newTestStore(t)
	log := logger.NewDefault("test")
	hasher := auth.NewBcryptHasher(auth.WithCost(4))
	directory := registry.NewDirectory(store, hasher, log)

	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := directory.EnsureAdmin(context.Background(), "admin", hash); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	authn := auth.NewService(store, tokens, hasher, log)

	engine := gin.New()
	registry.NewHandler(authn, directory, "registry", log).RegisterRoutes(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	return rr
}

func loginAs(t *testing.T, engine *gin.Engine, username, password string) string {
	t.Helper()
	rr := doJSON(t, engine, http.MethodPost, "/login", "", gin.H{
		"username": username,
		"password": password,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if body.Token == "" {
		t.Fatal("expected non-empty token")
	}
	return body.Token
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	engine := newTestAPI(t)

	rr := doJSON(t, engine, http.MethodPost, "/login", "", gin.H{
		"username": "admin",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAPI_LoginRequiresBothFields(t *testing.T) {
	engine := newTestAPI(t)

	rr := doJSON(t, engine, http.MethodPost, "/login", "", gin.H{"username": "admin"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestAPI_ListServicesIsOpenAndReturnsArray(t *testing.T) {
	engine := newTestAPI(t)

	rr := doJSON(t, engine, http.MethodGet, "/services", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var services []registry.ServiceRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &services); err != nil {
		t.Fatalf("expected a JSON array, got %s: %v", rr.Body.String(), err)
	}
	if len(services) != 0 {
		t.Fatalf("expected empty array, got %+v", services)
	}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestAPI_RegisterRequiresToken(t *testing.T) {
	engine := newTestAPI(t)

	rr := doJSON(t, engine, http.MethodPost, "/services", "", gin.H{
		"name": "payments",
		"url":  "http://payments:8080",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAPI_RegisterRejectsTamperedToken(t *testing.T) {
	engine := newTestAPI(t)
	token := loginAs(t, engine, "admin", adminPassword)

	rr := doJSON(t, engine, http.MethodPost, "/services", token+"tampered", gin.H{
		"name": "payments",
		"url":  "http://payments:8080",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rr.Code, rr.Body.String())
	}

	// The denied request must not have mutated the directory.
	list := doJSON(t, engine, http.MethodGet, "/services", "", nil)
	var services []registry.ServiceRecord
	if err := json.Unmarshal(list.Body.Bytes(), &services); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(services) != 0 {
		t.Fatalf("denied request mutated the directory: %+v", services)
	}
}

func TestAPI_RegisterThenListShowsService(t *testing.T) {
	engine := newTestAPI(t)
	token := loginAs(t, engine, "admin", adminPassword)

	rr := doJSON(t, engine, http.MethodPost, "/services", token, gin.H{
		"name":        "payments",
		"description": "payment processing",
		"url":         "http://payments:8080",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created struct {
		Message  string `json:"message"`
		UUID     string `json:"UUID"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.Message != "Service added successfully" {
		t.Fatalf("unexpected message: %s", created.Message)
	}
	if created.UUID == "" || created.Password == "" {
		t.Fatalf("expected id and one-time password, got %+v", created)
	}

	list := doJSON(t, engine, http.MethodGet, "/services", "", nil)
	var services []registry.ServiceRecord
	if err := json.Unmarshal(list.Body.Bytes(), &services); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(services) != 1 || services[0].ID != created.UUID {
		t.Fatalf("registered service missing from listing: %+v", services)
	}

	// The new service can log in with its generated credential.
	loginAs(t, engine, created.UUID, created.Password)
}

func TestAPI_RegisterValidatesBody(t *testing.T) {
	engine := newTestAPI(t)
	token := loginAs(t, engine, "admin", adminPassword)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"url": "http://payments:8080"}},
		{"missing url", gin.H{"name": "payments"}},
		{"malformed url", gin.H{"name": "payments", "url": "not a url"}},
	}
	for _, tc := range cases {
		rr := doJSON(t, engine, http.MethodPost, "/services", token, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", tc.name, rr.Code, rr.Body.String())
		}
	}
}

func TestAPI_RegisterForbiddenForSelfAccess(t *testing.T) {
	engine := newTestAPI(t)
	adminToken := loginAs(t, engine, "admin", adminPassword)

	created := doJSON(t, engine, http.MethodPost, "/services", adminToken, gin.H{
		"name": "payments",
		"url":  "http://payments:8080",
	})
	var reg struct {
		UUID     string `json:"UUID"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	selfToken := loginAs(t, engine, reg.UUID, reg.Password)
	rr := doJSON(t, engine, http.MethodPost, "/services", selfToken, gin.H{
		"name": "intruder",
		"url":  "http://intruder:8080",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Deregistration
// ---------------------------------------------------------------------------

func TestAPI_DeregisterLifecycle(t *testing.T) {
	engine := newTestAPI(t)
	token := loginAs(t, engine, "admin", adminPassword)

	created := doJSON(t, engine, http.MethodPost, "/services", token, gin.H{
		"name": "payments",
		"url":  "http://payments:8080",
	})
	var reg struct {
		UUID string `json:"UUID"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	rr := doJSON(t, engine, http.MethodDelete, "/services", token, gin.H{"id": reg.UUID})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// A repeat delete reports the entry as gone.
	rr = doJSON(t, engine, http.MethodDelete, "/services", token, gin.H{"id": reg.UUID})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestAPI_HealthEndpoint(t *testing.T) {
	engine := newTestAPI(t)

	rr := doJSON(t, engine, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "registry" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}
