package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/adapters/handler"
	"github.com/caffeinepub/liinks/pkg/adapters/repository/sqlite"
	"github.com/caffeinepub/liinks/pkg/app"
	"github.com/caffeinepub/liinks/pkg/config"
)

type e2eClient struct {
	t      *testing.T
	client *http.Client
	base   string
	token  string
}

func (c *e2eClient) call(method, path string, payload any) (int, map[string]any) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func signToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestIntegration(t *testing.T) {
	// 1. Setup DB
	dbURL := "file:memdb1?mode=memory&cache=shared"
	repo, err := sqlite.NewSQLiteRepository(dbURL)
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	defer repo.Close()

	// 2. Setup Services and Router
	cfg := &config.Config{
		JWTSecret:        "e2e-secret",
		BaseURL:          "https://liinks.test",
		AppEnv:           "local",
		GateTimeout:      2 * time.Second,
		OTPTTL:           time.Minute,
		SubscriptionDays: 30,
		ExposeOTP:        true,
	}
	logger := zap.NewNop()
	mux := handler.NewRouter(cfg, logger, app.NewServices(cfg, repo, nil, logger))

	server := httptest.NewServer(mux)
	defer server.Close()

	anon := &e2eClient{t: t, client: server.Client(), base: server.URL}
	user := &e2eClient{t: t, client: server.Client(), base: server.URL, token: signToken(t, cfg.JWTSecret, "google-1")}

	// TEST 1: Empty store serves the seed catalog
	status, body := anon.call(http.MethodGet, "/api/v1/public/templates", nil)
	if status != http.StatusOK {
		t.Fatalf("List expected 200, got %d", status)
	}
	seeds := body["data"].([]any)
	if len(seeds) == 0 {
		t.Fatal("expected seed templates")
	}
	templateID := seeds[0].(map[string]any)["id"].(string)

	status, body = anon.call(http.MethodGet, "/api/v1/public/templates/"+templateID+"/content", nil)
	if status != http.StatusOK {
		t.Fatalf("Content expected 200, got %d", status)
	}
	if _, ok := body["editableContent"].(map[string]any)["socialHandles"].([]any); !ok {
		t.Errorf("expected socialHandles list, got %v", body["editableContent"])
	}

	page := map[string]any{
		"template_id": templateID,
		"title":       "Asha Rao",
		"bio_text":    "Runner and coach",
		"links":       []map[string]string{{"title": "Plans", "url": "https://example.com/plans"}},
	}

	// TEST 2: Anonymous publish is told to log in
	status, body = anon.call(http.MethodPost, "/api/v1/bio-pages", page)
	if status != http.StatusPreconditionRequired || body["action"] != "log-in" {
		t.Fatalf("anonymous publish: got %d %v", status, body)
	}

	// Invalid input is rejected before any account lookup, even when anonymous
	status, body = anon.call(http.MethodPost, "/api/v1/bio-pages", map[string]any{"template_id": templateID, "title": " ", "bio_text": "x"})
	if status != http.StatusBadRequest || body["error"] != "invalid_request" {
		t.Fatalf("blank title publish: got %d %v", status, body)
	}

	// TEST 3: Signed in without a profile is told to sign up
	status, body = user.call(http.MethodPost, "/api/v1/bio-pages", page)
	if status != http.StatusPreconditionRequired || body["navigate_to"] != "/signup?reason=registration-required" {
		t.Fatalf("unregistered publish: got %d %v", status, body)
	}

	status, _ = user.call(http.MethodPost, "/api/v1/me/profile", map[string]string{
		"first_name": "Asha", "last_name": "Rao", "email": "asha@example.com", "phone_number": "+919800000000",
	})
	if status != http.StatusCreated {
		t.Fatalf("Register expected 201, got %d", status)
	}

	// TEST 4: Registered but unverified is told to verify the phone
	status, body = user.call(http.MethodGet, "/api/v1/publish-gate", nil)
	if status != http.StatusOK || body["suggested_action"] != "verify-phone" {
		t.Fatalf("gate after register: got %d %v", status, body)
	}

	status, body = user.call(http.MethodPost, "/api/v1/me/phone/otp", map[string]string{"phone_number": "+919800000000"})
	if status != http.StatusCreated {
		t.Fatalf("OTP expected 201, got %d", status)
	}
	code := body["code"].(string)
	status, _ = user.call(http.MethodPost, "/api/v1/me/phone/verify", map[string]string{"phone_number": "+919800000000", "code": code})
	if status != http.StatusOK {
		t.Fatalf("Verify expected 200, got %d", status)
	}

	// TEST 5: Publish succeeds and is shareable
	status, body = user.call(http.MethodPost, "/api/v1/bio-pages", page)
	if status != http.StatusOK {
		t.Fatalf("Publish expected 200, got %d: %v", status, body)
	}
	shareID := body["share_id"].(string)
	if shareID != "google-1_"+templateID {
		t.Errorf("share id mismatch: %s", shareID)
	}
	if body["share_url"] != "https://liinks.test/share/"+shareID {
		t.Errorf("share url mismatch: %v", body["share_url"])
	}

	page["bio_text"] = "Updated bio"
	status, _ = user.call(http.MethodPost, "/api/v1/bio-pages", page)
	if status != http.StatusOK {
		t.Fatalf("Republish expected 200, got %d", status)
	}

	status, body = anon.call(http.MethodGet, "/share/"+shareID, nil)
	if status != http.StatusOK || body["bio_text"] != "Updated bio" {
		t.Fatalf("share lookup: got %d %v", status, body)
	}
	links := body["links"].([]any)
	if links[0].(map[string]any)["id"] != "link-0" {
		t.Errorf("expected synthesized link id, got %v", links[0])
	}

	// TEST 6: Upload requires pro, then shows in the catalog
	upload := map[string]any{
		"name": "Neon Nights", "category": "Digital Creators", "description": "Glow",
		"thumbnail_url": "https://example.com/neon.png",
		"editable_content": map[string]any{"title": "Neon", "bioText": "Bright"},
	}
	status, body = user.call(http.MethodPost, "/api/v1/templates", upload)
	if status != http.StatusPaymentRequired || body["navigate_to"] != "/pricing" {
		t.Fatalf("upload without pro: got %d %v", status, body)
	}

	status, _ = user.call(http.MethodPost, "/api/v1/me/subscription", map[string]string{"tier": "pro", "payment_reference": "UPI-123"})
	if status != http.StatusOK {
		t.Fatalf("Subscribe expected 200, got %d", status)
	}
	status, body = user.call(http.MethodPost, "/api/v1/templates", upload)
	if status != http.StatusCreated {
		t.Fatalf("Upload expected 201, got %d: %v", status, body)
	}
	uploadedID := body["id"].(string)

	status, body = anon.call(http.MethodGet, "/api/v1/public/templates?category=Digital%20Creators", nil)
	if status != http.StatusOK {
		t.Fatalf("Category list expected 200, got %d", status)
	}
	first := body["data"].([]any)[0].(map[string]any)
	if first["id"] != uploadedID {
		t.Errorf("expected uploaded template first, got %v", first["id"])
	}

	// TEST 7: Export (Dump)
	pages, err := repo.DumpBioPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Errorf("Expected 1 bio page in dump, got %d", len(pages))
	}
}
