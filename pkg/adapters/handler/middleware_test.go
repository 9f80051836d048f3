package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caffeinepub/liinks/pkg/config"
)

func TestRequireAuth(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg)

	tests := []struct {
		name           string
		path           string
		cookieName     string
		cookieValue    string
		authHeader     string
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "No Cookie - API",
			path:           "/api/v1/me/profile",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Cookie - Browser",
			path:           "/dashboard",
			expectedStatus: http.StatusTemporaryRedirect,
		},
		{
			name:           "Invalid Cookie - API",
			path:           "/api/v1/me/profile",
			cookieName:     "auth_token",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret - API",
			path:           "/api/v1/me/profile",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, "other", "google-123"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie - API",
			path:           "/api/v1/me/profile",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, "google-123"),
			expectedStatus: http.StatusOK,
			expectedUser:   "google-123",
		},
		{
			name:           "Valid Bearer - API",
			path:           "/api/v1/me/profile",
			authHeader:     "Bearer " + generateTestToken(t, cfg.JWTSecret, "google-456"),
			expectedStatus: http.StatusOK,
			expectedUser:   "google-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookieName != "" {
				req.AddCookie(&http.Cookie{Name: tt.cookieName, Value: tt.cookieValue})
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			var gotUser string
			rr := httptest.NewRecorder()
			handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = IdentityFrom(r.Context()).UserID
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tt.expectedStatus)
			}
			if gotUser != tt.expectedUser {
				t.Errorf("identity user = %q, want %q", gotUser, tt.expectedUser)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testservlet"}
	mw := NewMiddleware(cfg)

	var anonymous bool
	handler := mw.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		anonymous = IdentityFrom(r.Context()) == nil
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/publish-gate", nil))
	if rr.Code != http.StatusOK || !anonymous {
		t.Errorf("anonymous request: status %d, anonymous %v", rr.Code, anonymous)
	}

	req := httptest.NewRequest("GET", "/api/v1/publish-gate", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: generateTestToken(t, cfg.JWTSecret, "google-123")})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if anonymous {
		t.Error("expected identity for a valid token")
	}
}

func generateTestToken(t *testing.T, secret, subject string) string {
	expirationTime := time.Now().Add(5 * time.Minute)
	claims := &sessionClaims{
		Email: "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
