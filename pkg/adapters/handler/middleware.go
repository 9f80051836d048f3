package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caffeinepub/liinks/pkg/config"
	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const authCookieName = "auth_token"

type identityKey struct{}

// sessionClaims is the payload of the auth token. Subject is the user id.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Middleware struct {
	jwtSecret []byte
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// RequireAuth rejects requests without a valid token. API callers get a JSON
// 401, browsers are sent to the login page.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.authenticate(r)
		if !ok {
			if isAPIRequest(r) {
				respondError(r.Context(), w, domain.ErrNotAuthenticated)
			} else {
				http.Redirect(w, r, "/auth/google/login", http.StatusTemporaryRedirect)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := m.authenticate(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (*ports.Identity, bool) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			return nil, false
		}
		tokenString = cookie.Value
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, false
	}
	return &ports.Identity{UserID: claims.Subject, Email: claims.Email}, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, identity *ports.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller, or nil when the request is anonymous.
func IdentityFrom(ctx context.Context) *ports.Identity {
	identity, _ := ctx.Value(identityKey{}).(*ports.Identity)
	return identity
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
