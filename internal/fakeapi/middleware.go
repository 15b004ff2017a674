package fakeapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityContextKey contextKey = "identity"

// identity is who a bearer token says the caller is. Tokens are not
// verified: this server stands in for a backend during development.
type identity struct {
	Email string
	Name  string
}

func identityFromContext(ctx context.Context) identity {
	id, _ := ctx.Value(identityContextKey).(identity)
	return id
}

// requireAPIKey checks the fixed service credential when one is configured
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("x-api-key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(key), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the bearer token to a known user
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFromRequest(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}
		if _, err := s.backend.user(id.Email); err != nil {
			respondError(w, http.StatusUnauthorized, "unknown user, please log in")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin lets whitelisted callers through
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identityFromContext(r.Context())
		if !s.backend.isAdmin(id.Email) {
			slog.Warn("admin access denied", "email", id.Email)
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identityFromRequest reads the bearer token. A JWT yields its email and
// name claims; a bare email is accepted as is.
func identityFromRequest(r *http.Request) (identity, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return identity{}, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return identity{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)
		if email == "" {
			return identity{}, false
		}
		return identity{Email: normalizeEmail(email), Name: name}, true
	}

	if strings.Contains(token, "@") && !strings.ContainsAny(token, " \t") {
		return identity{Email: normalizeEmail(token)}, true
	}
	return identity{}, false
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
