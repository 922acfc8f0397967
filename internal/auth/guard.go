// Package auth guards the control API with an optional shared key.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/micro-nova/nowplaying/internal/models"
)

const (
	apiKeyHeader     = "X-API-Key"
	apiKeyQueryParam = "api-key"
)

// Guard checks requests against a configured API key. With no key
// configured every request passes (open mode).
type Guard struct {
	key string
}

// NewGuard creates a guard for key. An empty key means open mode.
func NewGuard(key string) *Guard {
	return &Guard{key: key}
}

// IsOpenMode returns true if no key is configured.
func (g *Guard) IsOpenMode() bool { return g == nil || g.key == "" }

// VerifyKey reports whether key matches the configured one.
// Uses constant-time comparison to prevent timing attacks.
func (g *Guard) VerifyKey(key string) bool {
	if g.IsOpenMode() || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(g.key)) == 1
}

// Middleware rejects requests without a valid key in the X-API-Key header
// or the api-key query parameter. EventSource clients cannot set headers,
// hence the query parameter.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			key = r.URL.Query().Get(apiKeyQueryParam)
		}
		if g.VerifyKey(key) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(&models.AppError{
			Code:    "UNAUTHORIZED",
			Message: "missing or invalid API key",
			Status:  http.StatusUnauthorized,
		})
	})
}
