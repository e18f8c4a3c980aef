package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/framelight/sharegate/internal/api/response"
	"github.com/framelight/sharegate/internal/guard"
)

// Auth provides authentication and permission-checking middleware on top of
// the key guard.
type Auth struct {
	guard *guard.Guard
}

// NewAuth creates a new Auth middleware.
func NewAuth(g *guard.Guard) *Auth {
	return &Auth{guard: g}
}

// Authenticate validates the Bearer API key via the guard and sets
// tenant_id, key_prefix, issuer, and permissions in the request context.
// Unknown keys, wrong secrets, and revoked keys all produce the same 401.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_KEY", "Missing or invalid Authorization header", nil)
			return
		}

		key, err := a.guard.Authenticate(r.Context(), rawKey)
		if err != nil {
			if errors.Is(err, guard.ErrInvalidKey) || errors.Is(err, guard.ErrMissingKey) {
				response.Error(w, http.StatusUnauthorized,
					"INVALID_KEY", "Invalid API key", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to validate API key", nil)
			return
		}

		ctx := r.Context()
		ctx = SetTenantID(ctx, key.TenantID)
		ctx = setKeyPrefix(ctx, key.KeyPrefix)
		ctx = setIssuer(ctx, key.Name)
		ctx = setPermissions(ctx, key.Permissions)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission returns middleware that checks whether the
// authenticated key grants the named action. Absent entries deny.
func (a *Auth) RequirePermission(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if getPermissions(r)[action] {
				next.ServeHTTP(w, r)
				return
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
