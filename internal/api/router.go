package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/framelight/sharegate/internal/api/middleware"
	"github.com/framelight/sharegate/internal/api/response"
	"github.com/framelight/sharegate/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	IssueShare       http.HandlerFunc
	ValidateShare    http.HandlerFunc
	RevokeShare      http.HandlerFunc
	ListShares       http.HandlerFunc
	AuthorizeKey     http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes: health, and validation — share links are presented by
	// anonymous viewers, so no key is required to validate one.
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/shares/validate", orNotImplemented(deps.ValidateShare))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequirePermission(models.PermissionShare))
			r.Post("/api/v1/shares", orNotImplemented(deps.IssueShare))
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequirePermission(models.PermissionRead))
			r.Get("/api/v1/shares", orNotImplemented(deps.ListShares))
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequirePermission(models.PermissionWrite))
			r.Delete("/api/v1/shares/{token}", orNotImplemented(deps.RevokeShare))
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequirePermission(models.PermissionAdmin))

			r.Post("/api/v1/keys/authorize", orNotImplemented(deps.AuthorizeKey))
			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
