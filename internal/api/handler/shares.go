package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/framelight/sharegate/internal/api/middleware"
	"github.com/framelight/sharegate/internal/api/response"
	"github.com/framelight/sharegate/internal/share"
	"github.com/framelight/sharegate/internal/store"
	"github.com/framelight/sharegate/pkg/models"
)

// ShareService defines the share operations the handlers depend on.
type ShareService interface {
	Issue(ctx context.Context, params share.IssueParams) (*share.IssueResult, error)
	Validate(ctx context.Context, resourceID, token string) (bool, error)
	Revoke(ctx context.Context, token string, tenantID uuid.UUID) error
	List(ctx context.Context, filter store.GrantFilter) ([]*models.ShareGrant, int, error)
}

// NewIssueShareHandler returns an http.HandlerFunc for POST /api/v1/shares.
func NewIssueShareHandler(svc ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}
		issuer, _ := mw.GetIssuer(r)

		var req struct {
			ResourceID string `json:"resource_id"`
			TTLHours   int    `json:"ttl_hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		result, err := svc.Issue(r.Context(), share.IssueParams{
			ResourceID: req.ResourceID,
			TenantID:   tenantID,
			IssuedBy:   issuer,
			TTLHours:   req.TTLHours,
		})
		if err != nil {
			switch {
			case errors.Is(err, share.ErrMissingResourceID):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id is required", nil)
			case errors.Is(err, share.ErrNegativeTTL):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "ttl_hours must not be negative", nil)
			case errors.Is(err, share.ErrTTLTooLong):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "ttl_hours exceeds the maximum", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Failed to store the grant", nil)
			}
			return
		}

		response.Created(w, result)
	}
}

// NewValidateShareHandler returns an http.HandlerFunc for
// POST /api/v1/shares/validate. A negative decision is a 200 with
// valid:false, never an error.
func NewValidateShareHandler(svc ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResourceID string `json:"resource_id"`
			Token      string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		valid, err := svc.Validate(r.Context(), req.ResourceID, req.Token)
		if err != nil {
			switch {
			case errors.Is(err, share.ErrMissingResourceID):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id is required", nil)
			case errors.Is(err, share.ErrMissingToken):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "token is required", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Failed to evaluate the grant", nil)
			}
			return
		}

		response.JSON(w, map[string]bool{"valid": valid})
	}
}

// NewRevokeShareHandler returns an http.HandlerFunc for
// DELETE /api/v1/shares/{token}.
func NewRevokeShareHandler(svc ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}

		token := chi.URLParam(r, "token")
		err := svc.Revoke(r.Context(), token, tenantID)
		if err != nil {
			switch {
			case errors.Is(err, share.ErrMissingToken):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "token is required", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "No such grant for this tenant", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Failed to revoke the grant", nil)
			}
			return
		}

		response.JSON(w, map[string]any{"token": token, "revoked": true})
	}
}

// NewListSharesHandler returns an http.HandlerFunc for GET /api/v1/shares.
func NewListSharesHandler(svc ShareService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}

		filter := store.GrantFilter{
			TenantID:   tenantID,
			ResourceID: r.URL.Query().Get("resource_id"),
			Page:       queryInt(r, "page", 1),
			Limit:      queryInt(r, "limit", 20),
		}

		grants, total, err := svc.List(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
				"Failed to list grants", nil)
			return
		}
		if grants == nil {
			grants = []*models.ShareGrant{}
		}

		response.Collection(w, grants, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

func queryInt(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}
