package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/framelight/sharegate/internal/api/middleware"
	"github.com/framelight/sharegate/internal/api/response"
	"github.com/framelight/sharegate/internal/guard"
	"github.com/framelight/sharegate/internal/store"
	"github.com/framelight/sharegate/pkg/models"
)

// Authorizer decides whether an API key grants an action.
type Authorizer interface {
	Authorize(ctx context.Context, rawKey, action string) (bool, error)
}

// NewAuthorizeKeyHandler returns an http.HandlerFunc for
// POST /api/v1/keys/authorize. A recognized key lacking the action is a 200
// with granted:false; an unrecognized key is a 401.
func NewAuthorizeKeyHandler(authz Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"api_key"`
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		granted, err := authz.Authorize(r.Context(), req.APIKey, req.Action)
		if err != nil {
			switch {
			case errors.Is(err, guard.ErrMissingKey):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "api_key is required", nil)
			case errors.Is(err, guard.ErrMissingAction):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "action is required", nil)
			case errors.Is(err, guard.ErrInvalidKey):
				response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Invalid API key", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Failed to evaluate the key", nil)
			}
			return
		}

		response.JSON(w, map[string]bool{"granted": granted})
	}
}

// NewCreateKeyHandler returns an http.HandlerFunc for
// POST /api/v1/admin/keys. The raw key appears in this response and nowhere
// else.
func NewCreateKeyHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}

		var req struct {
			Name        string          `json:"name"`
			Permissions map[string]bool `json:"permissions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.Permissions == nil {
			req.Permissions = map[string]bool{}
		}

		raw, hash, prefix, err := guard.MintKey()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to generate key", nil)
			return
		}

		now := time.Now().UTC()
		key := &models.APIKey{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Name:        req.Name,
			KeyHash:     hash,
			KeyPrefix:   prefix,
			Permissions: req.Permissions,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.CreateAPIKey(r.Context(), key); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
				"Failed to store the key", nil)
			return
		}

		response.Created(w, map[string]any{
			"id":          key.ID,
			"name":        key.Name,
			"key":         raw,
			"key_prefix":  key.KeyPrefix,
			"permissions": key.Permissions,
			"created_at":  key.CreatedAt,
		})
	}
}

// NewListKeysHandler returns an http.HandlerFunc for GET /api/v1/admin/keys.
func NewListKeysHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}

		keys, err := s.ListAPIKeys(r.Context(), tenantID)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
				"Failed to list keys", nil)
			return
		}
		if keys == nil {
			keys = []*models.APIKey{}
		}

		response.JSON(w, keys)
	}
}

// NewRevokeKeyHandler returns an http.HandlerFunc for
// DELETE /api/v1/admin/keys/{keyID}.
func NewRevokeKeyHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_KEY", "Missing caller identity", nil)
			return
		}

		keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyID must be a UUID", nil)
			return
		}

		if err := s.RevokeAPIKey(r.Context(), keyID, tenantID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "No such key for this tenant", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
				"Failed to revoke the key", nil)
			return
		}

		response.JSON(w, map[string]any{"id": keyID, "revoked": true})
	}
}
