package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantIDKey    contextKey = "tenant_id"
	keyPrefixKey   contextKey = "key_prefix"
	issuerKey      contextKey = "issuer"
	permissionsKey contextKey = "permissions"
)

func SetTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(tenantIDKey).(uuid.UUID)
	return id, ok
}

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}

func setIssuer(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, issuerKey, name)
}

// GetIssuer returns the authenticated key's name, used as the issuing
// identity on grants.
func GetIssuer(r *http.Request) (string, bool) {
	name, ok := r.Context().Value(issuerKey).(string)
	return name, ok
}

func setPermissions(ctx context.Context, perms map[string]bool) context.Context {
	return context.WithValue(ctx, permissionsKey, perms)
}

func getPermissions(r *http.Request) map[string]bool {
	perms, _ := r.Context().Value(permissionsKey).(map[string]bool)
	return perms
}
