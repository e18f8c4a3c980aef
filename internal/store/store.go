package store

import (
	"context"
	"errors"

	"github.com/framelight/sharegate/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	CreateShareGrant(ctx context.Context, grant *models.ShareGrant) error
	GetShareGrant(ctx context.Context, token string) (*models.ShareGrant, error)
	RevokeShareGrant(ctx context.Context, token string, tenantID uuid.UUID) error
	ListShareGrants(ctx context.Context, filter GrantFilter) ([]*models.ShareGrant, int, error)
}

// GrantFilter narrows ListShareGrants. Zero values mean "no filter".
type GrantFilter struct {
	TenantID   uuid.UUID
	ResourceID string
	Page       int
	Limit      int
}
