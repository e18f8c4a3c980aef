package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission names checked by the guard. The permissions map is open-ended;
// any action absent from a key's map is denied.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionShare = "share"
	PermissionAdmin = "admin"
)

// APIKey represents an authentication key for programmatic API access.
// Raw keys are shown once at creation; only the bcrypt hash is stored.
type APIKey struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	TenantID    uuid.UUID       `db:"tenant_id"    json:"tenant_id"`
	Name        string          `db:"name"         json:"name"`
	KeyHash     string          `db:"key_hash"     json:"-"`
	KeyPrefix   string          `db:"key_prefix"   json:"key_prefix"`
	Permissions map[string]bool `db:"permissions"  json:"permissions"`
	LastUsedAt  *time.Time      `db:"last_used_at" json:"last_used_at,omitempty"`
	DeletedAt   *time.Time      `db:"deleted_at"   json:"-"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}

// Allows reports whether the key grants the named action. Unknown actions
// and nil maps deny.
func (k *APIKey) Allows(action string) bool {
	return k.Permissions[action]
}
