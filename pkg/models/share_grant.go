// Package models contains shared data models used across the ShareGate codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareGrant authorizes a single opaque token to access a single resource.
// The token is the primary key; a token maps to exactly one grant for its
// entire lifetime. A nil ExpiresAt means the grant never expires.
type ShareGrant struct {
	Token      string     `db:"token"       json:"token"`
	ResourceID string     `db:"resource_id" json:"resource_id"`
	TenantID   uuid.UUID  `db:"tenant_id"   json:"tenant_id"`
	IssuedBy   string     `db:"issued_by"   json:"issued_by"`
	IssuedAt   time.Time  `db:"issued_at"   json:"issued_at"`
	ExpiresAt  *time.Time `db:"expires_at"  json:"expires_at,omitempty"`
	Revoked    bool       `db:"revoked"     json:"revoked"`
}

// ValidFor reports whether the grant authorizes access to resourceID at the
// given instant: not revoked, not expired, and the resource ids match. A
// resource mismatch is indistinguishable from a missing grant to callers.
func (g *ShareGrant) ValidFor(resourceID string, now time.Time) bool {
	if g.Revoked {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
		return false
	}
	return g.ResourceID == resourceID
}
