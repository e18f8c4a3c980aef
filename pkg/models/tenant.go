package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a company or store account. Every API key belongs to a
// tenant, and every grant records the tenant it was issued under.
type Tenant struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
