// Package guard implements API-key authentication and per-action permission
// checks. Every handler that needs an allow/deny decision goes through the
// same path: prefix lookup, bcrypt comparison, then a default-deny check of
// the key's permission map.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/framelight/sharegate/internal/store"
	"github.com/framelight/sharegate/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// KeyPrefixLen is the number of leading characters stored in clear for
// lookup. The full key is only ever compared against the bcrypt hash.
const KeyPrefixLen = 8

const rawKeyPrefix = "sg_"

var (
	ErrMissingKey    = errors.New("api key is required")
	ErrMissingAction = errors.New("action is required")

	// ErrInvalidKey covers every way a presented key can fail to match a
	// stored record: unknown prefix, wrong secret, revoked key. Callers
	// must not be able to tell these apart.
	ErrInvalidKey = errors.New("invalid api key")
)

// Guard evaluates API keys against stored records.
type Guard struct {
	store store.Store
}

// New creates a Guard backed by the given store.
func New(s store.Store) *Guard {
	return &Guard{store: s}
}

// Authenticate resolves a raw key to its stored record, or ErrInvalidKey.
// On success the key's last_used_at is updated in the background.
func (g *Guard) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if rawKey == "" {
		return nil, ErrMissingKey
	}
	if len(rawKey) < KeyPrefixLen {
		return nil, ErrInvalidKey
	}

	keys, err := g.store.GetAPIKeyByPrefix(ctx, rawKey[:KeyPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}

	for _, key := range keys {
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) == nil {
			go g.store.UpdateAPIKeyLastUsed(context.WithoutCancel(ctx), key.ID)
			return key, nil
		}
	}
	return nil, ErrInvalidKey
}

// Authorize decides whether rawKey grants the named action. A recognized
// key that lacks the action returns (false, nil); an unrecognized key
// returns ErrInvalidKey. Unknown actions always deny.
func (g *Guard) Authorize(ctx context.Context, rawKey, action string) (bool, error) {
	if action == "" {
		return false, ErrMissingAction
	}
	key, err := g.Authenticate(ctx, rawKey)
	if err != nil {
		return false, err
	}
	return key.Allows(action), nil
}

// MintKey generates a fresh raw API key and its stored form. The raw key is
// returned exactly once; only hash and prefix are persisted.
func MintKey() (raw, hash, prefix string, err error) {
	secret, err := newKeySecret()
	if err != nil {
		return "", "", "", fmt.Errorf("generate key secret: %w", err)
	}
	raw = rawKeyPrefix + secret

	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash key: %w", err)
	}
	return raw, string(h), raw[:KeyPrefixLen], nil
}
