// Package share implements issuance, validation, and revocation of share
// tokens. A share token is an opaque credential: the only thing a caller can
// do with it is present the exact stored value alongside a resource id.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/framelight/sharegate/internal/cache"
	"github.com/framelight/sharegate/internal/store"
	"github.com/framelight/sharegate/pkg/models"
	"github.com/google/uuid"
)

var (
	ErrMissingResourceID = errors.New("resource_id is required")
	ErrMissingToken      = errors.New("token is required")
	ErrNegativeTTL       = errors.New("ttl_hours must not be negative")
	ErrTTLTooLong        = errors.New("ttl_hours exceeds the maximum")
)

// revokedSentinel marks a token revoked in the decision cache. A NUL byte is
// never a resource id, so the sentinel can never satisfy a positive hit.
var revokedSentinel = []byte{0}

// Service issues and validates share grants. Validation is a pure function
// of the stored grant and the injected clock; negative outcomes (expired,
// revoked, mismatched, unknown) are results, not errors.
type Service struct {
	store            store.Store
	cache            cache.Cache
	baseURL          string
	maxTTLHours      int
	decisionCacheTTL time.Duration
	now              func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a share Service. baseURL is the public origin share
// links are built against; maxTTLHours caps requested expiries.
func NewService(st store.Store, c cache.Cache, baseURL string, maxTTLHours int, decisionCacheTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:            st,
		cache:            c,
		baseURL:          baseURL,
		maxTTLHours:      maxTTLHours,
		decisionCacheTTL: decisionCacheTTL,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueParams holds validated inputs for issuing a share token.
type IssueParams struct {
	ResourceID string
	TenantID   uuid.UUID
	IssuedBy   string
	TTLHours   int
}

// IssueResult is the output of a successful issuance.
type IssueResult struct {
	Token     string     `json:"token"`
	LongURL   string     `json:"long_url"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Issue mints a random token, persists a grant for it, and returns the
// shareable link. A TTLHours of zero means the grant never expires.
func (s *Service) Issue(ctx context.Context, params IssueParams) (*IssueResult, error) {
	if params.ResourceID == "" {
		return nil, ErrMissingResourceID
	}
	if params.TTLHours < 0 {
		return nil, ErrNegativeTTL
	}
	if s.maxTTLHours > 0 && params.TTLHours > s.maxTTLHours {
		return nil, ErrTTLTooLong
	}

	token, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	var expiresAt *time.Time
	if params.TTLHours > 0 {
		t := now.Add(time.Duration(params.TTLHours) * time.Hour)
		expiresAt = &t
	}

	grant := &models.ShareGrant{
		Token:      token,
		ResourceID: params.ResourceID,
		TenantID:   params.TenantID,
		IssuedBy:   params.IssuedBy,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
		Revoked:    false,
	}
	if err := s.store.CreateShareGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("persist grant: %w", err)
	}

	return &IssueResult{
		Token:     token,
		LongURL:   fmt.Sprintf("%s/share/%s/%s", s.baseURL, params.ResourceID, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Validate decides whether token authorizes access to resourceID right now.
// An unknown token, a revoked or expired grant, and a resource mismatch all
// return (false, nil); only input and storage failures are errors.
func (s *Service) Validate(ctx context.Context, resourceID, token string) (bool, error) {
	if resourceID == "" {
		return false, ErrMissingResourceID
	}
	if token == "" {
		return false, ErrMissingToken
	}

	// Positive decisions are cached briefly; cache errors fall through to
	// the store.
	if cached, ok, err := s.cache.Get(ctx, cache.GrantDecisionKey(token)); err == nil && ok {
		if bytes.Equal(cached, revokedSentinel) {
			return false, nil
		}
		if string(cached) == resourceID {
			return true, nil
		}
	}

	grant, err := s.store.GetShareGrant(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch grant: %w", err)
	}

	now := s.now().UTC()
	if !grant.ValidFor(resourceID, now) {
		return false, nil
	}

	s.cacheDecision(ctx, grant, now)
	return true, nil
}

// cacheDecision stores a positive validation keyed by token. The cache TTL
// never extends past the grant's expiry, so a stale positive can never
// outlive the grant itself.
func (s *Service) cacheDecision(ctx context.Context, grant *models.ShareGrant, now time.Time) {
	if s.decisionCacheTTL <= 0 {
		return
	}
	ttl := s.decisionCacheTTL
	if grant.ExpiresAt != nil {
		if remaining := grant.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	// Best effort, and never an overwrite: a revocation sentinel written by
	// a concurrent Revoke must win over a positive decision whose grant was
	// read before the revoke landed.
	_, _ = s.cache.SetNX(ctx, cache.GrantDecisionKey(grant.Token), []byte(grant.ResourceID), ttl)
}

// Revoke marks the grant revoked, then overwrites any cached decision with a
// revocation sentinel. The sentinel lives at least as long as any stale
// positive could, so a validate racing the revoke cannot resurrect the token
// from cache. Revoking an already-revoked grant is a no-op; the cache is only
// touched once the row update succeeds.
func (s *Service) Revoke(ctx context.Context, token string, tenantID uuid.UUID) error {
	if token == "" {
		return ErrMissingToken
	}
	if err := s.store.RevokeShareGrant(ctx, token, tenantID); err != nil {
		return err
	}
	if s.decisionCacheTTL > 0 {
		if err := s.cache.Set(ctx, cache.GrantDecisionKey(token), revokedSentinel, s.decisionCacheTTL); err != nil {
			return fmt.Errorf("invalidate cached decision: %w", err)
		}
	}
	return nil
}

// List returns the tenant's grants, newest first.
func (s *Service) List(ctx context.Context, filter store.GrantFilter) ([]*models.ShareGrant, int, error) {
	return s.store.ListShareGrants(ctx, filter)
}
