package tenantcache

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// Gate is the validation facade business logic calls before performing a
// tenant-scoped sensitive operation. It only reads the local replica and
// never caches its answer: every call reflects the replica as of now, so
// the only staleness is the replication lag itself.
type Gate struct {
	manager *Manager
}

// NewGate creates a gating facade over a cache manager
func NewGate(manager *Manager) *Gate {
	return &Gate{manager: manager}
}

// IsOperational reports whether the tenant may transact. An identifier the
// replica has never observed is an error (ErrTenantNotInCache), never a
// silent false - "not yet replicated" and "ineligible" are different
// conditions and callers must handle them differently.
func (g *Gate) IsOperational(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	entry, err := g.manager.GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return entry.IsOperational(), nil
}

// ValidateTenantOperational returns nil when the tenant may transact, and
// a hard error otherwise: ErrTenantNotInCache for an unknown tenant, or an
// *IneligibleTenantError when the tenant is found but blocked.
func (g *Gate) ValidateTenantOperational(ctx context.Context, tenantID uuid.UUID) error {
	entry, err := g.manager.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !entry.IsOperational() {
		return &IneligibleTenantError{
			TenantID: tenantID,
			Status:   entry.Status,
			Deleted:  entry.DeletedAt != nil,
		}
	}
	return nil
}

// ValidateTenantCanProcessPayments gates payment capture. Today the
// predicate is the same as ValidateTenantOperational; it stays a separate
// entry point because it is the security-critical one and may diverge.
// It must be called synchronously on every payment-initiating path.
func (g *Gate) ValidateTenantCanProcessPayments(ctx context.Context, tenantID uuid.UUID) error {
	return g.ValidateTenantOperational(ctx, tenantID)
}

// GetByID returns the replica entry for a tenant
func (g *Gate) GetByID(ctx context.Context, tenantID uuid.UUID) (*models.TenantCacheEntry, error) {
	return g.manager.GetByID(ctx, tenantID)
}

// GetBySlug returns the replica entry with the given slug
func (g *Gate) GetBySlug(ctx context.Context, slug string) (*models.TenantCacheEntry, error) {
	return g.manager.GetBySlug(ctx, slug)
}

// ListOperational returns every replicated tenant that may transact
func (g *Gate) ListOperational(ctx context.Context) ([]models.TenantCacheEntry, error) {
	return g.manager.ListOperational(ctx)
}
