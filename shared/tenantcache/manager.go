package tenantcache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/events"
	"github.com/lodgio/lodgio-platform/shared/models"
)

// Manager owns the local replica table and applies tenant lifecycle events
// to it. Every write is idempotent: events are full snapshots, applies are
// full overwrites, and an event older than the last applied one is skipped.
// The event log may therefore redeliver at will.
type Manager struct {
	store Store
}

// NewManager creates a cache manager over the given store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// isStale reports whether an incoming event predates the last applied one.
// The comparison is emission time against emission time; comparing against
// the local sync time would reject every event from a lagging consumer.
func isStale(entry *models.TenantCacheEntry, emittedAt time.Time) bool {
	return emittedAt.Before(entry.LastEventAt)
}

// SaveOrUpdate applies a CREATED or UPDATED snapshot: it creates the entry
// on first sight of the tenant and otherwise overwrites every denormalized
// field. Fields are never merged - the incoming snapshot always wins.
func (m *Manager) SaveOrUpdate(ctx context.Context, tenantID uuid.UUID, snapshot events.TenantSnapshot, emittedAt time.Time) error {
	now := time.Now().UTC()

	entry, err := m.store.Get(ctx, tenantID)
	if err != nil && err != ErrTenantNotInCache {
		return err
	}

	if entry == nil {
		entry = &models.TenantCacheEntry{TenantID: tenantID, CreatedAt: now}
	} else if isStale(entry, emittedAt) {
		logrus.WithFields(logrus.Fields{
			"tenant_id":     tenantID,
			"emitted_at":    emittedAt,
			"last_event_at": entry.LastEventAt,
		}).Debug("skipping stale tenant snapshot")
		return nil
	}

	entry.Name = snapshot.Name
	entry.Slug = snapshot.Slug
	entry.Category = snapshot.Category
	entry.Status = snapshot.Status
	entry.Plan = snapshot.Plan
	entry.DeletedAt = snapshot.DeletedAt
	entry.LastEventAt = emittedAt
	entry.LastSyncedAt = now
	entry.UpdatedAt = now

	return m.store.Save(ctx, entry)
}

// MarkDeleted records the authority-side soft delete: the entry keeps its
// row but is forced to CANCELLED with the soft-delete timestamp set. A
// tenant never seen by this replica is a no-op.
func (m *Manager) MarkDeleted(ctx context.Context, tenantID uuid.UUID, deletedAt time.Time, emittedAt time.Time) error {
	entry, err := m.store.Get(ctx, tenantID)
	if err == ErrTenantNotInCache {
		logrus.WithField("tenant_id", tenantID).Warn("delete event for tenant not in cache, ignoring")
		return nil
	}
	if err != nil {
		return err
	}
	if isStale(entry, emittedAt) {
		return nil
	}

	now := time.Now().UTC()
	entry.Status = models.TenantStatusCancelled
	entry.DeletedAt = &deletedAt
	entry.LastEventAt = emittedAt
	entry.LastSyncedAt = now
	entry.UpdatedAt = now

	return m.store.Save(ctx, entry)
}

// UpdateStatus overwrites the lifecycle status only. A transition that
// crosses the operational boundary is security relevant and gets a warning
// log either way it crosses. A tenant never seen by this replica is a no-op.
func (m *Manager) UpdateStatus(ctx context.Context, tenantID uuid.UUID, status models.TenantStatus, emittedAt time.Time) error {
	entry, err := m.store.Get(ctx, tenantID)
	if err == ErrTenantNotInCache {
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"status":    status,
		}).Warn("status event for tenant not in cache, ignoring")
		return nil
	}
	if err != nil {
		return err
	}
	if isStale(entry, emittedAt) {
		logrus.WithFields(logrus.Fields{
			"tenant_id":     tenantID,
			"status":        status,
			"emitted_at":    emittedAt,
			"last_event_at": entry.LastEventAt,
		}).Debug("skipping stale status event")
		return nil
	}

	wasOperational := entry.IsOperational()

	now := time.Now().UTC()
	entry.Status = status
	entry.LastEventAt = emittedAt
	entry.LastSyncedAt = now
	entry.UpdatedAt = now

	if wasOperational != entry.IsOperational() {
		logrus.WithFields(logrus.Fields{
			"tenant_id":       tenantID,
			"status":          status,
			"now_operational": entry.IsOperational(),
		}).Warn("tenant crossed operational boundary")
	}

	return m.store.Save(ctx, entry)
}

// GetByID returns the replica entry for a tenant
func (m *Manager) GetByID(ctx context.Context, tenantID uuid.UUID) (*models.TenantCacheEntry, error) {
	return m.store.Get(ctx, tenantID)
}

// GetBySlug returns the replica entry with the given slug
func (m *Manager) GetBySlug(ctx context.Context, slug string) (*models.TenantCacheEntry, error) {
	return m.store.GetBySlug(ctx, slug)
}

// ListOperational returns every replicated tenant that may transact
func (m *Manager) ListOperational(ctx context.Context) ([]models.TenantCacheEntry, error) {
	return m.store.ListOperational(ctx)
}

// StaleEntries returns entries whose last successful apply is older than
// the given threshold. This feeds the monitoring dashboard only; there is
// no automatic remediation.
func (m *Manager) StaleEntries(ctx context.Context, threshold time.Duration) ([]models.TenantCacheEntry, error) {
	return m.store.ListStale(ctx, time.Now().UTC().Add(-threshold))
}

// CountByStatus returns aggregate replica counts per lifecycle status
func (m *Manager) CountByStatus(ctx context.Context) (map[models.TenantStatus]int64, error) {
	return m.store.CountByStatus(ctx)
}
