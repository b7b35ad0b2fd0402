package tenantcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// Store is the storage handle for the local replica table. The cache
// manager owns it as an injected dependency so tests can substitute an
// in-memory implementation and assert on it directly.
type Store interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantCacheEntry, error)
	GetBySlug(ctx context.Context, slug string) (*models.TenantCacheEntry, error)
	Save(ctx context.Context, entry *models.TenantCacheEntry) error
	ListOperational(ctx context.Context) ([]models.TenantCacheEntry, error)
	ListStale(ctx context.Context, olderThan time.Time) ([]models.TenantCacheEntry, error)
	CountByStatus(ctx context.Context) (map[models.TenantStatus]int64, error)
}

// GormStore implements Store on the consuming service's own database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given gorm handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns the cache entry for a tenant, or ErrTenantNotInCache
func (s *GormStore) Get(ctx context.Context, tenantID uuid.UUID) (*models.TenantCacheEntry, error) {
	var entry models.TenantCacheEntry
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotInCache
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entry: %w", err)
	}
	return &entry, nil
}

// GetBySlug returns the cache entry with the given slug, or ErrTenantNotInCache
func (s *GormStore) GetBySlug(ctx context.Context, slug string) (*models.TenantCacheEntry, error) {
	var entry models.TenantCacheEntry
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotInCache
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entry by slug: %w", err)
	}
	return &entry, nil
}

// Save upserts a cache entry by tenant ID
func (s *GormStore) Save(ctx context.Context, entry *models.TenantCacheEntry) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			UpdateAll: true,
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// ListOperational returns every entry whose tenant may transact
func (s *GormStore) ListOperational(ctx context.Context) ([]models.TenantCacheEntry, error) {
	var entries []models.TenantCacheEntry
	err := s.db.WithContext(ctx).
		Where("status IN ? AND deleted_at IS NULL",
			[]models.TenantStatus{models.TenantStatusTrial, models.TenantStatusActive}).
		Order("slug").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list operational tenants: %w", err)
	}
	return entries, nil
}

// ListStale returns entries that have not synchronized since olderThan
func (s *GormStore) ListStale(ctx context.Context, olderThan time.Time) ([]models.TenantCacheEntry, error) {
	var entries []models.TenantCacheEntry
	err := s.db.WithContext(ctx).
		Where("last_synced_at < ?", olderThan).
		Order("last_synced_at").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale entries: %w", err)
	}
	return entries, nil
}

// CountByStatus returns the number of replica entries per lifecycle status
func (s *GormStore) CountByStatus(ctx context.Context) (map[models.TenantStatus]int64, error) {
	type row struct {
		Status models.TenantStatus
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.TenantCacheEntry{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count entries by status: %w", err)
	}

	counts := make(map[models.TenantStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
