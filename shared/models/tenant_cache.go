package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantCacheEntry is the local replica of a tenant, one row per tenant a
// consuming service has ever observed. It is written exclusively by that
// service's cache consumer; everything else only reads it. Rows are never
// deleted - a cancelled tenant keeps its row (status CANCELLED plus a
// soft-delete timestamp) so historical records can still resolve its
// name and slug.
//
// DeletedAt is a plain nullable timestamp rather than gorm.DeletedAt on
// purpose: soft-deleted tenants must stay visible to lookups.
type TenantCacheEntry struct {
	TenantID uuid.UUID      `json:"tenant_id" gorm:"type:uuid;primary_key"`
	Name     string         `json:"name" gorm:"not null"`
	Slug     string         `json:"slug" gorm:"index;not null"`
	Category TenantCategory `json:"category" gorm:"type:varchar(20)"`
	Status   TenantStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	Plan     *TenantPlan    `json:"plan" gorm:"type:varchar(20)"`

	// DeletedAt mirrors the authority's soft-delete timestamp.
	DeletedAt *time.Time `json:"deleted_at"`

	// LastEventAt is the emission timestamp of the last event applied to
	// this row. Incoming events older than it are stale redeliveries and
	// are skipped.
	LastEventAt time.Time `json:"last_event_at" gorm:"not null"`

	// LastSyncedAt is the local wall-clock time of the last successful
	// apply, used by the staleness monitor.
	LastSyncedAt time.Time `json:"last_synced_at" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the TenantCacheEntry model
func (TenantCacheEntry) TableName() string {
	return "tenant_cache_entries"
}

// IsOperational reports whether the replicated tenant may transact
func (e *TenantCacheEntry) IsOperational() bool {
	return (e.Status == TenantStatusTrial || e.Status == TenantStatusActive) && e.DeletedAt == nil
}
