package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RatePlan represents a nightly rate for a room type over a validity window
type RatePlan struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name             string         `json:"name" gorm:"not null"`
	RoomType         string         `json:"room_type" gorm:"type:varchar(50);not null;index"`
	NightlyRateCents int64          `json:"nightly_rate_cents" gorm:"not null"`
	Currency         string         `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	ValidFrom        time.Time      `json:"valid_from" gorm:"not null"`
	ValidTo          time.Time      `json:"valid_to" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the RatePlan model
func (RatePlan) TableName() string {
	return "rate_plans"
}

// CoversDate reports whether the rate plan is valid on the given date
func (r *RatePlan) CoversDate(d time.Time) bool {
	return !d.Before(r.ValidFrom) && !d.After(r.ValidTo)
}
