package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "TRIAL"
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusExpired   TenantStatus = "EXPIRED"
	TenantStatusCancelled TenantStatus = "CANCELLED"
)

// TenantCategory represents the kind of property a tenant operates
type TenantCategory string

const (
	TenantCategoryHotel      TenantCategory = "hotel"
	TenantCategoryHostel     TenantCategory = "hostel"
	TenantCategoryResort     TenantCategory = "resort"
	TenantCategoryBnB        TenantCategory = "bnb"
	TenantCategoryAparthotel TenantCategory = "aparthotel"
)

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanStarter      TenantPlan = "starter"
	TenantPlanProfessional TenantPlan = "professional"
	TenantPlanEnterprise   TenantPlan = "enterprise"
)

// Tenant is the authoritative tenant record. It is owned and written only
// by the tenant service; every other service works from its local replica.
// Rows are never physically deleted - cancellation sets DeletedAt.
type Tenant struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"not null"`
	Slug         string         `json:"slug" gorm:"uniqueIndex:uniq_tenants_live_slug,where:deleted_at IS NULL;not null"`
	Category     TenantCategory `json:"category" gorm:"type:varchar(20);not null"`
	Status       TenantStatus   `json:"status" gorm:"type:varchar(20);not null;default:'TRIAL'"`
	Plan         *TenantPlan    `json:"plan" gorm:"type:varchar(20)"`
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	DeletedAt    *time.Time     `json:"deleted_at" gorm:"index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// IsOperational reports whether the tenant may transact: status TRIAL or
// ACTIVE and not soft-deleted.
func (t *Tenant) IsOperational() bool {
	return (t.Status == TenantStatusTrial || t.Status == TenantStatusActive) && t.DeletedAt == nil
}

// IsValidCategory checks a category value against the closed set
func IsValidCategory(c TenantCategory) bool {
	switch c {
	case TenantCategoryHotel, TenantCategoryHostel, TenantCategoryResort,
		TenantCategoryBnB, TenantCategoryAparthotel:
		return true
	}
	return false
}

// IsValidPlan checks a plan value against the closed set
func IsValidPlan(p TenantPlan) bool {
	switch p {
	case TenantPlanStarter, TenantPlanProfessional, TenantPlanEnterprise:
		return true
	}
	return false
}
