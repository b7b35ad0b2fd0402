package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lodgio/lodgio-platform/shared/events"
	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// eventPublisher is the slice of the tenant event publisher the handlers
// use; extracted so tests can capture published events.
type eventPublisher interface {
	Publish(kind events.EventKind, tenant *models.Tenant) error
}

// CreateTenantRequest represents the create tenant request
type CreateTenantRequest struct {
	Name         string  `json:"name" binding:"required"`
	Slug         string  `json:"slug" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	Plan         *string `json:"plan"`
	ContactName  string  `json:"contact_name"`
	ContactEmail string  `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string  `json:"contact_phone"`
}

// UpdateTenantRequest represents the update tenant request
type UpdateTenantRequest struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Category     *string `json:"category"`
	Plan         *string `json:"plan"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
}

// publishEvent emits a lifecycle event for an already-committed mutation.
// The mutation is never rolled back on publish failure - the gap is left
// to the staleness monitor.
func publishEvent(publisher eventPublisher, kind events.EventKind, tenant *models.Tenant) {
	if err := publisher.Publish(kind, tenant); err != nil {
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"kind":      kind,
		}).Errorf("failed to publish tenant event: %v", err)
	}
}

// liveSlugTaken checks slug uniqueness among non-deleted tenants only;
// a cancelled tenant releases its slug.
func liveSlugTaken(db *gorm.DB, slug string, excludeID *uuid.UUID) (bool, error) {
	query := db.Model(&models.Tenant{}).Where("slug = ? AND deleted_at IS NULL", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// handleCreateTenant handles tenant creation (admin only)
func handleCreateTenant(db *gorm.DB, publisher eventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if !models.IsValidCategory(models.TenantCategory(req.Category)) {
			utils.BadRequestResponse(c, "Invalid category")
			return
		}

		var plan *models.TenantPlan
		if req.Plan != nil {
			p := models.TenantPlan(*req.Plan)
			if !models.IsValidPlan(p) {
				utils.BadRequestResponse(c, "Invalid plan")
				return
			}
			plan = &p
		}

		taken, err := liveSlugTaken(db, req.Slug, nil)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to check slug")
			return
		}
		if taken {
			utils.ConflictResponse(c, "Slug already in use")
			return
		}

		tenant := models.Tenant{
			ID:           uuid.New(),
			Name:         req.Name,
			Slug:         req.Slug,
			Category:     models.TenantCategory(req.Category),
			Status:       models.TenantStatusTrial,
			Plan:         plan,
			ContactName:  req.ContactName,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
		}

		if err := db.Create(&tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create tenant")
			return
		}

		publishEvent(publisher, events.EventKindCreated, &tenant)

		utils.CreatedResponse(c, "Tenant created successfully", tenant)
	}
}

// handleGetTenants handles listing tenants (admin only)
func handleGetTenants(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Tenant{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var tenants []models.Tenant
		if err := query.Order("created_at DESC").Find(&tenants).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch tenants")
			return
		}

		utils.OKResponse(c, "Tenants retrieved successfully", tenants)
	}
}

// loadTenant fetches a tenant by path ID, writing the error response itself
// when the tenant cannot be loaded.
func loadTenant(c *gin.Context, db *gorm.DB) (*models.Tenant, bool) {
	var tenant models.Tenant
	if err := db.Where("id = ?", c.Param("id")).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "Tenant not found")
		} else {
			utils.InternalServerErrorResponse(c, "Failed to fetch tenant")
		}
		return nil, false
	}
	return &tenant, true
}

// handleGetTenant handles getting a specific tenant
func handleGetTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c, db)
		if !ok {
			return
		}
		utils.OKResponse(c, "Tenant retrieved successfully", tenant)
	}
}

// handleGetTenantBySlug handles getting a tenant by its live slug
func handleGetTenantBySlug(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tenant models.Tenant
		err := db.Where("slug = ? AND deleted_at IS NULL", c.Param("slug")).First(&tenant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch tenant")
			return
		}
		utils.OKResponse(c, "Tenant retrieved successfully", tenant)
	}
}

// handleUpdateTenant handles updating a tenant's profile fields
func handleUpdateTenant(db *gorm.DB, publisher eventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c, db)
		if !ok {
			return
		}
		if tenant.DeletedAt != nil {
			utils.BadRequestResponse(c, "Cannot update a deleted tenant")
			return
		}

		var req UpdateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name != nil {
			tenant.Name = *req.Name
		}
		if req.Slug != nil && *req.Slug != tenant.Slug {
			taken, err := liveSlugTaken(db, *req.Slug, &tenant.ID)
			if err != nil {
				utils.InternalServerErrorResponse(c, "Failed to check slug")
				return
			}
			if taken {
				utils.ConflictResponse(c, "Slug already in use")
				return
			}
			tenant.Slug = *req.Slug
		}
		if req.Category != nil {
			if !models.IsValidCategory(models.TenantCategory(*req.Category)) {
				utils.BadRequestResponse(c, "Invalid category")
				return
			}
			tenant.Category = models.TenantCategory(*req.Category)
		}
		if req.Plan != nil {
			p := models.TenantPlan(*req.Plan)
			if !models.IsValidPlan(p) {
				utils.BadRequestResponse(c, "Invalid plan")
				return
			}
			tenant.Plan = &p
		}
		if req.ContactName != nil {
			tenant.ContactName = *req.ContactName
		}
		if req.ContactEmail != nil {
			tenant.ContactEmail = *req.ContactEmail
		}
		if req.ContactPhone != nil {
			tenant.ContactPhone = *req.ContactPhone
		}

		if err := db.Save(tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update tenant")
			return
		}

		publishEvent(publisher, events.EventKindUpdated, tenant)

		utils.OKResponse(c, "Tenant updated successfully", tenant)
	}
}

// handleLifecycleAction builds a handler for suspend/activate/expire
func handleLifecycleAction(db *gorm.DB, publisher eventPublisher, action string, kind events.EventKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c, db)
		if !ok {
			return
		}

		next, err := validateTransition(tenant, action)
		if err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		tenant.Status = next
		if err := db.Save(tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update tenant status")
			return
		}

		publishEvent(publisher, kind, tenant)

		utils.OKResponse(c, "Tenant "+action+"d", tenant)
	}
}

// handleDeleteTenant soft-deletes a tenant (admin only). The row stays and
// the slug is released for reuse by the partial unique index.
func handleDeleteTenant(db *gorm.DB, publisher eventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c, db)
		if !ok {
			return
		}
		if tenant.DeletedAt != nil {
			utils.BadRequestResponse(c, "Tenant already deleted")
			return
		}

		now := time.Now().UTC()
		tenant.DeletedAt = &now
		tenant.Status = models.TenantStatusCancelled

		if err := db.Save(tenant).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete tenant")
			return
		}

		publishEvent(publisher, events.EventKindDeleted, tenant)

		utils.OKResponse(c, "Tenant deleted successfully", nil)
	}
}
