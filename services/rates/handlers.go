package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/tenantcache"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// CreateRatePlanRequest represents the create rate plan request
type CreateRatePlanRequest struct {
	Name             string    `json:"name" binding:"required"`
	RoomType         string    `json:"room_type" binding:"required"`
	NightlyRateCents int64     `json:"nightly_rate_cents" binding:"required"`
	Currency         string    `json:"currency"`
	ValidFrom        time.Time `json:"valid_from" binding:"required"`
	ValidTo          time.Time `json:"valid_to" binding:"required"`
}

// UpdateRatePlanRequest represents the update rate plan request
type UpdateRatePlanRequest struct {
	Name             *string    `json:"name"`
	NightlyRateCents *int64     `json:"nightly_rate_cents"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to"`
}

// tenantFromContext parses the caller's tenant ID, writing the error
// response itself on failure.
func tenantFromContext(c *gin.Context) (uuid.UUID, bool) {
	_, _, tenantID, _ := middleware.GetUserFromContext(c)
	parsed, err := uuid.Parse(tenantID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid tenant ID")
		return uuid.Nil, false
	}
	return parsed, true
}

// handleCreateRatePlan creates a rate plan; writing rates is gated on the
// tenant being operational.
func handleCreateRatePlan(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		var req CreateRatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if !req.ValidTo.After(req.ValidFrom) {
			utils.BadRequestResponse(c, "valid_to must be after valid_from")
			return
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}

		plan := models.RatePlan{
			ID:               uuid.New(),
			TenantID:         tenantID,
			Name:             req.Name,
			RoomType:         req.RoomType,
			NightlyRateCents: req.NightlyRateCents,
			Currency:         req.Currency,
			ValidFrom:        req.ValidFrom,
			ValidTo:          req.ValidTo,
		}

		if err := db.Create(&plan).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create rate plan")
			return
		}

		utils.CreatedResponse(c, "Rate plan created successfully", plan)
	}
}

// handleGetRatePlans lists the caller tenant's rate plans; optionally only
// those covering a given date. Reads stay open for non-operational tenants
// so existing bookings can still resolve their rates.
func handleGetRatePlans(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		query := db.Where("tenant_id = ?", tenantID)
		if roomType := c.Query("room_type"); roomType != "" {
			query = query.Where("room_type = ?", roomType)
		}
		if date := c.Query("date"); date != "" {
			parsed, err := time.Parse("2006-01-02", date)
			if err != nil {
				utils.BadRequestResponse(c, "Invalid date, expected YYYY-MM-DD")
				return
			}
			query = query.Where("valid_from <= ? AND valid_to >= ?", parsed, parsed)
		}

		var plans []models.RatePlan
		if err := query.Order("valid_from").Find(&plans).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch rate plans")
			return
		}

		utils.OKResponse(c, "Rate plans retrieved successfully", plans)
	}
}

// handleUpdateRatePlan updates a rate plan; gated like creation
func handleUpdateRatePlan(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		var plan models.RatePlan
		err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID).First(&plan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "Rate plan not found")
			return
		}
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch rate plan")
			return
		}

		var req UpdateRatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name != nil {
			plan.Name = *req.Name
		}
		if req.NightlyRateCents != nil {
			plan.NightlyRateCents = *req.NightlyRateCents
		}
		if req.ValidFrom != nil {
			plan.ValidFrom = *req.ValidFrom
		}
		if req.ValidTo != nil {
			plan.ValidTo = *req.ValidTo
		}
		if !plan.ValidTo.After(plan.ValidFrom) {
			utils.BadRequestResponse(c, "valid_to must be after valid_from")
			return
		}

		if err := db.Save(&plan).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update rate plan")
			return
		}

		utils.OKResponse(c, "Rate plan updated successfully", plan)
	}
}

// handleDeleteRatePlan removes a rate plan; gated like creation
func handleDeleteRatePlan(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		result := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID).Delete(&models.RatePlan{})
		if result.Error != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete rate plan")
			return
		}
		if result.RowsAffected == 0 {
			utils.NotFoundResponse(c, "Rate plan not found")
			return
		}

		utils.OKResponse(c, "Rate plan deleted successfully", nil)
	}
}
