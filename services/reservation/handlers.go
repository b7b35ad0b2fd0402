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

// CreateReservationRequest represents the create reservation request
type CreateReservationRequest struct {
	GuestName   string    `json:"guest_name" binding:"required"`
	GuestEmail  string    `json:"guest_email" binding:"required,email"`
	RoomType    string    `json:"room_type" binding:"required"`
	CheckIn     time.Time `json:"check_in" binding:"required"`
	CheckOut    time.Time `json:"check_out" binding:"required"`
	Guests      int       `json:"guests"`
	AmountCents int64     `json:"amount_cents" binding:"required"`
	Currency    string    `json:"currency"`
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

// handleCreateReservation creates a reservation for the caller's tenant.
// Creation is a sensitive operation: the tenant must be operational in the
// local replica before any row is written.
func handleCreateReservation(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		var req CreateReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if !req.CheckOut.After(req.CheckIn) {
			utils.BadRequestResponse(c, "Check-out must be after check-in")
			return
		}

		if req.Guests == 0 {
			req.Guests = 1
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}

		reservation := models.Reservation{
			ID:          uuid.New(),
			TenantID:    tenantID,
			GuestName:   req.GuestName,
			GuestEmail:  req.GuestEmail,
			RoomType:    req.RoomType,
			CheckIn:     req.CheckIn,
			CheckOut:    req.CheckOut,
			Guests:      req.Guests,
			Status:      models.ReservationStatusPending,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
		}

		if err := db.Create(&reservation).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create reservation")
			return
		}

		utils.CreatedResponse(c, "Reservation created successfully", reservation)
	}
}

// loadReservation fetches a reservation scoped to the caller's tenant
func loadReservation(c *gin.Context, db *gorm.DB, tenantID uuid.UUID) (*models.Reservation, bool) {
	var reservation models.Reservation
	err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFoundResponse(c, "Reservation not found")
		return nil, false
	}
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to fetch reservation")
		return nil, false
	}
	return &reservation, true
}

// handleGetReservations lists the caller tenant's reservations
func handleGetReservations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		query := db.Where("tenant_id = ?", tenantID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var reservations []models.Reservation
		if err := query.Order("check_in").Find(&reservations).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch reservations")
			return
		}

		utils.OKResponse(c, "Reservations retrieved successfully", reservations)
	}
}

// handleGetReservation returns one reservation
func handleGetReservation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}
		reservation, ok := loadReservation(c, db, tenantID)
		if !ok {
			return
		}
		utils.OKResponse(c, "Reservation retrieved successfully", reservation)
	}
}

// handleConfirmReservation confirms a pending reservation; gated like
// creation.
func handleConfirmReservation(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		reservation, ok := loadReservation(c, db, tenantID)
		if !ok {
			return
		}
		if reservation.Status != models.ReservationStatusPending {
			utils.BadRequestResponse(c, "Only pending reservations can be confirmed")
			return
		}

		now := time.Now().UTC()
		reservation.Status = models.ReservationStatusConfirmed
		reservation.ConfirmedAt = &now

		if err := db.Save(reservation).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to confirm reservation")
			return
		}

		utils.OKResponse(c, "Reservation confirmed", reservation)
	}
}

// handleCancelReservation cancels a reservation. Deliberately not gated:
// guests must be able to cancel even when the tenant is suspended.
func handleCancelReservation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}
		reservation, ok := loadReservation(c, db, tenantID)
		if !ok {
			return
		}
		if reservation.Status == models.ReservationStatusCancelled {
			utils.BadRequestResponse(c, "Reservation already cancelled")
			return
		}

		now := time.Now().UTC()
		reservation.Status = models.ReservationStatusCancelled
		reservation.CancelledAt = &now

		if err := db.Save(reservation).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to cancel reservation")
			return
		}

		utils.OKResponse(c, "Reservation cancelled", reservation)
	}
}
