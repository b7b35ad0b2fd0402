package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/tenantcache"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// CreatePaymentRequest represents the create payment request
type CreatePaymentRequest struct {
	ReservationID uuid.UUID `json:"reservation_id" binding:"required"`
	AmountCents   int64     `json:"amount_cents" binding:"required"`
	Currency      string    `json:"currency"`
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

// loadPayment fetches a payment scoped to the caller's tenant
func loadPayment(c *gin.Context, db *gorm.DB, tenantID uuid.UUID) (*models.Payment, bool) {
	var payment models.Payment
	err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFoundResponse(c, "Payment not found")
		return nil, false
	}
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to fetch payment")
		return nil, false
	}
	return &payment, true
}

// handleCreatePayment records a pending payment for a reservation
func handleCreatePayment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		var req CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}

		payment := models.Payment{
			ID:            uuid.New(),
			TenantID:      tenantID,
			ReservationID: req.ReservationID,
			AmountCents:   req.AmountCents,
			Currency:      req.Currency,
			Status:        models.PaymentStatusPending,
		}

		if err := db.Create(&payment).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create payment")
			return
		}

		utils.CreatedResponse(c, "Payment created successfully", payment)
	}
}

// handleCapturePayment charges a pending payment. The gating check runs
// synchronously on this hot path, every time: a tenant that is suspended,
// expired, cancelled or soft-deleted in the local replica must never reach
// the gateway.
func handleCapturePayment(db *gorm.DB, gate *tenantcache.Gate, gateway *GatewayClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantCanProcessPayments(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		payment, ok := loadPayment(c, db, tenantID)
		if !ok {
			return
		}
		if payment.Status != models.PaymentStatusPending {
			utils.BadRequestResponse(c, "Only pending payments can be captured")
			return
		}

		ref, err := gateway.Capture(payment)
		if err != nil {
			payment.Status = models.PaymentStatusFailed
			payment.FailureReason = err.Error()
			if saveErr := db.Save(payment).Error; saveErr != nil {
				logrus.Errorf("failed to record payment failure: %v", saveErr)
			}
			utils.ServiceUnavailableResponse(c, "Payment capture failed")
			return
		}

		now := time.Now().UTC()
		payment.Status = models.PaymentStatusCaptured
		payment.GatewayRef = ref
		payment.CapturedAt = &now

		if err := db.Save(payment).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to record capture")
			return
		}

		utils.OKResponse(c, "Payment captured", payment)
	}
}

// handleRefundPayment refunds a captured payment; gated like capture
func handleRefundPayment(db *gorm.DB, gate *tenantcache.Gate, gateway *GatewayClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantCanProcessPayments(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		payment, ok := loadPayment(c, db, tenantID)
		if !ok {
			return
		}
		if payment.Status != models.PaymentStatusCaptured {
			utils.BadRequestResponse(c, "Only captured payments can be refunded")
			return
		}

		if _, err := gateway.Refund(payment); err != nil {
			utils.ServiceUnavailableResponse(c, "Payment refund failed")
			return
		}

		now := time.Now().UTC()
		payment.Status = models.PaymentStatusRefunded
		payment.RefundedAt = &now

		if err := db.Save(payment).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to record refund")
			return
		}

		utils.OKResponse(c, "Payment refunded", payment)
	}
}

// handleGetPayments lists the caller tenant's payments
func handleGetPayments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		query := db.Where("tenant_id = ?", tenantID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var payments []models.Payment
		if err := query.Order("created_at DESC").Find(&payments).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch payments")
			return
		}

		utils.OKResponse(c, "Payments retrieved successfully", payments)
	}
}

// handleGetPayment returns one payment
func handleGetPayment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}
		payment, ok := loadPayment(c, db, tenantID)
		if !ok {
			return
		}
		utils.OKResponse(c, "Payment retrieved successfully", payment)
	}
}
