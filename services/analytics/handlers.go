package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/tenantcache"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// ReservationSummary aggregates a tenant's bookings over a window
type ReservationSummary struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Total        int64     `json:"total"`
	Confirmed    int64     `json:"confirmed"`
	Cancelled    int64     `json:"cancelled"`
	RevenueCents int64     `json:"revenue_cents"`
}

// staleCacheEntry is the monitoring view of a lagging replica row
type staleCacheEntry struct {
	TenantID     uuid.UUID           `json:"tenant_id"`
	Slug         string              `json:"slug"`
	Status       models.TenantStatus `json:"status"`
	LastEventAt  time.Time           `json:"last_event_at"`
	LastSyncedAt time.Time           `json:"last_synced_at"`
	Age          string              `json:"age"`
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

// reportWindow parses the optional from/to query params, defaulting to the
// last 30 days.
func reportWindow(c *gin.Context) (time.Time, time.Time, bool) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid from date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid to date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !to.After(from) {
		utils.BadRequestResponse(c, "to must be after from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// buildReservationSummary runs the aggregate queries for one tenant window
func buildReservationSummary(db *gorm.DB, tenantID uuid.UUID, from, to time.Time) (*ReservationSummary, error) {
	summary := &ReservationSummary{TenantID: tenantID, From: from, To: to}

	base := db.Model(&models.Reservation{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to)

	if err := base.Session(&gorm.Session{}).Count(&summary.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.ReservationStatusConfirmed).
		Count(&summary.Confirmed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.ReservationStatusCancelled).
		Count(&summary.Cancelled).Error; err != nil {
		return nil, err
	}

	err := db.Model(&models.Payment{}).
		Where("tenant_id = ? AND status = ? AND captured_at >= ? AND captured_at < ?",
			tenantID, models.PaymentStatusCaptured, from, to).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&summary.RevenueCents).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// handleReservationSummary reports booking and revenue aggregates for the
// caller's tenant. Gated: suspended or deleted tenants lose dashboard
// access along with everything else.
func handleReservationSummary(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		from, to, ok := reportWindow(c)
		if !ok {
			return
		}

		summary, err := buildReservationSummary(db, tenantID, from, to)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to build summary")
			return
		}

		utils.OKResponse(c, "Summary built successfully", summary)
	}
}

// handleOccupancy reports nights booked per room type for the caller's tenant
func handleOccupancy(db *gorm.DB, gate *tenantcache.Gate) gin.HandlerFunc {
	type occupancyRow struct {
		RoomType     string `json:"room_type"`
		Reservations int64  `json:"reservations"`
		Nights       int64  `json:"nights"`
	}

	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		from, to, ok := reportWindow(c)
		if !ok {
			return
		}

		var rows []occupancyRow
		err := db.Model(&models.Reservation{}).
			Where("tenant_id = ? AND status = ? AND check_in >= ? AND check_in < ?",
				tenantID, models.ReservationStatusConfirmed, from, to).
			Select("room_type, COUNT(*) AS reservations, COALESCE(SUM(EXTRACT(EPOCH FROM check_out - check_in) / 86400), 0) AS nights").
			Group("room_type").
			Scan(&rows).Error
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to build occupancy report")
			return
		}

		utils.OKResponse(c, "Occupancy report built successfully", rows)
	}
}

// handleStaleCacheReport lists replica entries whose last applied event is
// older than the threshold. Advisory only: a stale entry still serves
// reads, this endpoint exists so operators notice consumer lag.
func handleStaleCacheReport(manager *tenantcache.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := 15 * time.Minute
		if raw := c.Query("threshold"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				utils.BadRequestResponse(c, "Invalid threshold, expected a duration like 10m")
				return
			}
			threshold = parsed
		}

		entries, err := manager.StaleEntries(c.Request.Context(), threshold)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to query cache staleness")
			return
		}

		now := time.Now().UTC()
		report := make([]staleCacheEntry, 0, len(entries))
		for _, entry := range entries {
			report = append(report, staleCacheEntry{
				TenantID:     entry.TenantID,
				Slug:         entry.Slug,
				Status:       entry.Status,
				LastEventAt:  entry.LastEventAt,
				LastSyncedAt: entry.LastSyncedAt,
				Age:          now.Sub(entry.LastSyncedAt).Round(time.Second).String(),
			})
		}

		utils.OKResponse(c, "Stale cache report built successfully", gin.H{
			"threshold": threshold.String(),
			"count":     len(report),
			"entries":   report,
		})
	}
}

// handleCacheStatusCounts reports how many replica entries sit in each
// tenant status.
func handleCacheStatusCounts(manager *tenantcache.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := manager.CountByStatus(c.Request.Context())
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to count cache entries")
			return
		}

		utils.OKResponse(c, "Cache status counts retrieved successfully", counts)
	}
}
