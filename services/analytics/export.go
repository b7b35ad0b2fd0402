package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lodgio/lodgio-platform/shared/tenantcache"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

// reportUploader is the slice of s3manager.Uploader the exporter needs
type reportUploader interface {
	Upload(input *s3manager.UploadInput, options ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// ReportExporter writes daily tenant reports to S3
type ReportExporter struct {
	uploader reportUploader
	bucket   string
}

// NewReportExporter creates an S3-backed report exporter
func NewReportExporter() (*ReportExporter, error) {
	bucket := os.Getenv("REPORTS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("REPORTS_S3_BUCKET is not set")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &ReportExporter{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

// objectKey builds the S3 key for one tenant's daily report
func (e *ReportExporter) objectKey(tenantID string, day time.Time) string {
	return fmt.Sprintf("reports/%s/%s.json", tenantID, day.Format("2006-01-02"))
}

// Export serializes the summary and uploads it, returning the S3 location
func (e *ReportExporter) Export(summary *ReservationSummary, day time.Time) (string, error) {
	body, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := e.objectKey(summary.TenantID.String(), day)
	result, err := e.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	return result.Location, nil
}

// handleExportDailyReport builds yesterday's summary for the caller's
// tenant and uploads it to S3. Gated like the other reporting endpoints.
func handleExportDailyReport(db *gorm.DB, gate *tenantcache.Gate, exporter *ReportExporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantFromContext(c)
		if !ok {
			return
		}

		if err := gate.ValidateTenantOperational(c.Request.Context(), tenantID); err != nil {
			tenantcache.WriteGatingError(c, err)
			return
		}

		day := time.Now().UTC().AddDate(0, 0, -1)
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				utils.BadRequestResponse(c, "Invalid date, expected YYYY-MM-DD")
				return
			}
			day = parsed
		}
		from := day.Truncate(24 * time.Hour)
		to := from.AddDate(0, 0, 1)

		summary, err := buildReservationSummary(db, tenantID, from, to)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to build report")
			return
		}

		location, err := exporter.Export(summary, from)
		if err != nil {
			logrus.Errorf("report export failed for tenant %s: %v", tenantID, err)
			utils.ServiceUnavailableResponse(c, "Report export failed")
			return
		}

		utils.OKResponse(c, "Report exported successfully", gin.H{
			"location": location,
			"summary":  summary,
		})
	}
}
