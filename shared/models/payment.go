package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment represents a payment against a reservation
type Payment struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ReservationID uuid.UUID      `json:"reservation_id" gorm:"type:uuid;not null;index"`
	AmountCents   int64          `json:"amount_cents" gorm:"not null"`
	Currency      string         `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	Status        PaymentStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	GatewayRef    string         `json:"gateway_ref" gorm:"type:varchar(100)"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CapturedAt    *time.Time     `json:"captured_at"`
	RefundedAt    *time.Time     `json:"refunded_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
