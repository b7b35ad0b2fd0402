package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a guest booking held by a tenant property
type Reservation struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    uuid.UUID         `json:"tenant_id" gorm:"type:uuid;not null;index"`
	GuestName   string            `json:"guest_name" gorm:"not null"`
	GuestEmail  string            `json:"guest_email" gorm:"not null;index"`
	RoomType    string            `json:"room_type" gorm:"type:varchar(50);not null"`
	CheckIn     time.Time         `json:"check_in" gorm:"not null"`
	CheckOut    time.Time         `json:"check_out" gorm:"not null"`
	Guests      int               `json:"guests" gorm:"default:1"`
	Status      ReservationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	AmountCents int64             `json:"amount_cents" gorm:"not null"`
	Currency    string            `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	ConfirmedAt *time.Time        `json:"confirmed_at"`
	CancelledAt *time.Time        `json:"cancelled_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the Reservation model
func (Reservation) TableName() string {
	return "reservations"
}

// Nights returns the length of stay in nights
func (r *Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}
