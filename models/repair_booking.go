package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookingStatusPending    = "pending"
	BookingStatusAccepted   = "accepted"
	BookingStatusInProgress = "in-progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

const (
	DeliveryOptionDoorstep = "doorstep-service"
	DefaultDeviceModel     = "Not specified"
)

// BookingStatuses lists every status a booking can hold, in lifecycle order
var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// CustomerDetails holds contact data captured with a booking
type CustomerDetails struct {
	Name    string `gorm:"column:customer_name;not null" json:"name"`
	Phone   string `gorm:"column:customer_phone;not null" json:"phone"`
	Email   string `gorm:"column:customer_email" json:"email,omitempty"`
	Address string `gorm:"column:customer_address" json:"address,omitempty"`
}

// RepairBooking represents a customer's request for a device repair
type RepairBooking struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           *uint           `gorm:"index" json:"user_id"` // nil for guest bookings
	User             *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DeviceBrand      string          `gorm:"not null" json:"device_brand"`
	DeviceModel      string          `gorm:"not null;default:'Not specified'" json:"device_model"`
	ServiceType      string          `gorm:"not null" json:"service_type"`
	DeliveryOption   string          `gorm:"not null;default:'doorstep-service'" json:"delivery_option"`
	Customer         CustomerDetails `gorm:"embedded" json:"customer_details"`
	IssueDescription string          `gorm:"type:text;not null" json:"issue_description"`
	EstimatedCost    float64         `gorm:"not null;default:0" json:"estimated_cost"`
	ServiceFee       float64         `gorm:"not null;default:0" json:"service_fee"`
	TotalCost        float64         `gorm:"not null;default:0" json:"total_cost"`
	Status           string          `gorm:"not null;default:'pending';index" json:"status"`
	BookingDate      time.Time       `gorm:"not null" json:"booking_date"`
	PreferredDate    string          `json:"preferred_date,omitempty"`
	PreferredTime    string          `json:"preferred_time,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes       string          `gorm:"type:text" json:"admin_notes,omitempty"`
	IsGuestBooking   bool            `gorm:"not null;default:false" json:"is_guest_booking"`
	PhotoS3Key       *string         `json:"-"`
	PhotoURL         *string         `gorm:"-" json:"photo_url,omitempty"` // computed, presigned URL for the device photo
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the RepairBooking model
func (RepairBooking) TableName() string {
	return "repair_bookings"
}

// BeforeCreate assigns the opaque id and booking date
func (b *RepairBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.BookingDate.IsZero() {
		b.BookingDate = time.Now()
	}
	return nil
}

// IsTerminal reports whether the booking can no longer change status
func (b *RepairBooking) IsTerminal() bool {
	return IsTerminalBookingStatus(b.Status)
}

// DeviceLabel is the human readable device name used in customer messages
func (b *RepairBooking) DeviceLabel() string {
	return b.DeviceBrand + " " + b.DeviceModel
}

// IsTerminalBookingStatus reports whether status is completed or cancelled
func IsTerminalBookingStatus(status string) bool {
	return status == BookingStatusCompleted || status == BookingStatusCancelled
}

// IsValidBookingStatus reports whether status belongs to the booking lifecycle
func IsValidBookingStatus(status string) bool {
	return Contains(BookingStatuses, status)
}
