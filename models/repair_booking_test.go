package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairBookingTableName(t *testing.T) {
	assert.Equal(t, "repair_bookings", RepairBooking{}.TableName())
}

func TestBookingStatusTerminality(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{BookingStatusPending, false},
		{BookingStatusAccepted, false},
		{BookingStatusInProgress, false},
		{BookingStatusCompleted, true},
		{BookingStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			booking := RepairBooking{Status: tt.status}
			assert.Equal(t, tt.terminal, booking.IsTerminal())
			assert.True(t, IsValidBookingStatus(tt.status))
		})
	}
}

func TestIsValidBookingStatus_RejectsUnknown(t *testing.T) {
	assert.False(t, IsValidBookingStatus("Completed"), "statuses are case sensitive")
	assert.False(t, IsValidBookingStatus("shipped"))
	assert.False(t, IsValidBookingStatus(""))
}

func TestBeforeCreateAssignsIDAndDate(t *testing.T) {
	booking := RepairBooking{}
	assert.NoError(t, booking.BeforeCreate(nil))
	assert.Len(t, booking.ID, 36)
	assert.False(t, booking.BookingDate.IsZero())

	kept := RepairBooking{ID: "fixed-id"}
	assert.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed-id", kept.ID)
}

func TestDeviceLabel(t *testing.T) {
	booking := RepairBooking{DeviceBrand: "Samsung", DeviceModel: "Galaxy S21"}
	assert.Equal(t, "Samsung Galaxy S21", booking.DeviceLabel())
}
