package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
)

const (
	templateGeneric = "generic"
	templateCustom  = "custom"
)

// NotificationResult is the outcome of one dispatch attempt. Failures are
// reported here and never returned as errors.
type NotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NotificationDispatcher formats customer messages and sends them through an SMSGateway
type NotificationDispatcher struct {
	gateway      SMSGateway
	businessName string
	contactPhone string
	timeout      time.Duration
	logger       *zap.Logger
}

var notificationDispatcherInstance *NotificationDispatcher

// NewNotificationDispatcher creates a dispatcher using the business identity from cfg
func NewNotificationDispatcher(gateway SMSGateway, cfg *config.Config) *NotificationDispatcher {
	return &NotificationDispatcher{
		gateway:      gateway,
		businessName: cfg.BusinessName,
		contactPhone: cfg.BusinessContactPhone,
		timeout:      cfg.SMSTimeout,
		logger:       utils.GetLogger(),
	}
}

// InitNotificationDispatcher creates the global dispatcher
func InitNotificationDispatcher(gateway SMSGateway, cfg *config.Config) *NotificationDispatcher {
	notificationDispatcherInstance = NewNotificationDispatcher(gateway, cfg)
	return notificationDispatcherInstance
}

// GetNotificationDispatcher returns the global dispatcher
func GetNotificationDispatcher() *NotificationDispatcher {
	return notificationDispatcherInstance
}

// SetNotificationDispatcher replaces the global dispatcher (primarily for testing)
func SetNotificationDispatcher(d *NotificationDispatcher) {
	notificationDispatcherInstance = d
}

// StatusMessage renders the customer message for a booking moving to status
func (d *NotificationDispatcher) StatusMessage(customerName, device, status string) (template, message string) {
	switch status {
	case models.BookingStatusAccepted:
		return status, fmt.Sprintf("Hi %s, your %s repair request has been accepted by %s. We'll start working on it soon.",
			customerName, device, d.businessName)
	case models.BookingStatusInProgress:
		return status, fmt.Sprintf("Hi %s, good news! Your %s repair is now in progress at %s. Our technician is working on it.",
			customerName, device, d.businessName)
	case models.BookingStatusCompleted:
		return status, fmt.Sprintf("Great news %s! Your %s repair is completed at %s. Please visit us to collect your device. Contact: %s",
			customerName, device, d.businessName, d.contactPhone)
	case models.BookingStatusCancelled:
		return status, fmt.Sprintf("Hi %s, unfortunately your %s repair request has been cancelled. Please contact %s at %s for details.",
			customerName, device, d.businessName, d.contactPhone)
	default:
		return templateGeneric, fmt.Sprintf("Hi %s, your %s repair status has been updated to %s. Contact %s at %s for details.",
			customerName, device, status, d.businessName, d.contactPhone)
	}
}

// CustomMessage wraps free text with the standard salutation and signature
func (d *NotificationDispatcher) CustomMessage(customerName, text string) string {
	return fmt.Sprintf("Hi %s, %s - %s (%s)", customerName, text, d.businessName, d.contactPhone)
}

// SendStatusUpdate notifies the booking's customer about newStatus
func (d *NotificationDispatcher) SendStatusUpdate(ctx context.Context, booking *models.RepairBooking, newStatus string) NotificationResult {
	template, message := d.StatusMessage(booking.Customer.Name, booking.DeviceLabel(), newStatus)
	return d.send(ctx, template, booking.Customer.Phone, message)
}

// SendCustomMessage sends an ad-hoc message to phone
func (d *NotificationDispatcher) SendCustomMessage(ctx context.Context, phone, customerName, text string) NotificationResult {
	return d.send(ctx, templateCustom, phone, d.CustomMessage(customerName, text))
}

func (d *NotificationDispatcher) send(ctx context.Context, template, phone, message string) (result NotificationResult) {
	ctx, span := utils.StartSpan(ctx, "NotificationDispatcher.send")
	defer span.End()

	normalized := utils.NormalizePhone(phone)
	result = NotificationResult{Phone: normalized, Message: message}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("SMS gateway panicked", zap.Any("panic", r), zap.String("template", template))
			result.Success = false
			result.MessageID = ""
			result.Error = fmt.Sprintf("SMS gateway failure: %v", r)
		}
		outcome := "failed"
		if result.Success {
			outcome = "sent"
		}
		utils.SMSNotificationsTotal.WithLabelValues(template, outcome).Inc()
	}()

	if len(normalized) != 10 {
		result.Error = "Invalid phone number format"
		d.logger.Warn("SMS not sent, invalid phone number", zap.String("phone", phone), zap.String("template", template))
		return result
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	messageID, err := d.gateway.Send(ctx, normalized, message)
	if err != nil {
		result.Error = err.Error()
		d.logger.Warn("SMS sending failed", zap.String("phone", normalized), zap.String("template", template), zap.Error(err))
		return result
	}

	result.Success = true
	result.MessageID = messageID
	d.logger.Info("SMS sent", zap.String("phone", normalized), zap.String("template", template), zap.String("message_id", messageID))
	return result
}
