package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notification summaries reported with an admin booking update
const (
	SMSSummarySent    = "SMS notification sent"
	SMSSummaryFailed  = "SMS failed to send"
	SMSSummaryNotSent = "No SMS sent"
)

// CustomerInput is the contact block of a booking request
type CustomerInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,phone10"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=500"`
}

// CreateBookingInput is the payload for a new repair booking
type CreateBookingInput struct {
	DeviceBrand      string        `json:"device_brand" validate:"required,max=50"`
	DeviceModel      string        `json:"device_model" validate:"max=100"`
	ServiceType      string        `json:"service_type" validate:"required,max=100"`
	DeliveryOption   string        `json:"delivery_option" validate:"max=50"`
	Customer         CustomerInput `json:"customer_details"`
	IssueDescription string        `json:"issue_description" validate:"required,max=1000"`
	PreferredDate    string        `json:"preferred_date" validate:"max=50"`
	PreferredTime    string        `json:"preferred_time" validate:"max=50"`
	Notes            string        `json:"notes" validate:"max=1000"`
}

func (in *CreateBookingInput) trim() {
	for _, s := range []*string{
		&in.DeviceBrand, &in.DeviceModel, &in.ServiceType, &in.DeliveryOption,
		&in.Customer.Name, &in.Customer.Phone, &in.Customer.Email, &in.Customer.Address,
		&in.IssueDescription, &in.PreferredDate, &in.PreferredTime, &in.Notes,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// AdminBookingPatch carries the fields an admin may change. Nil fields are left untouched.
type AdminBookingPatch struct {
	Status        *string  `json:"status" validate:"omitempty,oneof=pending accepted in-progress completed cancelled"`
	EstimatedCost *float64 `json:"estimated_cost" validate:"omitempty,gte=0"`
	AdminNotes    *string  `json:"admin_notes" validate:"omitempty,max=1000"`
}

// NotificationOutcome reports what happened to the customer notification of an update
type NotificationOutcome struct {
	Attempted bool                `json:"attempted"`
	Result    *NotificationResult `json:"result,omitempty"`
}

// Summary is the human readable form of the outcome
func (o NotificationOutcome) Summary() string {
	switch {
	case !o.Attempted:
		return SMSSummaryNotSent
	case o.Result != nil && o.Result.Success:
		return SMSSummarySent
	default:
		return SMSSummaryFailed
	}
}

// BookingFilter selects bookings for the admin listing
type BookingFilter struct {
	Status string
	PageQuery
}

// StatusCount is the number of bookings holding one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardStats summarizes the store for the admin dashboard
type DashboardStats struct {
	TotalUsers     int64                  `json:"total_users"`
	TotalOrders    int64                  `json:"total_orders"`
	TotalBookings  int64                  `json:"total_bookings"`
	TotalProducts  int64                  `json:"total_products"`
	BookingStats   []StatusCount          `json:"booking_stats"`
	RecentOrders   []models.Order         `json:"recent_orders"`
	RecentBookings []models.RepairBooking `json:"recent_bookings"`
}

var (
	errBookingNotFound = utils.NewNotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	errBookingTerminal = utils.NewConflictError("BOOKING_TERMINAL", "Cannot change the status of a completed or cancelled booking")
)

// BookingService manages the repair booking lifecycle
type BookingService struct {
	db          *gorm.DB
	dispatcher  *NotificationDispatcher
	events      EventPublisher
	images      ImageService
	doorstepFee float64
	logger      *zap.Logger
}

var bookingServiceInstance *BookingService

// InitBookingService initializes the global booking service
func InitBookingService(db *gorm.DB, dispatcher *NotificationDispatcher, events EventPublisher, images ImageService, cfg *config.Config) *BookingService {
	bookingServiceInstance = NewBookingService(db, dispatcher, events, images, cfg)
	return bookingServiceInstance
}

// GetBookingService returns the global booking service
func GetBookingService() *BookingService {
	return bookingServiceInstance
}

// SetBookingService replaces the global booking service (primarily for testing)
func SetBookingService(svc *BookingService) {
	bookingServiceInstance = svc
}

// NewBookingService wires a booking service. dispatcher and images may be nil.
func NewBookingService(db *gorm.DB, dispatcher *NotificationDispatcher, events EventPublisher, images ImageService, cfg *config.Config) *BookingService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &BookingService{
		db:          db,
		dispatcher:  dispatcher,
		events:      events,
		images:      images,
		doorstepFee: cfg.DoorstepServiceFee,
		logger:      utils.GetLogger(),
	}
}

// ServiceFeeFor returns the surcharge of a delivery option
func (s *BookingService) ServiceFeeFor(deliveryOption string) float64 {
	if deliveryOption == models.DeliveryOptionDoorstep {
		return s.doorstepFee
	}
	return 0
}

// CreateBooking persists a new booking. A nil caller creates a guest booking.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput, caller *Identity) (*models.RepairBooking, error) {
	ctx, span := utils.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	in.trim()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if in.DeviceModel == "" {
		in.DeviceModel = models.DefaultDeviceModel
	}
	if in.DeliveryOption == "" {
		in.DeliveryOption = models.DeliveryOptionDoorstep
	}
	fee := s.ServiceFeeFor(in.DeliveryOption)

	booking := models.RepairBooking{
		DeviceBrand:    in.DeviceBrand,
		DeviceModel:    in.DeviceModel,
		ServiceType:    in.ServiceType,
		DeliveryOption: in.DeliveryOption,
		Customer: models.CustomerDetails{
			Name:    in.Customer.Name,
			Phone:   in.Customer.Phone,
			Email:   in.Customer.Email,
			Address: in.Customer.Address,
		},
		IssueDescription: in.IssueDescription,
		ServiceFee:       fee,
		TotalCost:        fee,
		Status:           models.BookingStatusPending,
		PreferredDate:    in.PreferredDate,
		PreferredTime:    in.PreferredTime,
		Notes:            in.Notes,
		IsGuestBooking:   true,
	}
	kind := "guest"
	if caller != nil {
		userID := caller.UserID
		booking.UserID = &userID
		booking.IsGuestBooking = false
		kind = "user"
	}

	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to create booking", err)
	}

	utils.BookingsCreatedTotal.WithLabelValues(kind).Inc()
	s.logger.Info("repair booking created",
		zap.String("booking_id", booking.ID),
		zap.String("kind", kind),
		zap.Float64("service_fee", fee))
	publishBestEffort(ctx, s.events, NewEvent(EventTypeBookingCreated, booking.ID, &booking))

	return &booking, nil
}

// ListOwnBookings returns the caller's bookings, newest first
func (s *BookingService) ListOwnBookings(ctx context.Context, caller *Identity) ([]models.RepairBooking, error) {
	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}

	var bookings []models.RepairBooking
	err := s.db.WithContext(ctx).
		Where("user_id = ?", caller.UserID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load bookings", err)
	}

	for i := range bookings {
		s.attachPhotoURL(ctx, &bookings[i])
	}
	return bookings, nil
}

// GetOwnBooking returns a booking owned by the caller. Bookings of other
// users are reported as not found.
func (s *BookingService) GetOwnBooking(ctx context.Context, id string, caller *Identity) (*models.RepairBooking, error) {
	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}

	booking, err := s.loadOwned(ctx, s.db, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	s.attachPhotoURL(ctx, booking)
	return booking, nil
}

// CancelOwnBooking moves a non-terminal booking owned by the caller to cancelled
func (s *BookingService) CancelOwnBooking(ctx context.Context, id string, caller *Identity) (*models.RepairBooking, error) {
	ctx, span := utils.StartSpan(ctx, "BookingService.CancelOwnBooking")
	defer span.End()

	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}
	db := s.db.WithContext(ctx)

	booking, err := s.loadOwned(ctx, db, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	if booking.IsTerminal() {
		return nil, errBookingTerminal
	}
	oldStatus := booking.Status

	result := db.Model(&models.RepairBooking{}).
		Where("id = ? AND user_id = ? AND status NOT IN ?", id, caller.UserID,
			[]string{models.BookingStatusCompleted, models.BookingStatusCancelled}).
		Update("status", models.BookingStatusCancelled)
	if result.Error != nil {
		return nil, utils.NewUnexpectedError("Failed to cancel booking", result.Error)
	}
	if result.RowsAffected == 0 {
		// reached a terminal status between the read and the write
		return nil, errBookingTerminal
	}

	booking, err = s.loadOwned(ctx, db, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	s.recordStatusChange(ctx, booking.ID, oldStatus, booking.Status, "owner")
	s.attachPhotoURL(ctx, booking)
	return booking, nil
}

// AdminUpdateBooking applies patch and, when the status changed, notifies the
// customer. The update is committed before the notification is attempted and
// a notification failure never fails the update.
func (s *BookingService) AdminUpdateBooking(ctx context.Context, id string, patch AdminBookingPatch) (*models.RepairBooking, NotificationOutcome, error) {
	ctx, span := utils.StartSpan(ctx, "BookingService.AdminUpdateBooking")
	defer span.End()

	var outcome NotificationOutcome
	if err := validateStruct(patch); err != nil {
		return nil, outcome, err
	}
	db := s.db.WithContext(ctx)

	booking, err := s.load(ctx, db, id)
	if err != nil {
		return nil, outcome, err
	}
	oldStatus := booking.Status
	statusChanged := patch.Status != nil && *patch.Status != oldStatus

	if statusChanged && booking.IsTerminal() {
		return nil, outcome, errBookingTerminal
	}

	updates := map[string]interface{}{}
	if statusChanged {
		updates["status"] = *patch.Status
	}
	if patch.EstimatedCost != nil {
		updates["estimated_cost"] = *patch.EstimatedCost
		updates["total_cost"] = *patch.EstimatedCost + booking.ServiceFee
	}
	if patch.AdminNotes != nil {
		updates["admin_notes"] = *patch.AdminNotes
	}

	if len(updates) > 0 {
		// guarded on the status that was read so a concurrent transition is not overwritten
		result := db.Model(&models.RepairBooking{}).
			Where("id = ? AND status = ?", id, oldStatus).
			Updates(updates)
		if result.Error != nil {
			return nil, outcome, utils.NewUnexpectedError("Failed to update booking", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, outcome, utils.NewConflictError("BOOKING_MODIFIED", "Booking was modified by another request, please retry")
		}

		if booking, err = s.load(ctx, db, id); err != nil {
			return nil, outcome, err
		}
	}

	if statusChanged {
		s.recordStatusChange(ctx, booking.ID, oldStatus, booking.Status, "admin")
		outcome = s.notifyStatusChange(ctx, booking)
	}

	s.attachPhotoURL(ctx, booking)
	return booking, outcome, nil
}

// notifyStatusChange dispatches the customer SMS. It never returns an error.
func (s *BookingService) notifyStatusChange(ctx context.Context, booking *models.RepairBooking) NotificationOutcome {
	if s.dispatcher == nil {
		return NotificationOutcome{}
	}

	result := s.dispatcher.SendStatusUpdate(ctx, booking, booking.Status)
	if result.Success {
		s.logger.Info("status SMS sent", zap.String("booking_id", booking.ID), zap.String("status", booking.Status))
	} else {
		s.logger.Warn("status SMS failed", zap.String("booking_id", booking.ID), zap.String("error", result.Error))
	}
	return NotificationOutcome{Attempted: true, Result: &result}
}

// AdminListBookings returns one page of bookings, newest first
func (s *BookingService) AdminListBookings(ctx context.Context, filter BookingFilter) ([]models.RepairBooking, Pagination, error) {
	page := filter.PageQuery.normalize()
	query := s.db.WithContext(ctx).Model(&models.RepairBooking{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to count bookings", err)
	}

	var bookings []models.RepairBooking
	err := query.Preload("User").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&bookings).Error
	if err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to load bookings", err)
	}

	for i := range bookings {
		s.attachPhotoURL(ctx, &bookings[i])
	}
	return bookings, newPagination(page, total), nil
}

// AdminDeleteBooking removes a booking regardless of its status
func (s *BookingService) AdminDeleteBooking(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)

	booking, err := s.load(ctx, db, id)
	if err != nil {
		return err
	}

	result := db.Delete(&models.RepairBooking{}, "id = ?", id)
	if result.Error != nil {
		return utils.NewUnexpectedError("Failed to delete booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return errBookingNotFound
	}

	if booking.PhotoS3Key != nil && s.images != nil {
		if err := s.images.DeletePhoto(ctx, *booking.PhotoS3Key); err != nil {
			s.logger.Warn("failed to delete booking photo", zap.String("booking_id", id), zap.Error(err))
		}
	}
	s.logger.Info("repair booking deleted", zap.String("booking_id", id))
	return nil
}

// AttachPhoto stores a device photo for a booking owned by the caller
func (s *BookingService) AttachPhoto(ctx context.Context, id string, caller *Identity, fileHeader *multipart.FileHeader) (*models.RepairBooking, error) {
	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}
	if s.images == nil {
		return nil, &utils.AppError{Kind: utils.KindUnexpected, Code: "PHOTO_STORAGE_UNAVAILABLE", Message: "Photo storage is not configured"}
	}
	db := s.db.WithContext(ctx)

	booking, err := s.loadOwned(ctx, db, id, caller.UserID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.UploadBookingPhoto(ctx, booking.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, &utils.AppError{Kind: utils.KindValidation, Code: uploadErr.Code, Message: uploadErr.Message}
		}
		return nil, utils.NewUnexpectedError("Failed to upload photo", err)
	}

	if err := db.Model(&models.RepairBooking{}).Where("id = ?", booking.ID).Update("photo_s3_key", key).Error; err != nil {
		_ = s.images.DeletePhoto(ctx, key)
		return nil, utils.NewUnexpectedError("Failed to save photo", err)
	}

	if booking.PhotoS3Key != nil {
		if err := s.images.DeletePhoto(ctx, *booking.PhotoS3Key); err != nil {
			s.logger.Warn("failed to delete replaced photo", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}

	booking.PhotoS3Key = &key
	s.attachPhotoURL(ctx, booking)
	return booking, nil
}

// Dashboard collects the admin dashboard counters
func (s *BookingService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	counts := []struct {
		model interface{}
		scope func(*gorm.DB) *gorm.DB
		out   *int64
	}{
		{&models.User{}, func(q *gorm.DB) *gorm.DB { return q.Where("role = ?", models.RoleUser) }, &stats.TotalUsers},
		{&models.Order{}, nil, &stats.TotalOrders},
		{&models.RepairBooking{}, nil, &stats.TotalBookings},
		{&models.Product{}, nil, &stats.TotalProducts},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.scope != nil {
			q = c.scope(q)
		}
		if err := q.Count(c.out).Error; err != nil {
			return nil, utils.NewUnexpectedError("Failed to load dashboard", err)
		}
	}

	err := db.Model(&models.RepairBooking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&stats.BookingStats).Error
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load dashboard", err)
	}

	if err := db.Preload("Items").Order("created_at DESC").Limit(5).Find(&stats.RecentOrders).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to load dashboard", err)
	}
	if err := db.Preload("User").Order("created_at DESC").Limit(10).Find(&stats.RecentBookings).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to load dashboard", err)
	}

	return stats, nil
}

func (s *BookingService) load(ctx context.Context, db *gorm.DB, id string) (*models.RepairBooking, error) {
	var booking models.RepairBooking
	err := db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBookingNotFound
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load booking", err)
	}
	return &booking, nil
}

func (s *BookingService) loadOwned(ctx context.Context, db *gorm.DB, id string, userID uint) (*models.RepairBooking, error) {
	var booking models.RepairBooking
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBookingNotFound
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load booking", err)
	}
	return &booking, nil
}

func (s *BookingService) recordStatusChange(ctx context.Context, id, from, to, by string) {
	utils.BookingStatusChangesTotal.WithLabelValues(to).Inc()
	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("by", by))
	publishBestEffort(ctx, s.events, NewEvent(EventTypeBookingStatusChanged, id, BookingStatusChangedData{
		BookingID:  id,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
	}))
}

func (s *BookingService) attachPhotoURL(ctx context.Context, booking *models.RepairBooking) {
	if booking.PhotoS3Key == nil || s.images == nil {
		return
	}
	url, err := s.images.GetPhotoURL(ctx, *booking.PhotoS3Key)
	if err != nil {
		s.logger.Warn("failed to presign booking photo", zap.String("booking_id", booking.ID), zap.Error(err))
		return
	}
	booking.PhotoURL = &url
}
