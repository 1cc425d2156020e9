package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultUserCancellationReason  = "Cancelled by user"
	defaultAdminCancellationReason = "Cancelled by admin"
)

// OrderItemInput is one requested cart line
type OrderItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=100"`
}

// ShippingAddressInput is the delivery address of a new order
type ShippingAddressInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,phone10"`
	Email   string `json:"email" validate:"omitempty,email"`
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	Pincode string `json:"pincode" validate:"required,max=10"`
}

// CreateOrderInput is the payload for placing an order
type CreateOrderInput struct {
	Items           []OrderItemInput     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressInput `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method" validate:"omitempty,oneof=COD Online UPI"`
	Notes           string               `json:"notes" validate:"max=500"`
}

// AdminOrderPatch carries the order fields an admin may change
type AdminOrderPatch struct {
	OrderStatus    *string `json:"order_status" validate:"omitempty,oneof=Pending Confirmed Processing Shipped Delivered Cancelled"`
	PaymentStatus  *string `json:"payment_status" validate:"omitempty,oneof=Pending Paid Failed Refunded"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=100"`
}

// OrderFilter selects orders for the admin listing
type OrderFilter struct {
	Status string
	PageQuery
}

var (
	errOrderNotFound       = utils.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	errOrderNotCancellable = utils.NewConflictError("ORDER_NOT_CANCELLABLE", "Cannot cancel this order")
	errOrderTerminal       = utils.NewConflictError("ORDER_TERMINAL", "Cannot change the status of a delivered or cancelled order")
)

// OrderService manages orders and the stock they consume
type OrderService struct {
	db      *gorm.DB
	pricing Pricing
	numbers *OrderNumberGenerator
	events  EventPublisher
	now     func() time.Time
	logger  *zap.Logger
}

var orderServiceInstance *OrderService

// InitOrderService initializes the global order service
func InitOrderService(db *gorm.DB, events EventPublisher, cfg *config.Config) *OrderService {
	orderServiceInstance = NewOrderService(db, events, cfg)
	return orderServiceInstance
}

// GetOrderService returns the global order service
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// SetOrderService replaces the global order service (primarily for testing)
func SetOrderService(svc *OrderService) {
	orderServiceInstance = svc
}

// NewOrderService creates an order service with its own order number sequence
func NewOrderService(db *gorm.DB, events EventPublisher, cfg *config.Config) *OrderService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &OrderService{
		db:      db,
		pricing: NewPricing(cfg),
		numbers: NewOrderNumberGenerator(cfg.OrderNumberPrefix),
		events:  events,
		now:     time.Now,
		logger:  utils.GetLogger(),
	}
}

// maxOrderNumberAttempts bounds the retries after another instance took the same number
const maxOrderNumberAttempts = 5

// insertWithOrderNumber assigns a fresh order number and inserts order. Each
// attempt runs under a savepoint so a unique-index collision only rolls back
// the insert and the stock decrements of tx stay in place.
func (s *OrderService) insertWithOrderNumber(tx *gorm.DB, order *models.Order) error {
	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.numbers.Next()
		err = tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(order).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.logger.Warn("order number taken, retrying",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt))
	}
	return utils.NewUnexpectedError("Failed to create order", err)
}

// CreateOrder validates stock, decrements it and persists the order in one
// transaction. Each decrement is conditional on the remaining stock, so a
// failing line rolls back every earlier decrement and concurrent orders
// cannot overdraw a product.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, caller *Identity) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}
	trimAddress(&in.ShippingAddress)
	if err := validateStruct(in); err != nil {
		utils.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodCOD
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))

		for _, item := range in.Items {
			var product models.Product
			err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewValidationError(fmt.Sprintf("Product not found: %d", item.ProductID))
			}
			if err != nil {
				return utils.NewUnexpectedError("Failed to load product", err)
			}

			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return utils.NewUnexpectedError("Failed to reserve stock", result.Error)
			}
			if result.RowsAffected == 0 {
				return utils.NewConflictError("INSUFFICIENT_STOCK", fmt.Sprintf("Insufficient stock for %s", product.Name))
			}

			line := LineTotal(product.Price, item.Quantity)
			subtotal = subtotal.Add(line)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
				Total:     line.InexactFloat64(),
			})
		}

		totals := s.pricing.Totals(subtotal)
		order = models.Order{
			UserID:          caller.UserID,
			Items:           items,
			ShippingAddress: shippingAddressFrom(in.ShippingAddress),
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			Subtotal:        totals.Subtotal.InexactFloat64(),
			ShippingFee:     totals.ShippingFee.InexactFloat64(),
			Tax:             totals.Tax.InexactFloat64(),
			Total:           totals.Total.InexactFloat64(),
			Notes:           strings.TrimSpace(in.Notes),
		}
		return s.insertWithOrderNumber(tx, &order)
	})
	if err != nil {
		reason := "error"
		switch {
		case utils.IsKind(err, utils.KindConflict):
			reason = "insufficient_stock"
		case utils.IsKind(err, utils.KindValidation):
			reason = "product_not_found"
		}
		utils.OrdersFailedTotal.WithLabelValues(reason).Inc()
		return nil, err
	}

	utils.OrdersCreatedTotal.Inc()
	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", order.UserID),
		zap.Float64("total", order.Total))
	publishBestEffort(ctx, s.events, NewEvent(EventTypeOrderPlaced, order.OrderNumber, orderEventData(&order, "")))

	return s.loadOwned(ctx, s.db, order.ID, caller.UserID)
}

// ListOwnOrders returns the caller's orders, newest first
func (s *OrderService) ListOwnOrders(ctx context.Context, caller *Identity) ([]models.Order, error) {
	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", caller.UserID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load orders", err)
	}
	return orders, nil
}

// GetOwnOrder returns one order of the caller
func (s *OrderService) GetOwnOrder(ctx context.Context, id uint, caller *Identity) (*models.Order, error) {
	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}
	return s.loadOwned(ctx, s.db, id, caller.UserID)
}

// CancelOwnOrder cancels a Pending or Confirmed order and restores its stock
func (s *OrderService) CancelOwnOrder(ctx context.Context, id uint, caller *Identity, reason string) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "OrderService.CancelOwnOrder")
	defer span.End()

	if caller == nil {
		return nil, utils.NewAuthError("AUTH_REQUIRED", "Authentication required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultUserCancellationReason
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = s.loadOwned(ctx, tx, id, caller.UserID); err != nil {
			return err
		}
		if !order.IsCancellable() {
			return errOrderNotCancellable
		}
		return s.cancelInTx(tx, order, []string{models.OrderStatusPending, models.OrderStatusConfirmed}, reason)
	})
	if err != nil {
		return nil, err
	}

	s.afterCancel(ctx, order, reason, "owner")
	return s.loadOwned(ctx, s.db, id, caller.UserID)
}

// AdminListOrders returns one page of orders, newest first
func (s *OrderService) AdminListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, Pagination, error) {
	page := filter.PageQuery.normalize()
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("order_status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to count orders", err)
	}

	var orders []models.Order
	err := query.Preload("Items.Product").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&orders).Error
	if err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to load orders", err)
	}
	return orders, newPagination(page, total), nil
}

// AdminUpdateOrder changes status, payment status or tracking number.
// Delivered stamps the delivery time; Cancelled restores stock.
func (s *OrderService) AdminUpdateOrder(ctx context.Context, id uint, patch AdminOrderPatch) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "OrderService.AdminUpdateOrder")
	defer span.End()

	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var (
		order     *models.Order
		cancelled bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = s.load(ctx, tx, id); err != nil {
			return err
		}
		oldStatus := order.OrderStatus
		statusChanged := patch.OrderStatus != nil && *patch.OrderStatus != oldStatus

		if statusChanged && isTerminalOrderStatus(oldStatus) {
			return errOrderTerminal
		}
		if statusChanged && *patch.OrderStatus == models.OrderStatusCancelled {
			if err := s.cancelInTx(tx, order, []string{oldStatus}, defaultAdminCancellationReason); err != nil {
				return err
			}
			cancelled = true
		}

		updates := map[string]interface{}{}
		if statusChanged && !cancelled {
			updates["order_status"] = *patch.OrderStatus
			if *patch.OrderStatus == models.OrderStatusDelivered {
				updates["delivered_at"] = s.now()
			}
		}
		if patch.PaymentStatus != nil {
			updates["payment_status"] = *patch.PaymentStatus
		}
		if patch.TrackingNumber != nil {
			updates["tracking_number"] = strings.TrimSpace(*patch.TrackingNumber)
		}
		if len(updates) == 0 {
			return nil
		}

		q := tx.Model(&models.Order{}).Where("id = ?", id)
		if statusChanged && !cancelled {
			q = q.Where("order_status = ?", oldStatus)
		}
		result := q.Updates(updates)
		if result.Error != nil {
			return utils.NewUnexpectedError("Failed to update order", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.NewConflictError("ORDER_MODIFIED", "Order was modified by another request, please retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		s.afterCancel(ctx, order, defaultAdminCancellationReason, "admin")
	}
	return s.load(ctx, s.db, id)
}

// cancelInTx marks the order cancelled if it still holds one of fromStatuses and restores stock
func (s *OrderService) cancelInTx(tx *gorm.DB, order *models.Order, fromStatuses []string, reason string) error {
	result := tx.Model(&models.Order{}).
		Where("id = ? AND order_status IN ?", order.ID, fromStatuses).
		Updates(map[string]interface{}{
			"order_status":        models.OrderStatusCancelled,
			"cancelled_at":        s.now(),
			"cancellation_reason": reason,
		})
	if result.Error != nil {
		return utils.NewUnexpectedError("Failed to cancel order", result.Error)
	}
	if result.RowsAffected == 0 {
		return errOrderNotCancellable
	}

	for _, item := range order.Items {
		err := tx.Unscoped().Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
		if err != nil {
			return utils.NewUnexpectedError("Failed to restore stock", err)
		}
	}
	return nil
}

func (s *OrderService) afterCancel(ctx context.Context, order *models.Order, reason, by string) {
	utils.OrdersCancelledTotal.Inc()
	s.logger.Info("order cancelled",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("by", by))
	publishBestEffort(ctx, s.events, NewEvent(EventTypeOrderCancelled, order.OrderNumber, orderEventData(order, reason)))
}

func (s *OrderService) load(ctx context.Context, db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).Preload("Items.Product").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load order", err)
	}
	return &order, nil
}

func (s *OrderService) loadOwned(ctx context.Context, db *gorm.DB, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).
		Preload("Items.Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load order", err)
	}
	return &order, nil
}

func isTerminalOrderStatus(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

func trimAddress(a *ShippingAddressInput) {
	for _, s := range []*string{&a.Name, &a.Phone, &a.Email, &a.Street, &a.City, &a.State, &a.Pincode} {
		*s = strings.TrimSpace(*s)
	}
}

func shippingAddressFrom(a ShippingAddressInput) models.ShippingAddress {
	return models.ShippingAddress{
		Name:    a.Name,
		Phone:   a.Phone,
		Email:   strings.ToLower(a.Email),
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
	}
}

func orderEventData(order *models.Order, reason string) OrderEventData {
	return OrderEventData{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Reason:      reason,
	}
}
