package models

import (
	"time"
)

const (
	OrderStatusPending    = "Pending"
	OrderStatusConfirmed  = "Confirmed"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "Online"
	PaymentMethodUPI    = "UPI"
)

const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

var (
	OrderStatuses   = []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled}
	PaymentMethods  = []string{PaymentMethodCOD, PaymentMethodOnline, PaymentMethodUPI}
	PaymentStatuses = []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded}
)

// ShippingAddress is the delivery address captured with an order
type ShippingAddress struct {
	Name    string `gorm:"column:shipping_name;not null" json:"name"`
	Phone   string `gorm:"column:shipping_phone;not null" json:"phone"`
	Email   string `gorm:"column:shipping_email" json:"email,omitempty"`
	Street  string `gorm:"column:shipping_street;not null" json:"street"`
	City    string `gorm:"column:shipping_city;not null" json:"city"`
	State   string `gorm:"column:shipping_state;not null" json:"state"`
	Pincode string `gorm:"column:shipping_pincode;not null" json:"pincode"`
}

// Order represents a customer purchase of catalog products
type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNumber        string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	ShippingAddress    ShippingAddress `gorm:"embedded" json:"shipping_address"`
	PaymentMethod      string          `gorm:"not null;default:'COD'" json:"payment_method"`
	PaymentStatus      string          `gorm:"not null;default:'Pending'" json:"payment_status"`
	OrderStatus        string          `gorm:"not null;default:'Pending';index" json:"order_status"`
	Subtotal           float64         `gorm:"not null" json:"subtotal"`
	ShippingFee        float64         `gorm:"not null;default:0" json:"shipping_fee"`
	Tax                float64         `gorm:"not null;default:0" json:"tax"`
	Total              float64         `gorm:"not null" json:"total"`
	Notes              string          `gorm:"type:text" json:"notes,omitempty"`
	TrackingNumber     *string         `json:"tracking_number,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsCancellable reports whether the owner may still cancel the order
func (o *Order) IsCancellable() bool {
	return o.OrderStatus == OrderStatusPending || o.OrderStatus == OrderStatusConfirmed
}

// OrderItem is one product line of an order, priced at purchase time
type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	OrderID   uint     `gorm:"not null;index" json:"order_id"`
	ProductID uint     `gorm:"not null;index" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int      `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     float64  `gorm:"not null" json:"price"`
	Total     float64  `gorm:"not null" json:"total"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Contains reports whether value is present in set
func Contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
