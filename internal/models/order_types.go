package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRefunded   = "refunded"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Order is the model for the 'orders' table. Address snapshots are
// immutable after creation.
type Order struct {
	ID          int64  `json:"id" db:"id"`
	OrderNumber string `json:"orderNumber" db:"order_number"`
	UserID      *int64 `json:"userId,omitempty" db:"user_id"` // nil for guest orders

	Status        string  `json:"status" db:"status"`
	PaymentStatus string  `json:"paymentStatus" db:"payment_status"`
	PaymentMethod string  `json:"paymentMethod" db:"payment_method"`
	CouponCode    *string `json:"couponCode,omitempty" db:"coupon_code"`

	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount" db:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shippingAmount" db:"shipping_amount"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Currency       string          `json:"currency" db:"currency"`

	ShippingAddress json.RawMessage `json:"shippingAddress" db:"shipping_address"`
	BillingAddress  json.RawMessage `json:"billingAddress" db:"billing_address"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table: a point-in-time
// snapshot of the purchased line, never updated after creation.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"orderId" db:"order_id"`
	ProductID   int64           `json:"productId" db:"product_id"`
	VariantID   *int64          `json:"variantId,omitempty" db:"variant_id"`
	ProductName string          `json:"productName" db:"product_name"`
	SKU         string          `json:"sku" db:"sku"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Total       decimal.Decimal `json:"total" db:"total"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// orderTransitions is the enforced status machine: cancelled and
// refunded are terminal, delivery flows forward only.
var orderTransitions = map[string][]string{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled, OrderRefunded},
	OrderShipped:    {OrderDelivered, OrderRefunded},
	OrderDelivered:  {OrderRefunded},
	OrderCancelled:  {},
	OrderRefunded:   {},
}

var paymentTransitions = map[string][]string{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentFailed:   {PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: {},
}

// CanTransitionOrder reports whether an admin may move an order from
// one status to another.
func CanTransitionOrder(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether a payment status change is
// allowed.
func CanTransitionPayment(from, to string) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s names a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// ValidPaymentStatus reports whether s names a known payment status.
func ValidPaymentStatus(s string) bool {
	_, ok := paymentTransitions[s]
	return ok
}
