package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the model for the 'carts' table. Exactly one of UserID /
// SessionID identifies the owner.
type Cart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *int64    `json:"userId,omitempty" db:"user_id"`
	SessionID *string   `json:"sessionId,omitempty" db:"session_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Computed at read time.
	Items      []CartItem      `json:"items" db:"-"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"-"`
	TotalItems int             `json:"totalItems" db:"-"`
}

// CartItem is the model for the 'cart_items' table. Price is a snapshot
// taken at add-to-cart time; display always re-reads the live price.
type CartItem struct {
	ID         int64           `json:"id" db:"id"`
	CartID     int64           `json:"cartId" db:"cart_id"`
	ProductID  int64           `json:"productId" db:"product_id"`
	VariantID  *int64          `json:"variantId,omitempty" db:"variant_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Attributes json.RawMessage `json:"attributes,omitempty" db:"attributes"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`

	// Joined from the catalog at read time.
	Name      string          `json:"name,omitempty" db:"-"`
	SKU       string          `json:"sku,omitempty" db:"-"`
	LineTotal decimal.Decimal `json:"lineTotal" db:"-"`
	Available int             `json:"available" db:"-"`
}
