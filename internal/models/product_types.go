package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
type Product struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Slug        string  `json:"slug" db:"slug"`
	SKU         string  `json:"sku" db:"sku"`
	Description *string `json:"description,omitempty" db:"description"`

	Price        decimal.Decimal  `json:"price" db:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty" db:"compare_price"`

	// Stock invariant: when TrackQuantity is set, Quantity never goes
	// negative; it is only decremented inside an order transaction.
	Quantity      int  `json:"quantity" db:"quantity"`
	TrackQuantity bool `json:"trackQuantity" db:"track_quantity"`

	// Weight in kilograms; nil falls back to the 0.5kg shipping default.
	Weight *float64 `json:"weight,omitempty" db:"weight"`

	IsActive   bool   `json:"isActive" db:"is_active"`
	CategoryID *int64 `json:"categoryId,omitempty" db:"category_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins, populated manually.
	Images   []ProductImage   `json:"images,omitempty" db:"-"`
	Variants []ProductVariant `json:"variants,omitempty" db:"-"`
	Category *Category        `json:"category,omitempty" db:"-"`
}

// ProductVariant is the model for the 'product_variants' table.
// A variant price, when present, overrides the product price; the stock
// invariant is evaluated per variant, independent of the parent.
type ProductVariant struct {
	ID        int64            `json:"id" db:"id"`
	ProductID int64            `json:"productId" db:"product_id"`
	Name      string           `json:"name" db:"name"`
	SKU       string           `json:"sku" db:"sku"`
	Price     *decimal.Decimal `json:"price,omitempty" db:"price"`
	Quantity  int              `json:"quantity" db:"quantity"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

// ProductImage is the model for the 'product_images' table.
type ProductImage struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Alt       *string   `json:"alt,omitempty" db:"alt"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
