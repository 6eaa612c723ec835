package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/checkout"
	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/models"
	"github.com/vendora/vendora-golang/internal/settings"
)

//
// --- Checkout Handlers ---
//

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// checkoutConfig snapshots the pricing settings for one request.
func (h *Handlers) checkoutConfig(ctx context.Context) checkout.Config {
	return checkout.Config{
		TaxEnabled:            h.Settings.GetBool(ctx, settings.KeyTaxEnabled, false),
		TaxRate:               h.Settings.GetDecimal(ctx, settings.KeyTaxRate, decimal.Zero),
		FlatRate:              h.Settings.GetDecimal(ctx, settings.KeyShippingFlatRate, decimal.RequireFromString("5.99")),
		FreeShippingThreshold: h.Settings.GetDecimal(ctx, settings.KeyFreeShippingThreshold, decimal.NewFromInt(50)),
		Currency:              h.Settings.GetString(ctx, settings.KeyCurrency, "USD"),
	}
}

// resolveLines joins request lines against the catalog. Runs on the
// pool for quotes and inside the order transaction for orders.
func resolveLines(ctx context.Context, q querier, lines []checkout.Line) ([]checkout.ResolvedLine, error) {
	resolved := make([]checkout.ResolvedLine, 0, len(lines))
	for _, l := range lines {
		r := checkout.ResolvedLine{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity}
		var image sql.NullString
		var err error
		if l.VariantID != nil {
			err = q.QueryRowContext(ctx, `
				SELECT p.name, COALESCE(v.sku, p.sku),
				       (SELECT url FROM product_images WHERE product_id = p.id ORDER BY position, id LIMIT 1),
				       COALESCE(v.price, p.price), p.weight, p.is_active, p.track_quantity, v.quantity
				FROM product_variants v
				JOIN products p ON p.id = v.product_id
				WHERE v.id = $1 AND v.product_id = $2`, *l.VariantID, l.ProductID).
				Scan(&r.Name, &r.SKU, &image, &r.UnitPrice, &r.WeightKg, &r.IsActive, &r.TrackQuantity, &r.Available)
		} else {
			err = q.QueryRowContext(ctx, `
				SELECT p.name, p.sku,
				       (SELECT url FROM product_images WHERE product_id = p.id ORDER BY position, id LIMIT 1),
				       p.price, p.weight, p.is_active, p.track_quantity, p.quantity
				FROM products p
				WHERE p.id = $1`, l.ProductID).
				Scan(&r.Name, &r.SKU, &image, &r.UnitPrice, &r.WeightKg, &r.IsActive, &r.TrackQuantity, &r.Available)
		}
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, checkout.NotFoundError(l.ProductID)
			}
			return nil, err
		}
		if image.Valid {
			r.Image = image.String
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

// respondCheckoutError maps the checkout package's typed validation
// errors onto the response envelope.
func respondCheckoutError(c *gin.Context, err error) bool {
	var chkErr *checkout.Error
	if errors.As(err, &chkErr) {
		status := http.StatusBadRequest
		if chkErr.Kind == checkout.KindNotFound {
			status = http.StatusNotFound
		}
		respondError(c, status, chkErr.Error())
		return true
	}
	if errors.Is(err, checkout.ErrCouponUnknown) || errors.Is(err, checkout.ErrCouponMinSubtotal) {
		respondError(c, http.StatusBadRequest, err.Error())
		return true
	}
	return false
}

type ShippingAddressInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode" binding:"required"`
	Country   string `json:"country" binding:"required,len=2"`
	Phone     string `json:"phone"`
}

type CalculateCheckoutInput struct {
	Items           []checkout.Line       `json:"items" binding:"required,min=1,dive"`
	ShippingAddress *ShippingAddressInput `json:"shippingAddress"`
	CouponCode      string                `json:"couponCode"`
}

// CalculateCheckout is the handler for POST /api/checkout/calculate. It
// prices the basket without touching stock; the storefront calls it on
// every cart change.
func (h *Handlers) CalculateCheckout(c *gin.Context) {
	var input CalculateCheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	lines, err := resolveLines(c, h.DB, input.Items)
	if err != nil {
		if respondCheckoutError(c, err) {
			return
		}
		h.serverError(c, err, "Failed to load products")
		return
	}

	var coupon *checkout.Coupon
	if input.CouponCode != "" {
		cp, ok := checkout.LookupCoupon(input.CouponCode)
		if !ok {
			respondError(c, http.StatusBadRequest, checkout.ErrCouponUnknown.Error())
			return
		}
		coupon = &cp
	}

	dest := checkout.Destination{}
	if input.ShippingAddress != nil {
		dest.Country = input.ShippingAddress.Country
	}

	quote, err := checkout.Calculate(lines, h.checkoutConfig(c), dest, coupon)
	if err != nil {
		if respondCheckoutError(c, err) {
			return
		}
		h.serverError(c, err, "Failed to price checkout")
		return
	}

	respondData(c, http.StatusOK, quote)
}

type CreateOrderInput struct {
	Items           []checkout.Line       `json:"items" binding:"required,min=1,dive"`
	ShippingAddress ShippingAddressInput  `json:"shippingAddress" binding:"required"`
	BillingAddress  *ShippingAddressInput `json:"billingAddress"`
	PaymentMethod   string                `json:"paymentMethod" binding:"required"`
	CouponCode      string                `json:"couponCode"`
	CustomerNote    string                `json:"customerNote"`
	ClearCart       bool                  `json:"clearCart"`
}

// CreateOrder is the handler for POST /api/orders. Re-prices the basket
// inside a transaction, decrements stock with conditional updates so two
// concurrent orders can never oversell, and writes the order with
// product and address snapshots. Guests order with a NULL user_id; the
// X-Session-ID header only matters when clearCart asks us to drop a
// session cart.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var userID *int64
	var sessionID *string
	if v, ok := c.Get(middleware.CtxUserID); ok {
		id := v.(int64)
		userID = &id
	} else if sid := c.GetHeader("X-Session-ID"); sid != "" {
		sessionID = &sid
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	var coupon *checkout.Coupon
	if input.CouponCode != "" {
		cp, ok := checkout.LookupCoupon(input.CouponCode)
		if !ok {
			respondError(c, http.StatusBadRequest, checkout.ErrCouponUnknown.Error())
			return
		}
		coupon = &cp
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	// 1. Resolve and price inside the transaction so the totals match
	// the rows we are about to decrement.
	lines, err := resolveLines(c, tx, input.Items)
	if err != nil {
		if respondCheckoutError(c, err) {
			return
		}
		h.serverError(c, err, "Failed to load products")
		return
	}

	dest := checkout.Destination{Country: input.ShippingAddress.Country}
	quote, err := checkout.Calculate(lines, h.checkoutConfig(c), dest, coupon)
	if err != nil {
		if respondCheckoutError(c, err) {
			return
		}
		h.serverError(c, err, "Failed to price order")
		return
	}

	// 2. Decrement stock. The WHERE quantity >= n guard makes the
	// decrement conditional: zero rows affected means someone else got
	// the stock first, and the whole order rolls back.
	for _, l := range lines {
		if !l.TrackQuantity {
			continue
		}
		var result sql.Result
		if l.VariantID != nil {
			result, err = tx.ExecContext(c, `
				UPDATE product_variants SET quantity = quantity - $1, updated_at = now()
				WHERE id = $2 AND quantity >= $1`, l.Quantity, *l.VariantID)
		} else {
			result, err = tx.ExecContext(c, `
				UPDATE products SET quantity = quantity - $1, updated_at = now()
				WHERE id = $2 AND quantity >= $1`, l.Quantity, l.ProductID)
		}
		if err != nil {
			h.serverError(c, err, "Failed to reserve stock")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("Insufficient stock for '%s'", l.Name))
			return
		}
	}

	// 3. Snapshot the addresses as JSON documents on the order row.
	shippingJSON, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		h.serverError(c, err, "Failed to encode shipping address")
		return
	}
	billing := input.BillingAddress
	if billing == nil {
		billing = &input.ShippingAddress
	}
	billingJSON, err := json.Marshal(billing)
	if err != nil {
		h.serverError(c, err, "Failed to encode billing address")
		return
	}

	// 4. Insert the order, retrying the number on a collision.
	var orderID int64
	var orderNumber string
	for attempt := 0; attempt < 5; attempt++ {
		orderNumber = generateOrderNumber(time.Now())
		err = tx.QueryRowContext(c, `
			INSERT INTO orders (order_number, user_id, status, payment_status, payment_method,
				subtotal, tax_amount, shipping_amount, discount_amount, total,
				currency, coupon_code, notes, shipping_address, billing_address,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
			RETURNING id`,
			orderNumber, userID, models.OrderPending, models.PaymentPending,
			input.PaymentMethod, quote.Subtotal, quote.TaxAmount, quote.ShippingAmount,
			quote.DiscountAmount, quote.Total, quote.Currency,
			nullString(input.CouponCode), nullString(input.CustomerNote),
			string(shippingJSON), string(billingJSON)).Scan(&orderID)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		h.serverError(c, err, "Failed to create order")
		return
	}

	// 5. Order items carry name/SKU/price snapshots so later catalog
	// edits never rewrite history.
	for _, item := range quote.Items {
		_, err = tx.ExecContext(c, `
			INSERT INTO order_items (order_id, product_id, variant_id, product_name, sku, price, quantity, total, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
			orderID, item.ProductID, item.VariantID, item.Name, item.SKU,
			item.Price, item.Quantity, item.Total)
		if err != nil {
			h.serverError(c, err, "Failed to write order items")
			return
		}
	}

	// 6. Optionally drop the buyer's cart in the same transaction.
	if input.ClearCart {
		switch {
		case userID != nil:
			_, err = tx.ExecContext(c, `DELETE FROM carts WHERE user_id = $1`, *userID)
		case sessionID != nil:
			_, err = tx.ExecContext(c, `DELETE FROM carts WHERE session_id = $1`, *sessionID)
		}
		if err != nil {
			h.serverError(c, err, "Failed to clear cart")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit order")
		return
	}

	ev := h.Log.Info().Int64("order_id", orderID).Str("order_number", orderNumber).
		Str("total", quote.Total.String())
	if userID != nil {
		ev = ev.Int64("user_id", *userID)
	}
	ev.Msg("order created")

	respondData(c, http.StatusCreated, gin.H{
		"orderId":     orderID,
		"orderNumber": orderNumber,
		"status":      models.OrderPending,
		"total":       quote.Total,
		"currency":    quote.Currency,
	})
}

// generateOrderNumber builds ORD-YYYYMMDD-NNNNNN with a random suffix.
// Collisions are rare and handled by the insert retry loop.
func generateOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", t.Format("20060102"), rand.Intn(1000000))
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
