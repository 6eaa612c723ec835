package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Order Handlers ---
//

const orderSelect = `
	SELECT id, order_number, user_id, status, payment_status, payment_method,
	       subtotal, tax_amount, shipping_amount, discount_amount, total,
	       currency, coupon_code, notes, shipping_address, billing_address,
	       created_at, updated_at
	FROM orders`

func scanOrder(row interface{ Scan(...interface{}) error }) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.Subtotal, &o.TaxAmount, &o.ShippingAmount,
		&o.DiscountAmount, &o.Total, &o.Currency, &o.CouponCode, &o.Notes,
		&o.ShippingAddress, &o.BillingAddress, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (h *Handlers) loadOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, sku, quantity, price, total, created_at
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID,
			&it.ProductName, &it.SKU, &it.Quantity, &it.Price, &it.Total, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MyOrders is the handler for GET /api/orders. Most recent first.
func (h *Handlers) MyOrders(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(int64)

	rows, err := h.DB.QueryContext(c, orderSelect+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		h.serverError(c, err, "Failed to load orders")
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			h.serverError(c, err, "Failed to scan order")
			return
		}
		orders = append(orders, o)
	}

	respondData(c, http.StatusOK, orders)
}

// GetOrder is the handler for GET /api/orders/:id. Customers can only
// see their own orders; admins can see any.
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := scanOrder(h.DB.QueryRowContext(c, orderSelect+` WHERE id = $1`, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		h.serverError(c, err, "Failed to load order")
		return
	}

	userID := c.MustGet(middleware.CtxUserID).(int64)
	role := c.GetString(middleware.CtxUserRole)
	if role != models.RoleAdmin && (order.UserID == nil || *order.UserID != userID) {
		respondError(c, http.StatusNotFound, "Order not found")
		return
	}

	order.Items, err = h.loadOrderItems(c, order.ID)
	if err != nil {
		h.serverError(c, err, "Failed to load order items")
		return
	}

	respondData(c, http.StatusOK, order)
}

// AdminListOrders is the handler for GET /api/admin/orders with paging
// and optional status / payment-status filters.
func (h *Handlers) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	where := ""
	args := []interface{}{}
	if status := c.Query("status"); status != "" {
		args = append(args, status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if ps := c.Query("paymentStatus"); ps != "" {
		args = append(args, ps)
		if where == "" {
			where = fmt.Sprintf(" WHERE payment_status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND payment_status = $%d", len(args))
		}
	}

	var total int
	if err := h.DB.QueryRowContext(c, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		h.serverError(c, err, "Failed to count orders")
		return
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(orderSelect+where+` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := h.DB.QueryContext(c, query, args...)
	if err != nil {
		h.serverError(c, err, "Failed to load orders")
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			h.serverError(c, err, "Failed to scan order")
			return
		}
		orders = append(orders, o)
	}

	respondData(c, http.StatusOK, gin.H{
		"orders": orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

type UpdateOrderStatusInput struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

// UpdateOrderStatus is the handler for PATCH /api/admin/orders/:id.
// Transitions are checked against the status machine; moving an order
// to cancelled puts its stock back.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}
	if input.Status == nil && input.PaymentStatus == nil {
		respondError(c, http.StatusBadRequest, "Provide a status or paymentStatus to update")
		return
	}
	if input.Status != nil && !models.ValidOrderStatus(*input.Status) {
		respondError(c, http.StatusBadRequest, "Unknown order status: "+*input.Status)
		return
	}
	if input.PaymentStatus != nil && !models.ValidPaymentStatus(*input.PaymentStatus) {
		respondError(c, http.StatusBadRequest, "Unknown payment status: "+*input.PaymentStatus)
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	var current, currentPayment string
	err = tx.QueryRowContext(c,
		`SELECT status, payment_status FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&current, &currentPayment)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		h.serverError(c, err, "Failed to load order")
		return
	}

	newStatus, newPayment := current, currentPayment
	if input.Status != nil {
		if !models.CanTransitionOrder(current, *input.Status) {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Cannot move order from '%s' to '%s'", current, *input.Status))
			return
		}
		newStatus = *input.Status
	}
	if input.PaymentStatus != nil {
		if !models.CanTransitionPayment(currentPayment, *input.PaymentStatus) {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Cannot move payment from '%s' to '%s'", currentPayment, *input.PaymentStatus))
			return
		}
		newPayment = *input.PaymentStatus
	}

	if newStatus == models.OrderCancelled && current != models.OrderCancelled {
		if err := restockOrder(c, tx, orderID); err != nil {
			h.serverError(c, err, "Failed to restock cancelled order")
			return
		}
	}

	_, err = tx.ExecContext(c,
		`UPDATE orders SET status = $1, payment_status = $2, updated_at = now() WHERE id = $3`,
		newStatus, newPayment, orderID)
	if err != nil {
		h.serverError(c, err, "Failed to update order")
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit order update")
		return
	}

	h.Log.Info().Int64("order_id", orderID).
		Str("status", newStatus).Str("payment_status", newPayment).
		Msg("order status updated")

	respondData(c, http.StatusOK, gin.H{
		"orderId":       orderID,
		"status":        newStatus,
		"paymentStatus": newPayment,
	})
}

// restockOrder returns a cancelled order's quantities to the catalog.
// Only tracked records get their counters bumped.
func restockOrder(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products p SET quantity = p.quantity + oi.quantity, updated_at = now()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.variant_id IS NULL
		  AND p.id = oi.product_id AND p.track_quantity`, orderID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE product_variants v SET quantity = v.quantity + oi.quantity, updated_at = now()
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 AND oi.variant_id = v.id AND p.track_quantity`, orderID)
	return err
}

// ProcessStaleOrders cancels unpaid pending orders older than ttl and
// puts their stock back. Runs from the background ticker in main.
func (h *Handlers) ProcessStaleOrders(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	rows, err := h.DB.QueryContext(ctx, `
		SELECT id FROM orders
		WHERE status = $1 AND payment_status = $2 AND created_at < $3`,
		models.OrderPending, models.PaymentPending, cutoff)
	if err != nil {
		h.Log.Error().Err(err).Msg("stale order scan failed")
		return
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			h.Log.Error().Err(err).Msg("stale order scan failed")
			return
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		h.Log.Error().Err(err).Msg("stale order scan failed")
		return
	}

	for _, id := range ids {
		if err := h.cancelStaleOrder(ctx, id, cutoff); err != nil {
			h.Log.Error().Err(err).Int64("order_id", id).Msg("failed to cancel stale order")
			continue
		}
		h.Log.Info().Int64("order_id", id).Msg("stale order cancelled")
	}
}

func (h *Handlers) cancelStaleOrder(ctx context.Context, orderID int64, cutoff time.Time) error {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-check under lock; an admin may have moved the order since the
	// scan.
	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND payment_status = $4 AND created_at < $5`,
		models.OrderCancelled, orderID, models.OrderPending, models.PaymentPending, cutoff)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil
	}

	if err := restockOrder(ctx, tx, orderID); err != nil {
		return err
	}
	return tx.Commit()
}
