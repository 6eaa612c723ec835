package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Dashboard Handlers ---
//

// DashboardStats is the handler for GET /api/admin/dashboard. Revenue
// counts paid orders only; cancelled and refunded orders never add to
// it.
func (h *Handlers) DashboardStats(c *gin.Context) {
	var totalOrders, pendingOrders, totalProducts, activeProducts, totalCustomers int
	var revenue decimal.Decimal

	// 1. Order counts.
	err := h.DB.QueryRowContext(c, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
		FROM orders`, models.OrderPending).Scan(&totalOrders, &pendingOrders)
	if err != nil {
		h.serverError(c, err, "Failed to load order stats")
		return
	}

	// 2. Paid revenue.
	err = h.DB.QueryRowContext(c, `
		SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE payment_status = $1 AND status NOT IN ($2, $3)`,
		models.PaymentPaid, models.OrderCancelled, models.OrderRefunded).Scan(&revenue)
	if err != nil {
		h.serverError(c, err, "Failed to load revenue")
		return
	}

	// 3. Catalog and customer counts.
	err = h.DB.QueryRowContext(c, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM products`).
		Scan(&totalProducts, &activeProducts)
	if err != nil {
		h.serverError(c, err, "Failed to load product stats")
		return
	}
	err = h.DB.QueryRowContext(c,
		`SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleCustomer).Scan(&totalCustomers)
	if err != nil {
		h.serverError(c, err, "Failed to load customer stats")
		return
	}

	// 4. Low-stock products, worst first.
	type lowStock struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		SKU      string `json:"sku"`
		Quantity int    `json:"quantity"`
	}
	low := []lowStock{}
	rows, err := h.DB.QueryContext(c, `
		SELECT id, name, sku, quantity FROM products
		WHERE is_active = TRUE AND track_quantity = TRUE AND quantity <= 5
		ORDER BY quantity, name LIMIT 10`)
	if err != nil {
		h.serverError(c, err, "Failed to load low-stock products")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var p lowStock
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Quantity); err != nil {
			h.serverError(c, err, "Failed to scan low-stock product")
			return
		}
		low = append(low, p)
	}

	// 5. Recent orders.
	recentRows, err := h.DB.QueryContext(c,
		orderSelect+` ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		h.serverError(c, err, "Failed to load recent orders")
		return
	}
	defer recentRows.Close()
	recent := []models.Order{}
	for recentRows.Next() {
		o, err := scanOrder(recentRows)
		if err != nil {
			h.serverError(c, err, "Failed to scan recent order")
			return
		}
		recent = append(recent, o)
	}

	respondData(c, http.StatusOK, gin.H{
		"totalOrders":    totalOrders,
		"pendingOrders":  pendingOrders,
		"revenue":        revenue.Round(2),
		"totalProducts":  totalProducts,
		"activeProducts": activeProducts,
		"totalCustomers": totalCustomers,
		"lowStock":       low,
		"recentOrders":   recent,
	})
}
