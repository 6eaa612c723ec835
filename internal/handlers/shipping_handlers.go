package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/models"
	"github.com/vendora/vendora-golang/internal/shipping"
)

//
// --- Shipping Handlers ---
//

// loadShippingEngine pulls the active zone/rate/rule tables into an
// engine value. The tables are small; loading them per quote keeps the
// engine free of caching concerns.
func (h *Handlers) loadShippingEngine(ctx context.Context) (shipping.Engine, error) {
	var e shipping.Engine

	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, name, countries, states, zip_patterns, is_active, created_at, updated_at
		FROM shipping_zones WHERE is_active = TRUE`)
	if err != nil {
		return e, err
	}
	for rows.Next() {
		var z models.ShippingZone
		if err := rows.Scan(&z.ID, &z.Name, &z.Countries, &z.States, &z.ZipPatterns,
			&z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
			rows.Close()
			return e, err
		}
		e.Zones = append(e.Zones, z)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return e, err
	}

	rows, err = h.DB.QueryContext(ctx, `
		SELECT id, zone_id, name, cost_type, amount, per_kg,
		       min_order_amount, max_order_amount, min_weight, max_weight,
		       is_active, created_at, updated_at
		FROM shipping_rates WHERE is_active = TRUE`)
	if err != nil {
		return e, err
	}
	for rows.Next() {
		var r models.ShippingRate
		if err := rows.Scan(&r.ID, &r.ZoneID, &r.Name, &r.CostType, &r.Amount, &r.PerKg,
			&r.MinOrderAmount, &r.MaxOrderAmount, &r.MinWeight, &r.MaxWeight,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			rows.Close()
			return e, err
		}
		e.Rates = append(e.Rates, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return e, err
	}

	rows, err = h.DB.QueryContext(ctx, `
		SELECT id, priority, condition, operator, value, action, action_value, method_name,
		       is_active, created_at, updated_at
		FROM shipping_rules WHERE is_active = TRUE`)
	if err != nil {
		return e, err
	}
	defer rows.Close()
	for rows.Next() {
		var r models.ShippingRule
		if err := rows.Scan(&r.ID, &r.Priority, &r.Condition, &r.Operator, &r.Value,
			&r.Action, &r.ActionValue, &r.MethodName,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return e, err
		}
		e.Rules = append(e.Rules, r)
	}
	return e, rows.Err()
}

type ShippingQuoteInput struct {
	Subtotal  decimal.Decimal `json:"subtotal" binding:"required"`
	WeightKg  float64         `json:"weightKg"`
	ItemCount int             `json:"itemCount"`
	Country   string          `json:"country" binding:"required,len=2"`
	State     string          `json:"state"`
	Zip       string          `json:"zip"`
}

// QuoteShipping is the handler for POST /api/shipping/quote. Returns
// every method the zone/rate/rule tables offer for the destination.
func (h *Handlers) QuoteShipping(c *gin.Context) {
	var input ShippingQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	engine, err := h.loadShippingEngine(c)
	if err != nil {
		h.serverError(c, err, "Failed to load shipping configuration")
		return
	}

	methods := engine.Quote(shipping.Request{
		Subtotal:  input.Subtotal,
		WeightKg:  input.WeightKg,
		ItemCount: input.ItemCount,
		Country:   input.Country,
		State:     input.State,
		Zip:       input.Zip,
	})

	respondData(c, http.StatusOK, gin.H{"methods": methods})
}

//
// --- Admin: zones ---
//

type ShippingZoneInput struct {
	Name        string   `json:"name" binding:"required"`
	Countries   []string `json:"countries"`
	States      []string `json:"states"`
	ZipPatterns []string `json:"zipPatterns"`
	IsActive    *bool    `json:"isActive"`
}

func (h *Handlers) CreateShippingZone(c *gin.Context) {
	var input ShippingZoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	var id int64
	err := h.DB.QueryRowContext(c, `
		INSERT INTO shipping_zones (name, countries, states, zip_patterns, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id`,
		input.Name, models.StringList(input.Countries), models.StringList(input.States),
		models.StringList(input.ZipPatterns), isActive).Scan(&id)
	if err != nil {
		h.serverError(c, err, "Failed to create shipping zone")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) ListShippingZones(c *gin.Context) {
	rows, err := h.DB.QueryContext(c, `
		SELECT id, name, countries, states, zip_patterns, is_active, created_at, updated_at
		FROM shipping_zones ORDER BY name`)
	if err != nil {
		h.serverError(c, err, "Failed to load shipping zones")
		return
	}
	defer rows.Close()

	zones := []models.ShippingZone{}
	for rows.Next() {
		var z models.ShippingZone
		if err := rows.Scan(&z.ID, &z.Name, &z.Countries, &z.States, &z.ZipPatterns,
			&z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan shipping zone")
			return
		}
		zones = append(zones, z)
	}

	respondData(c, http.StatusOK, zones)
}

func (h *Handlers) UpdateShippingZone(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	var input ShippingZoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE shipping_zones SET name = $1, countries = $2, states = $3, zip_patterns = $4,
			is_active = $5, updated_at = now()
		WHERE id = $6`,
		input.Name, models.StringList(input.Countries), models.StringList(input.States),
		models.StringList(input.ZipPatterns), isActive, zoneID)
	if err != nil {
		h.serverError(c, err, "Failed to update shipping zone")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping zone not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping zone updated"})
}

// DeleteShippingZone removes a zone and, through the FK cascade, its
// rates.
func (h *Handlers) DeleteShippingZone(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid zone ID")
		return
	}

	result, err := h.DB.ExecContext(c, `DELETE FROM shipping_zones WHERE id = $1`, zoneID)
	if err != nil {
		h.serverError(c, err, "Failed to delete shipping zone")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping zone not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping zone deleted"})
}

//
// --- Admin: rates ---
//

type ShippingRateInput struct {
	ZoneID   int64            `json:"zoneId" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	CostType string           `json:"costType" binding:"required,oneof=flat weight_based percentage"`
	Amount   decimal.Decimal  `json:"amount" binding:"required"`
	PerKg    *decimal.Decimal `json:"perKg"`

	MinOrderAmount *decimal.Decimal `json:"minOrderAmount"`
	MaxOrderAmount *decimal.Decimal `json:"maxOrderAmount"`
	MinWeight      *float64         `json:"minWeight"`
	MaxWeight      *float64         `json:"maxWeight"`

	IsActive *bool `json:"isActive"`
}

func (h *Handlers) CreateShippingRate(c *gin.Context) {
	var input ShippingRateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	var id int64
	err := h.DB.QueryRowContext(c, `
		INSERT INTO shipping_rates (zone_id, name, cost_type, amount, per_kg,
			min_order_amount, max_order_amount, min_weight, max_weight,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING id`,
		input.ZoneID, input.Name, input.CostType, input.Amount, input.PerKg,
		input.MinOrderAmount, input.MaxOrderAmount, input.MinWeight, input.MaxWeight,
		isActive).Scan(&id)
	if err != nil {
		h.serverError(c, err, "Failed to create shipping rate")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) ListShippingRates(c *gin.Context) {
	query := `
		SELECT id, zone_id, name, cost_type, amount, per_kg,
		       min_order_amount, max_order_amount, min_weight, max_weight,
		       is_active, created_at, updated_at
		FROM shipping_rates`
	args := []interface{}{}
	if zone := c.Query("zoneId"); zone != "" {
		query += ` WHERE zone_id = $1`
		args = append(args, zone)
	}
	query += ` ORDER BY zone_id, name`

	rows, err := h.DB.QueryContext(c, query, args...)
	if err != nil {
		h.serverError(c, err, "Failed to load shipping rates")
		return
	}
	defer rows.Close()

	rates := []models.ShippingRate{}
	for rows.Next() {
		var r models.ShippingRate
		if err := rows.Scan(&r.ID, &r.ZoneID, &r.Name, &r.CostType, &r.Amount, &r.PerKg,
			&r.MinOrderAmount, &r.MaxOrderAmount, &r.MinWeight, &r.MaxWeight,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan shipping rate")
			return
		}
		rates = append(rates, r)
	}

	respondData(c, http.StatusOK, rates)
}

func (h *Handlers) UpdateShippingRate(c *gin.Context) {
	rateID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid rate ID")
		return
	}

	var input ShippingRateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE shipping_rates SET zone_id = $1, name = $2, cost_type = $3, amount = $4,
			per_kg = $5, min_order_amount = $6, max_order_amount = $7,
			min_weight = $8, max_weight = $9, is_active = $10, updated_at = now()
		WHERE id = $11`,
		input.ZoneID, input.Name, input.CostType, input.Amount, input.PerKg,
		input.MinOrderAmount, input.MaxOrderAmount, input.MinWeight, input.MaxWeight,
		isActive, rateID)
	if err != nil {
		h.serverError(c, err, "Failed to update shipping rate")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping rate not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping rate updated"})
}

func (h *Handlers) DeleteShippingRate(c *gin.Context) {
	rateID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid rate ID")
		return
	}

	result, err := h.DB.ExecContext(c, `DELETE FROM shipping_rates WHERE id = $1`, rateID)
	if err != nil {
		h.serverError(c, err, "Failed to delete shipping rate")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping rate not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping rate deleted"})
}

//
// --- Admin: rules ---
//

type ShippingRuleInput struct {
	Priority    int              `json:"priority"`
	Condition   string           `json:"condition" binding:"required,oneof=subtotal weight item_count"`
	Operator    string           `json:"operator" binding:"required,oneof=gt gte lt lte eq"`
	Value       decimal.Decimal  `json:"value" binding:"required"`
	Action      string           `json:"action" binding:"required,oneof=free_shipping add_flat subtract_flat add_percent subtract_percent remove_method"`
	ActionValue *decimal.Decimal `json:"actionValue"`
	MethodName  *string          `json:"methodName"`
	IsActive    *bool            `json:"isActive"`
}

func (h *Handlers) CreateShippingRule(c *gin.Context) {
	var input ShippingRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}
	if input.Action == models.ActionRemoveMethod && input.MethodName == nil {
		respondError(c, http.StatusBadRequest, "remove_method rules need a methodName")
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	var id int64
	err := h.DB.QueryRowContext(c, `
		INSERT INTO shipping_rules (priority, condition, operator, value, action, action_value, method_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id`,
		input.Priority, input.Condition, input.Operator, input.Value,
		input.Action, input.ActionValue, input.MethodName, isActive).Scan(&id)
	if err != nil {
		h.serverError(c, err, "Failed to create shipping rule")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) ListShippingRules(c *gin.Context) {
	rows, err := h.DB.QueryContext(c, `
		SELECT id, priority, condition, operator, value, action, action_value, method_name,
		       is_active, created_at, updated_at
		FROM shipping_rules ORDER BY priority DESC, id`)
	if err != nil {
		h.serverError(c, err, "Failed to load shipping rules")
		return
	}
	defer rows.Close()

	rules := []models.ShippingRule{}
	for rows.Next() {
		var r models.ShippingRule
		if err := rows.Scan(&r.ID, &r.Priority, &r.Condition, &r.Operator, &r.Value,
			&r.Action, &r.ActionValue, &r.MethodName,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan shipping rule")
			return
		}
		rules = append(rules, r)
	}

	respondData(c, http.StatusOK, rules)
}

func (h *Handlers) UpdateShippingRule(c *gin.Context) {
	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	var input ShippingRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}
	if input.Action == models.ActionRemoveMethod && input.MethodName == nil {
		respondError(c, http.StatusBadRequest, "remove_method rules need a methodName")
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE shipping_rules SET priority = $1, condition = $2, operator = $3, value = $4,
			action = $5, action_value = $6, method_name = $7, is_active = $8, updated_at = now()
		WHERE id = $9`,
		input.Priority, input.Condition, input.Operator, input.Value,
		input.Action, input.ActionValue, input.MethodName, isActive, ruleID)
	if err != nil {
		h.serverError(c, err, "Failed to update shipping rule")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping rule not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping rule updated"})
}

func (h *Handlers) DeleteShippingRule(c *gin.Context) {
	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	result, err := h.DB.ExecContext(c, `DELETE FROM shipping_rules WHERE id = $1`, ruleID)
	if err != nil {
		h.serverError(c, err, "Failed to delete shipping rule")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Shipping rule not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Shipping rule deleted"})
}
