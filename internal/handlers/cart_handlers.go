package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Cart Handlers ---
//

// cartOwner resolves who the cart belongs to: the authenticated user
// when a token was presented, otherwise the X-Session-ID header.
func cartOwner(c *gin.Context) (userID *int64, sessionID *string, ok bool) {
	if v, exists := c.Get(middleware.CtxUserID); exists {
		id := v.(int64)
		return &id, nil, true
	}
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return nil, &sid, true
	}
	return nil, nil, false
}

// getOrCreateCartID finds the owner's cart or creates one. Meant to run
// inside a transaction.
func (h *Handlers) getOrCreateCartID(ctx context.Context, tx *sql.Tx, userID *int64, sessionID *string) (int64, error) {
	var cartID int64
	var err error
	if userID != nil {
		err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, *userID).Scan(&cartID)
	} else {
		err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE session_id = $1`, *sessionID).Scan(&cartID)
	}
	if err == nil {
		return cartID, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, session_id, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id`, userID, sessionID).Scan(&cartID)
	return cartID, err
}

type AddToCartInput struct {
	ProductID  int64           `json:"productId" binding:"required"`
	VariantID  *int64          `json:"variantId"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	Attributes json.RawMessage `json:"attributes"`
}

// AddToCart is the handler for POST /api/cart/items. Validates the
// product is active and in stock, then upserts the line, snapshotting
// the current price.
func (h *Handlers) AddToCart(c *gin.Context) {
	userID, sessionID, ok := cartOwner(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Provide a bearer token or an X-Session-ID header")
		return
	}

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	// Price snapshot and stock check against product or variant.
	var price decimal.Decimal
	var available int
	var trackQuantity bool
	if input.VariantID != nil {
		err = tx.QueryRowContext(c, `
			SELECT COALESCE(v.price, p.price), v.quantity, p.track_quantity
			FROM product_variants v
			JOIN products p ON p.id = v.product_id
			WHERE v.id = $1 AND v.product_id = $2 AND p.is_active = TRUE`,
			*input.VariantID, input.ProductID).Scan(&price, &available, &trackQuantity)
	} else {
		err = tx.QueryRowContext(c, `
			SELECT price, quantity, track_quantity
			FROM products WHERE id = $1 AND is_active = TRUE`,
			input.ProductID).Scan(&price, &available, &trackQuantity)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Product not found or not active")
			return
		}
		h.serverError(c, err, "Failed to load product")
		return
	}
	if trackQuantity && available < input.Quantity {
		respondError(c, http.StatusBadRequest, "Insufficient stock")
		return
	}

	cartID, err := h.getOrCreateCartID(c, tx, userID, sessionID)
	if err != nil {
		h.serverError(c, err, "Failed to initialize cart")
		return
	}

	attributes := input.Attributes
	if attributes == nil {
		attributes = json.RawMessage(`{}`)
	}

	_, err = tx.ExecContext(c, `
		INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, price, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (cart_id, product_id, variant_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			price = EXCLUDED.price,
			updated_at = now()`,
		cartID, input.ProductID, input.VariantID, input.Quantity, price, string(attributes))
	if err != nil {
		h.serverError(c, err, "Failed to update cart")
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit cart update")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"message": "Item added to cart"})
}

func emptyCart() models.Cart {
	return models.Cart{Items: []models.CartItem{}}
}

// GetCart is the handler for GET /api/cart. This endpoint deliberately
// swallows failures and serves an empty cart so a storefront page never
// blocks on a cart read. Prices are re-read live from the catalog, not
// taken from the add-to-cart snapshot.
func (h *Handlers) GetCart(c *gin.Context) {
	userID, sessionID, ok := cartOwner(c)
	if !ok {
		respondData(c, http.StatusOK, emptyCart())
		return
	}

	var cart models.Cart
	var err error
	if userID != nil {
		err = h.DB.QueryRowContext(c, `
			SELECT id, user_id, session_id, created_at, updated_at
			FROM carts WHERE user_id = $1`, *userID).
			Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	} else {
		err = h.DB.QueryRowContext(c, `
			SELECT id, user_id, session_id, created_at, updated_at
			FROM carts WHERE session_id = $1`, *sessionID).
			Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	}
	if err != nil {
		if err != sql.ErrNoRows {
			h.Log.Warn().Err(err).Msg("cart lookup failed; serving empty cart")
		}
		respondData(c, http.StatusOK, emptyCart())
		return
	}

	rows, err := h.DB.QueryContext(c, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.variant_id,
		       p.name, COALESCE(v.sku, p.sku),
		       COALESCE(v.price, p.price),
		       ci.quantity,
		       COALESCE(v.quantity, p.quantity),
		       ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = $1 AND p.is_active = TRUE
		ORDER BY ci.id`, cart.ID)
	if err != nil {
		h.Log.Warn().Err(err).Msg("cart items query failed; serving empty cart")
		respondData(c, http.StatusOK, emptyCart())
		return
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariantID,
			&item.Name, &item.SKU, &item.Price, &item.Quantity, &item.Available,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			h.Log.Warn().Err(err).Msg("cart item scan failed; serving empty cart")
			respondData(c, http.StatusOK, emptyCart())
			return
		}
		item.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		cart.Subtotal = cart.Subtotal.Add(item.LineTotal)
		cart.TotalItems += item.Quantity
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		h.Log.Warn().Err(err).Msg("cart items read failed; serving empty cart")
		respondData(c, http.StatusOK, emptyCart())
		return
	}
	cart.Subtotal = cart.Subtotal.Round(2)

	respondData(c, http.StatusOK, cart)
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"gte=0"` // 0 removes the line
}

// UpdateCartItem is the handler for PUT /api/cart/items/:id.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	userID, sessionID, ok := cartOwner(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Provide a bearer token or an X-Session-ID header")
		return
	}
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	cartID, err := h.findCartID(c, userID, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Cart not found")
			return
		}
		h.serverError(c, err, "Failed to find cart")
		return
	}

	if input.Quantity == 0 {
		h.removeCartItem(c, cartID, itemID)
		return
	}

	// Stock check against whichever record tracks the line.
	var available int
	var trackQuantity bool
	err = h.DB.QueryRowContext(c, `
		SELECT COALESCE(v.quantity, p.quantity), p.track_quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.id = $1 AND ci.cart_id = $2`, itemID, cartID).Scan(&available, &trackQuantity)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Item not found in cart")
			return
		}
		h.serverError(c, err, "Failed to check stock")
		return
	}
	if trackQuantity && available < input.Quantity {
		respondError(c, http.StatusBadRequest, "Not enough stock for the requested quantity")
		return
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE cart_items SET quantity = $1, updated_at = $2
		WHERE id = $3 AND cart_id = $4`,
		input.Quantity, time.Now(), itemID, cartID)
	if err != nil {
		h.serverError(c, err, "Failed to update cart item")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Item not found in cart")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Cart item updated"})
}

// DeleteCartItem is the handler for DELETE /api/cart/items/:id.
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	userID, sessionID, ok := cartOwner(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Provide a bearer token or an X-Session-ID header")
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	cartID, err := h.findCartID(c, userID, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Cart not found")
			return
		}
		h.serverError(c, err, "Failed to find cart")
		return
	}

	h.removeCartItem(c, cartID, itemID)
}

func (h *Handlers) findCartID(c *gin.Context, userID *int64, sessionID *string) (int64, error) {
	var cartID int64
	var err error
	if userID != nil {
		err = h.DB.QueryRowContext(c, `SELECT id FROM carts WHERE user_id = $1`, *userID).Scan(&cartID)
	} else {
		err = h.DB.QueryRowContext(c, `SELECT id FROM carts WHERE session_id = $1`, *sessionID).Scan(&cartID)
	}
	return cartID, err
}

func (h *Handlers) removeCartItem(c *gin.Context, cartID, itemID int64) {
	result, err := h.DB.ExecContext(c,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		h.serverError(c, err, "Failed to remove cart item")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Item not found in cart")
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Cart item removed"})
}

// mergeSessionCart moves a guest session's cart lines into the user's
// cart, summing quantities on collision, then drops the session cart.
// Called on login.
func (h *Handlers) mergeSessionCart(ctx context.Context, sessionID string, userID int64) error {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sessionCartID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE session_id = $1`, sessionID).Scan(&sessionCartID)
	if err == sql.ErrNoRows {
		return nil // nothing to merge
	}
	if err != nil {
		return err
	}

	userCartID, err := h.getOrCreateCartID(ctx, tx, &userID, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, price, attributes, created_at, updated_at)
		SELECT $1, product_id, variant_id, quantity, price, attributes, now(), now()
		FROM cart_items WHERE cart_id = $2
		ON CONFLICT (cart_id, product_id, variant_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = now()`,
		userCartID, sessionCartID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, sessionCartID); err != nil {
		return err
	}

	return tx.Commit()
}
