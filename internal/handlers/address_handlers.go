package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Address Handlers ---
//

type AddressInput struct {
	Label      string  `json:"label" binding:"required"`
	FullName   string  `json:"fullName" binding:"required"`
	Line1      string  `json:"line1" binding:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" binding:"required"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode" binding:"required"`
	Country    string  `json:"country" binding:"required,len=2"`
	Phone      *string `json:"phone"`
	IsDefault  bool    `json:"isDefault"`
}

// CreateAddress is the handler for POST /api/addresses. The first
// address a user saves becomes the default automatically.
func (h *Handlers) CreateAddress(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(int64)

	var input AddressInput
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

	var count int
	if err := tx.QueryRowContext(c,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&count); err != nil {
		h.serverError(c, err, "Failed to check addresses")
		return
	}
	isDefault := input.IsDefault || count == 0

	if isDefault {
		if _, err := tx.ExecContext(c,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
			h.serverError(c, err, "Failed to reset default address")
			return
		}
	}

	var id int64
	err = tx.QueryRowContext(c, `
		INSERT INTO addresses (user_id, label, full_name, line1, line2, city, state, postal_code, country, phone, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING id`,
		userID, input.Label, input.FullName, input.Line1, input.Line2, input.City,
		input.State, input.PostalCode, input.Country, input.Phone, isDefault).Scan(&id)
	if err != nil {
		h.serverError(c, err, "Failed to save address")
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit address")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": id, "isDefault": isDefault})
}

// ListAddresses is the handler for GET /api/addresses, default first.
func (h *Handlers) ListAddresses(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(int64)

	rows, err := h.DB.QueryContext(c, `
		SELECT id, user_id, label, full_name, line1, line2, city, state, postal_code, country, phone, is_default, created_at, updated_at
		FROM addresses WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		h.serverError(c, err, "Failed to load addresses")
		return
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.FullName, &a.Line1, &a.Line2,
			&a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			h.serverError(c, err, "Failed to scan address")
			return
		}
		addresses = append(addresses, a)
	}

	respondData(c, http.StatusOK, addresses)
}

// UpdateAddress is the handler for PUT /api/addresses/:id.
func (h *Handlers) UpdateAddress(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(int64)
	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid address ID")
		return
	}

	var input AddressInput
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

	if input.IsDefault {
		if _, err := tx.ExecContext(c,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2`,
			userID, addressID); err != nil {
			h.serverError(c, err, "Failed to reset default address")
			return
		}
	}

	result, err := tx.ExecContext(c, `
		UPDATE addresses SET label = $1, full_name = $2, line1 = $3, line2 = $4,
			city = $5, state = $6, postal_code = $7, country = $8, phone = $9,
			is_default = $10, updated_at = now()
		WHERE id = $11 AND user_id = $12`,
		input.Label, input.FullName, input.Line1, input.Line2, input.City, input.State,
		input.PostalCode, input.Country, input.Phone, input.IsDefault, addressID, userID)
	if err != nil {
		h.serverError(c, err, "Failed to update address")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "Address not found")
		return
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit address")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Address updated"})
}

// DeleteAddress is the handler for DELETE /api/addresses/:id. When the
// default is removed the most recent remaining address takes over.
func (h *Handlers) DeleteAddress(c *gin.Context) {
	userID := c.MustGet(middleware.CtxUserID).(int64)
	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid address ID")
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		h.serverError(c, err, "Failed to start transaction")
		return
	}
	defer tx.Rollback()

	var wasDefault bool
	err = tx.QueryRowContext(c, `
		DELETE FROM addresses WHERE id = $1 AND user_id = $2 RETURNING is_default`,
		addressID, userID).Scan(&wasDefault)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Address not found")
			return
		}
		h.serverError(c, err, "Failed to delete address")
		return
	}

	if wasDefault {
		_, err = tx.ExecContext(c, `
			UPDATE addresses SET is_default = TRUE
			WHERE id = (SELECT id FROM addresses WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1)`,
			userID)
		if err != nil {
			h.serverError(c, err, "Failed to promote new default address")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		h.serverError(c, err, "Failed to commit address delete")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Address deleted"})
}
