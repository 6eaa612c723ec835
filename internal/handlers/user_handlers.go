package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/models"
)

//
// --- Auth & Profile Handlers ---
//

type RegisterInput struct {
	FullName string  `json:"fullName" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone"`
}

// Register is the handler for POST /api/register. New users are
// always customers; admins are provisioned out of band.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, err, "Failed to hash password")
		return
	}

	user := models.User{
		Email:    input.Email,
		FullName: input.FullName,
		Phone:    input.Phone,
		Role:     models.RoleCustomer,
		IsActive: true,
	}

	err := h.DB.QueryRowContext(c, `
		INSERT INTO users (email, password_hash, full_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		RETURNING id, created_at, updated_at`,
		input.Email, password.Hash, input.FullName, input.Phone, models.RoleCustomer,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		h.serverError(c, err, "Failed to create account")
		return
	}

	user.PasswordHash = ""
	respondData(c, http.StatusCreated, gin.H{"user": user})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/login. When the caller also
// presents a guest X-Session-ID, that session's cart is merged into the
// user's cart.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	var user models.User
	err := h.DB.QueryRowContext(c, `
		SELECT id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at
		FROM users WHERE email = $1`, input.Email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Phone,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.serverError(c, err, "Login failed")
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		h.serverError(c, err, "Login failed")
		return
	}
	if !match || !user.IsActive {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.Auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.serverError(c, err, "Failed to issue token")
		return
	}

	// Guest-to-user cart migration. Merge failure must not block login.
	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		if err := h.mergeSessionCart(c, sessionID, user.ID); err != nil {
			h.Log.Warn().Err(err).Int64("user_id", user.ID).Msg("session cart merge failed")
		}
	}

	user.PasswordHash = ""
	respondData(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// Me is the handler for GET /api/me.
func (h *Handlers) Me(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserID)

	var user models.User
	err := h.DB.QueryRowContext(c, `
		SELECT id, email, full_name, phone, role, is_active, created_at, updated_at
		FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Phone,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, err, "Failed to load profile")
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user})
}

type UpdateProfileInput struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

// UpdateProfile is the handler for PUT /api/me.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserID)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBinding(c, err)
		return
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE users SET
			full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			updated_at = $3
		WHERE id = $4`,
		input.FullName, input.Phone, time.Now(), userID)
	if err != nil {
		h.serverError(c, err, "Failed to update profile")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "Profile updated"})
}
