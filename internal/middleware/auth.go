package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vendora/vendora-golang/internal/auth"
	"github.com/vendora/vendora-golang/internal/models"
	"github.com/vendora/vendora-golang/internal/settings"
)

// Context keys set by the auth middleware.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests without a valid bearer token. When the
// maintenance_mode setting is on, only admins pass.
func RequireAuth(m *auth.Manager, store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "error": "Authorization header required (Bearer token)",
			})
			return
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "error": "Invalid or expired token",
			})
			return
		}

		if store.GetBool(c.Request.Context(), settings.KeyMaintenanceMode, false) &&
			claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false, "error": "The store is currently in maintenance mode. Please try again later.",
			})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth attaches identity when a valid token is present but lets
// anonymous callers through. Used by cart and checkout routes that
// accept guests.
func OptionalAuth(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := m.ValidateToken(token); err == nil {
				c.Set(CtxUserID, claims.UserID)
				c.Set(CtxUserRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth; it authorizes on the role
// claim carried in the token.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(CtxUserRole)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "error": "Admin access required",
			})
			return
		}
		c.Next()
	}
}
