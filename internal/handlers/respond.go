package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

// Every response uses the same envelope:
// {success, data?, error?, details?}.

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondBinding turns a gin binding failure into a 400 with per-field
// details when the underlying error is a validator error set.
func respondBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fmt.Sprintf("%s: failed '%s' validation", strings.ToLower(fe.Field()), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": details,
		})
		return
	}
	respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// serverError logs the real failure and returns a sanitized 500. The
// underlying error string is only exposed outside production.
func (h *Handlers) serverError(c *gin.Context, err error, message string) {
	h.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	if h.Cfg.IsProduction() {
		respondError(c, http.StatusInternalServerError, message)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   message,
		"details": []string{err.Error()},
	})
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (duplicate SKU, slug, email, order number).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
