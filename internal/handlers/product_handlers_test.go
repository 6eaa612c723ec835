package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// Admin catalog handlers reject non-numeric ids with a 400 instead of
// letting Postgres fail the cast.
func TestAdminCatalogHandlers_RejectMalformedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handlers{Log: zerolog.Nop()}

	calls := []struct {
		name    string
		method  string
		handler gin.HandlerFunc
		wantMsg string
	}{
		{"update product", http.MethodPut, h.UpdateProduct, "Invalid product ID"},
		{"delete product", http.MethodDelete, h.DeleteProduct, "Invalid product ID"},
		{"update category", http.MethodPut, h.UpdateCategory, "Invalid category ID"},
		{"delete category", http.MethodDelete, h.DeleteCategory, "Invalid category ID"},
	}
	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(tc.method, "/", strings.NewReader(`{}`))
			c.Params = gin.Params{{Key: "id", Value: "not-a-number"}}

			tc.handler(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantMsg)
		})
	}
}
