package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondData_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondData(c, http.StatusCreated, gin.H{"id": 7})

	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(7), body["data"].(map[string]interface{})["id"])
	assert.NotContains(t, body, "error")
}

func TestRespondError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, http.StatusNotFound, "Order not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order not found", body["error"])
	assert.NotContains(t, body, "data")
}

func TestGenerateOrderNumber_Format(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260829-\d{6}$`)

	for i := 0; i < 50; i++ {
		n := generateOrderNumber(at)
		assert.Regexp(t, pattern, n)
	}
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	s := nullString("WELCOME10")
	require.NotNil(t, s)
	assert.Equal(t, "WELCOME10", *s)
}
