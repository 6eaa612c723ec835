package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora-golang/internal/middleware"
	"github.com/vendora/vendora-golang/internal/settings"
)

func newMockedHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Handlers{
		DB:       db,
		Settings: settings.NewStore(db, time.Minute),
		Log:      zerolog.Nop(),
	}, mock
}

func postOrderContext(w *httptest.ResponseRecorder, body string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

// resolvedProductRow matches the column list resolveLines selects for a
// product without a variant.
func resolvedProductRow(name, sku, price string, quantity int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "sku", "image", "price", "weight", "is_active", "track_quantity", "quantity"}).
		AddRow(name, sku, nil, price, nil, true, true, quantity)
}

// expectPricingSettings queues the five settings reads checkoutConfig
// performs, in struct field order.
func expectPricingSettings(mock sqlmock.Sqlmock) {
	for _, v := range []string{`true`, `8.5`, `5.99`, `50`, `"USD"`} {
		mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(v)))
	}
}

const twoLineOrderBody = `{
	"items": [
		{"productId": 1, "quantity": 2},
		{"productId": 2, "quantity": 1}
	],
	"shippingAddress": {
		"firstName": "Ana", "lastName": "Reyes", "street": "1 Main St",
		"city": "Austin", "state": "TX", "zipCode": "78701", "country": "US"
	},
	"paymentMethod": "cod"
}`

const oneLineOrderBody = `{
	"items": [{"productId": 1, "quantity": 2}],
	"shippingAddress": {
		"firstName": "Ana", "lastName": "Reyes", "street": "1 Main St",
		"city": "Austin", "state": "TX", "zipCode": "78701", "country": "US"
	},
	"paymentMethod": "cod"
}`

// A conditional decrement that hits zero rows must fail the request
// with a 400 and roll back the whole transaction: no order row, no
// order items, and the first line's decrement undone.
func TestCreateOrder_StockRaceRollsBackEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newMockedHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT p\.name, p\.sku`).WithArgs(int64(1)).
		WillReturnRows(resolvedProductRow("Mug", "MUG-1", "10.00", 5))
	mock.ExpectQuery(`SELECT p\.name, p\.sku`).WithArgs(int64(2)).
		WillReturnRows(resolvedProductRow("Tee", "TEE-1", "25.00", 3))
	expectPricingSettings(mock)
	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).WithArgs(2, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Someone else got the last Tee between the read and the decrement.
	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).WithArgs(1, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	c := postOrderContext(w, twoLineOrderBody)
	c.Set(middleware.CtxUserID, int64(7))

	h.CreateOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Insufficient stock")
	require.NoError(t, mock.ExpectationsWereMet())
}

// A line that fails validation stops the order before any write: the
// transaction sees only reads and a rollback.
func TestCreateOrder_InactiveProductWritesNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newMockedHandlers(t)

	inactive := sqlmock.NewRows([]string{"name", "sku", "image", "price", "weight", "is_active", "track_quantity", "quantity"}).
		AddRow("Mug", "MUG-1", nil, "10.00", nil, false, true, 5)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT p\.name, p\.sku`).WithArgs(int64(1)).WillReturnRows(inactive)
	expectPricingSettings(mock)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	c := postOrderContext(w, oneLineOrderBody)
	c.Set(middleware.CtxUserID, int64(7))

	h.CreateOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Anonymous checkout: no token means the order is written with a NULL
// user_id instead of being rejected.
func TestCreateOrder_GuestOrderHasNoUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newMockedHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT p\.name, p\.sku`).WithArgs(int64(1)).
		WillReturnRows(resolvedProductRow("Mug", "MUG-1", "10.00", 5))
	expectPricingSettings(mock)
	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).WithArgs(2, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectExec(`INSERT INTO order_items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	c := postOrderContext(w, oneLineOrderBody)

	h.CreateOrder(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(41), data["orderId"])
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, data["orderNumber"])
	require.NoError(t, mock.ExpectationsWereMet())
}

// A duplicate order number retries with a fresh one instead of failing
// the request.
func TestCreateOrder_RetriesOrderNumberCollision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newMockedHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT p\.name, p\.sku`).WithArgs(int64(1)).
		WillReturnRows(resolvedProductRow("Mug", "MUG-1", "10.00", 5))
	expectPricingSettings(mock)
	mock.ExpectExec(`UPDATE products SET quantity = quantity - \$1`).WithArgs(2, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(`INSERT INTO order_items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	c := postOrderContext(w, oneLineOrderBody)
	c.Set(middleware.CtxUserID, int64(7))

	h.CreateOrder(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
