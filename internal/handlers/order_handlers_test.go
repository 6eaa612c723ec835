package handlers

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A stale pending order is cancelled under a fresh transaction and its
// tracked quantities go back to the catalog.
func TestProcessStaleOrders_CancelsAndRestocks(t *testing.T) {
	h, mock := newMockedHandlers(t)

	mock.ExpectQuery(`SELECT id FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products p SET quantity = p\.quantity \+ oi\.quantity`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE product_variants v SET quantity = v\.quantity \+ oi\.quantity`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h.ProcessStaleOrders(context.Background(), 30*time.Minute)

	require.NoError(t, mock.ExpectationsWereMet())
}

// An order an admin already moved on fails the re-check and is left
// alone.
func TestProcessStaleOrders_SkipsOrdersThatMovedOn(t *testing.T) {
	h, mock := newMockedHandlers(t)

	mock.ExpectQuery(`SELECT id FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	h.ProcessStaleOrders(context.Background(), 30*time.Minute)

	require.NoError(t, mock.ExpectationsWereMet())
}

// When the candidate scan breaks mid-iteration the sweep aborts instead
// of cancelling from a silently truncated list.
func TestProcessStaleOrders_AbortsOnScanError(t *testing.T) {
	h, mock := newMockedHandlers(t)

	var buf bytes.Buffer
	h.Log = zerolog.New(&buf)

	rows := sqlmock.NewRows([]string{"id"}).
		AddRow(int64(9)).AddRow(int64(10)).
		RowError(1, errors.New("connection reset"))
	mock.ExpectQuery(`SELECT id FROM orders`).WillReturnRows(rows)

	h.ProcessStaleOrders(context.Background(), 30*time.Minute)

	assert.Contains(t, buf.String(), "stale order scan failed")
	assert.NotContains(t, buf.String(), "stale order cancelled")
	require.NoError(t, mock.ExpectationsWereMet())
}
