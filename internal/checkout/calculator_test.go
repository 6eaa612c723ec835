package checkout

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usConfig() Config {
	return Config{
		TaxEnabled:            true,
		TaxRate:               decimal.RequireFromString("8.5"),
		FlatRate:              decimal.RequireFromString("5.99"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		Currency:              "USD",
	}
}

func line(productID int64, qty int, price string) ResolvedLine {
	return ResolvedLine{
		ProductID: productID,
		Name:      "Widget",
		SKU:       "WID-001",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
		IsActive:  true,
	}
}

func TestCalculate_FreeShippingAtThreshold(t *testing.T) {
	// 2 x 25.00 = 50.00, exactly the threshold: shipping must be free.
	q, err := Calculate([]ResolvedLine{line(1, 2, "25.00")}, usConfig(), Destination{Country: "US"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "50.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", q.ShippingAmount.StringFixed(2))
	assert.Equal(t, "4.25", q.TaxAmount.StringFixed(2))
	assert.Equal(t, "54.25", q.Total.StringFixed(2))
	assert.Equal(t, 2, q.TotalItems)
}

func TestCalculate_CountrySurchargeBelowThreshold(t *testing.T) {
	// Subtotal 30 is below the threshold; destination CA adds the
	// 15.00 surcharge on top of the flat rate.
	q, err := Calculate([]ResolvedLine{line(1, 2, "15.00")}, usConfig(), Destination{Country: "CA"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "30.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "20.99", q.ShippingAmount.StringFixed(2))
}

func TestCalculate_WeightSurcharge(t *testing.T) {
	w := 2.0
	l := line(1, 4, "5.00")
	l.WeightKg = &w // 4 x 2kg = 8kg, 3kg over the 5kg threshold

	q, err := Calculate([]ResolvedLine{l}, usConfig(), Destination{Country: "US"}, nil)
	require.NoError(t, err)

	// 5.99 flat + 3 x 2.00 surcharge
	assert.Equal(t, "11.99", q.ShippingAmount.StringFixed(2))
	assert.Equal(t, 8.0, q.TotalWeightKg)
}

func TestCalculate_DefaultWeightPerUnit(t *testing.T) {
	// No weight on record: 0.5kg per unit.
	q, err := Calculate([]ResolvedLine{line(1, 3, "1.00")}, usConfig(), Destination{Country: "US"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.5, q.TotalWeightKg)
}

func TestCalculate_UntrackedStockNeverRejects(t *testing.T) {
	l := line(1, 100000, "0.01")
	l.TrackQuantity = false
	l.Available = 0

	_, err := Calculate([]ResolvedLine{l}, usConfig(), Destination{Country: "US"}, nil)
	assert.NoError(t, err)
}

func TestCalculate_InsufficientStockNamesProduct(t *testing.T) {
	variantID := int64(9)
	l := line(7, 5, "10.00")
	l.VariantID = &variantID
	l.TrackQuantity = true
	l.Available = 2

	_, err := Calculate([]ResolvedLine{l}, usConfig(), Destination{Country: "US"}, nil)
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindInsufficientStock, cerr.Kind)
	assert.Equal(t, "Widget", cerr.ProductName)
	assert.Equal(t, 5, cerr.Requested)
	assert.Equal(t, 2, cerr.Available)
}

func TestCalculate_InactiveProduct(t *testing.T) {
	l := line(3, 1, "10.00")
	l.IsActive = false

	_, err := Calculate([]ResolvedLine{l}, usConfig(), Destination{Country: "US"}, nil)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindInactive, cerr.Kind)
}

func TestCalculate_TaxDisabled(t *testing.T) {
	cfg := usConfig()
	cfg.TaxEnabled = false

	q, err := Calculate([]ResolvedLine{line(1, 1, "20.00")}, cfg, Destination{Country: "US"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", q.TaxAmount.StringFixed(2))
}

func TestCalculate_TotalInvariant(t *testing.T) {
	coupon, _ := LookupCoupon("WELCOME10")
	cases := [][]ResolvedLine{
		{line(1, 1, "9.99")},
		{line(1, 3, "33.33"), line(2, 2, "0.50")},
		{line(1, 7, "14.25"), line(2, 1, "99.99"), line(3, 2, "3.49")},
	}
	for _, lines := range cases {
		q, err := Calculate(lines, usConfig(), Destination{Country: "DE"}, &coupon)
		require.NoError(t, err)

		want := q.Subtotal.Add(q.TaxAmount).Add(q.ShippingAmount).Sub(q.DiscountAmount).Round(2)
		assert.True(t, q.Total.Equal(want), "total %s != %s", q.Total, want)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	lines := []ResolvedLine{line(1, 2, "25.00"), line(2, 1, "7.49")}

	first, err := Calculate(lines, usConfig(), Destination{Country: "US"}, nil)
	require.NoError(t, err)
	second, err := Calculate(lines, usConfig(), Destination{Country: "US"}, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
