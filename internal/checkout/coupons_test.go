package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCoupon_CaseInsensitive(t *testing.T) {
	c, ok := LookupCoupon("  welcome10 ")
	require.True(t, ok)
	assert.Equal(t, "WELCOME10", c.Code)

	_, ok = LookupCoupon("NOPE")
	assert.False(t, ok)
}

func TestDiscountFor_Percentage(t *testing.T) {
	c, _ := LookupCoupon("WELCOME10")

	d, err := c.DiscountFor(decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.Equal(t, "8.00", d.StringFixed(2))
}

func TestDiscountFor_FixedRespectsMinimum(t *testing.T) {
	c, _ := LookupCoupon("SAVE5")

	_, err := c.DiscountFor(decimal.NewFromInt(20))
	assert.ErrorIs(t, err, ErrCouponMinSubtotal)

	d, err := c.DiscountFor(decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, "5.00", d.StringFixed(2))
}

func TestDiscountFor_NeverExceedsSubtotal(t *testing.T) {
	c := Coupon{Code: "BIG", Type: CouponFixed, Value: decimal.NewFromInt(500)}

	d, err := c.DiscountFor(decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.Equal(t, "30.00", d.StringFixed(2))
}
