package checkout

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponUnknown     = errors.New("coupon code not recognized")
	ErrCouponMinSubtotal = errors.New("order subtotal below coupon minimum")
)

// Coupon types.
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

// Coupon is a hardcoded discount definition. There is no coupon table;
// the codes below are the full set the store honors.
type Coupon struct {
	Code        string
	Type        string
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
}

var coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Type: CouponPercentage, Value: decimal.NewFromInt(10)},
	"SAVE5":     {Code: "SAVE5", Type: CouponFixed, Value: decimal.NewFromInt(5), MinSubtotal: decimal.NewFromInt(25)},
	"VIP20":     {Code: "VIP20", Type: CouponPercentage, Value: decimal.NewFromInt(20), MinSubtotal: decimal.NewFromInt(100)},
}

// LookupCoupon resolves a code case-insensitively.
func LookupCoupon(code string) (Coupon, bool) {
	c, ok := coupons[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// DiscountFor computes the discount a coupon grants against a subtotal,
// rounded to cents and never exceeding the subtotal itself.
func (c Coupon) DiscountFor(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.LessThan(c.MinSubtotal) {
		return decimal.Zero, ErrCouponMinSubtotal
	}

	var d decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		d = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case CouponFixed:
		d = c.Value.Round(2)
	default:
		return decimal.Zero, ErrCouponUnknown
	}

	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d, nil
}
