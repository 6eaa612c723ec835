// Package checkout prices a set of resolved line items: stock and
// activity validation, subtotal accumulation, shipping and tax policy
// from settings, and an itemized quote. It performs no I/O; handlers
// load the lines and the settings snapshot, then call Calculate.
package checkout

import (
	"github.com/shopspring/decimal"
)

const (
	// Per-unit fallback when a product has no weight on record.
	defaultItemWeightKg = 0.5

	// Above this total weight each extra kilogram costs extra.
	weightSurchargeThresholdKg = 5.0
)

var (
	weightSurchargePerKg   = decimal.NewFromInt(2)
	internationalSurcharge = decimal.RequireFromString("15.00")
	hundred                = decimal.NewFromInt(100)
)

// Line is a raw checkout request line.
type Line struct {
	ProductID int64  `json:"productId" binding:"required"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ResolvedLine is a Line joined against the catalog. UnitPrice is the
// variant price when a variant was requested and carries one, else the
// product price. Available/TrackQuantity come from whichever record the
// stock invariant applies to.
type ResolvedLine struct {
	ProductID     int64
	VariantID     *int64
	Name          string
	SKU           string
	Image         string
	UnitPrice     decimal.Decimal
	Quantity      int
	WeightKg      *float64 // per unit; nil -> defaultItemWeightKg
	IsActive      bool
	TrackQuantity bool
	Available     int
}

// Config is the settings snapshot a quote is priced against.
type Config struct {
	TaxEnabled            bool
	TaxRate               decimal.Decimal // percent, e.g. 8.5
	FlatRate              decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              string
}

// Destination is the part of the shipping address pricing cares about.
type Destination struct {
	Country string
}

// QuoteItem is one priced line in the response breakdown.
type QuoteItem struct {
	ProductID int64           `json:"productId"`
	VariantID *int64          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// Quote is the full itemized breakdown. Total always equals
// Subtotal + TaxAmount + ShippingAmount - DiscountAmount at 2dp.
type Quote struct {
	Items          []QuoteItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	TotalItems     int             `json:"totalItems"`
	TotalWeightKg  float64         `json:"totalWeightKg"`
}

// Validate applies the per-line checks: active product, and when stock
// is tracked (on the product or the variant independently), enough of
// it. The first failing line fails the request.
func Validate(lines []ResolvedLine) error {
	for _, l := range lines {
		if !l.IsActive {
			return InactiveError(l.ProductID, l.Name)
		}
		if l.TrackQuantity && l.Available < l.Quantity {
			return StockError(l.ProductID, l.Name, l.Quantity, l.Available)
		}
	}
	return nil
}

// Calculate prices validated lines into a Quote. coupon may be nil; a
// coupon that fails its minimum is reported as an error, not silently
// ignored. Pure function: calling it twice with the same input yields
// the same output.
func Calculate(lines []ResolvedLine, cfg Config, dest Destination, coupon *Coupon) (Quote, error) {
	if err := Validate(lines); err != nil {
		return Quote{}, err
	}

	q := Quote{Currency: cfg.Currency}

	subtotal := decimal.Zero
	totalWeight := 0.0
	for _, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		q.TotalItems += l.Quantity

		unitWeight := defaultItemWeightKg
		if l.WeightKg != nil {
			unitWeight = *l.WeightKg
		}
		totalWeight += unitWeight * float64(l.Quantity)

		q.Items = append(q.Items, QuoteItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Name:      l.Name,
			SKU:       l.SKU,
			Image:     l.Image,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Total:     lineTotal,
		})
	}

	q.Subtotal = subtotal.Round(2)
	q.TotalWeightKg = totalWeight
	q.ShippingAmount = shippingFor(q.Subtotal, totalWeight, dest, cfg)

	if cfg.TaxEnabled {
		q.TaxAmount = q.Subtotal.Mul(cfg.TaxRate).Div(hundred).Round(2)
	} else {
		q.TaxAmount = decimal.Zero
	}

	q.DiscountAmount = decimal.Zero
	if coupon != nil {
		d, err := coupon.DiscountFor(q.Subtotal)
		if err != nil {
			return Quote{}, err
		}
		q.DiscountAmount = d
	}

	q.Total = q.Subtotal.Add(q.TaxAmount).Add(q.ShippingAmount).Sub(q.DiscountAmount).Round(2)
	return q, nil
}

// shippingFor implements the flat-rate policy: free at or above the
// threshold (boundary inclusive), otherwise flat rate plus a weight
// surcharge over 5kg and a fixed surcharge for non-US destinations.
// The country surcharge applies whenever the flat-rate path is taken.
func shippingFor(subtotal decimal.Decimal, totalWeightKg float64, dest Destination, cfg Config) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}

	shipping := cfg.FlatRate
	if totalWeightKg > weightSurchargeThresholdKg {
		over := decimal.NewFromFloat(totalWeightKg - weightSurchargeThresholdKg)
		shipping = shipping.Add(over.Mul(weightSurchargePerKg))
	}
	if dest.Country != "" && dest.Country != "US" {
		shipping = shipping.Add(internationalSurcharge)
	}
	return shipping.Round(2)
}
