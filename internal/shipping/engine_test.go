package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora-golang/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func decPtr(s string) *decimal.Decimal { d := dec(s); return &d }
func fptr(f float64) *float64 { return &f }
func sptr(s string) *string { return &s }

func usEngine() Engine {
	return Engine{
		Zones: []models.ShippingZone{
			{ID: 1, Name: "US", Countries: []string{"US"}, IsActive: true},
			{ID: 2, Name: "US West", Countries: []string{"US"}, ZipPatterns: []string{"90*", "94105"}, IsActive: true},
			{ID: 3, Name: "EU", Countries: []string{"DE", "FR"}, IsActive: true},
			{ID: 4, Name: "Disabled", Countries: []string{"US"}, IsActive: false},
		},
		Rates: []models.ShippingRate{
			{ID: 10, ZoneID: 1, Name: "Standard", CostType: models.CostFlat, Amount: dec("5.99"), IsActive: true},
			{ID: 11, ZoneID: 1, Name: "Express", CostType: models.CostFlat, Amount: dec("14.99"), IsActive: true},
			{ID: 12, ZoneID: 2, Name: "Courier", CostType: models.CostWeightBased, Amount: dec("3.00"), PerKg: decPtr("1.50"), MaxWeight: fptr(10), IsActive: true},
			{ID: 13, ZoneID: 3, Name: "EU Post", CostType: models.CostPercentage, Amount: dec("10"), MinOrderAmount: decPtr("20"), IsActive: true},
			{ID: 14, ZoneID: 1, Name: "Freight", CostType: models.CostFlat, Amount: dec("49.00"), MinWeight: fptr(20), IsActive: true},
		},
	}
}

func TestQuote_ZoneAndWindowFiltering(t *testing.T) {
	e := usEngine()

	got := e.Quote(Request{Subtotal: dec("30"), WeightKg: 2, ItemCount: 1, Country: "US", Zip: "10001"})

	// Zone 2 (zip glob) and the freight rate (min weight 20) are out.
	methods := []string{}
	for _, c := range got {
		methods = append(methods, c.Method)
	}
	assert.ElementsMatch(t, []string{"Standard", "Express"}, methods)
}

func TestQuote_ZipGlob(t *testing.T) {
	e := usEngine()

	got := e.Quote(Request{Subtotal: dec("30"), WeightKg: 2, ItemCount: 1, Country: "US", Zip: "90210"})

	methods := []string{}
	for _, c := range got {
		methods = append(methods, c.Method)
		if c.Method == "Courier" {
			// 3.00 base + 2kg x 1.50
			assert.Equal(t, "6.00", c.Cost.StringFixed(2))
		}
	}
	assert.Contains(t, methods, "Courier")
}

func TestQuote_PercentageCost(t *testing.T) {
	e := usEngine()

	got := e.Quote(Request{Subtotal: dec("50"), WeightKg: 1, ItemCount: 1, Country: "DE"})
	require.Len(t, got, 1)
	assert.Equal(t, "EU Post", got[0].Method)
	assert.Equal(t, "5.00", got[0].Cost.StringFixed(2))
}

func TestQuote_RulesApplyInPriorityOrder(t *testing.T) {
	e := usEngine()
	e.Rules = []models.ShippingRule{
		// Lower priority, runs second: undoes the free shipping the
		// first rule granted. Later rules may undo earlier ones.
		{ID: 1, Priority: 10, Condition: "subtotal", Operator: "gte", Value: dec("100"),
			Action: models.ActionAddFlat, ActionValue: decPtr("2.00"), IsActive: true},
		{ID: 2, Priority: 20, Condition: "subtotal", Operator: "gte", Value: dec("100"),
			Action: models.ActionFreeShipping, IsActive: true},
	}

	got := e.Quote(Request{Subtotal: dec("150"), WeightKg: 1, ItemCount: 2, Country: "US", Zip: "10001"})
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.Equal(t, "2.00", c.Cost.StringFixed(2))
	}
}

func TestQuote_RemoveMethod(t *testing.T) {
	e := usEngine()
	e.Rules = []models.ShippingRule{
		{ID: 1, Priority: 5, Condition: "item_count", Operator: "lte", Value: dec("2"),
			Action: models.ActionRemoveMethod, MethodName: sptr("Express"), IsActive: true},
	}

	got := e.Quote(Request{Subtotal: dec("30"), WeightKg: 1, ItemCount: 1, Country: "US", Zip: "10001"})

	for _, c := range got {
		assert.NotEqual(t, "Express", c.Method)
	}
	assert.Len(t, got, 1)
}

func TestQuote_SubtractNeverGoesNegative(t *testing.T) {
	e := usEngine()
	e.Rules = []models.ShippingRule{
		{ID: 1, Priority: 1, Condition: "weight", Operator: "lt", Value: dec("5"),
			Action: models.ActionSubtractFlat, ActionValue: decPtr("100.00"), IsActive: true},
	}

	got := e.Quote(Request{Subtotal: dec("30"), WeightKg: 1, ItemCount: 1, Country: "US", Zip: "10001"})
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.Equal(t, "0.00", c.Cost.StringFixed(2))
	}
}

func TestQuote_NoZoneMatches(t *testing.T) {
	e := usEngine()

	got := e.Quote(Request{Subtotal: dec("30"), WeightKg: 1, ItemCount: 1, Country: "JP"})
	assert.Empty(t, got)
}
