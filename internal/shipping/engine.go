// Package shipping implements the zone/rate/rule engine: find the
// zones matching a destination, collect their rates, filter by order
// amount and weight windows, price each candidate, then let the ordered
// rule list adjust or remove candidates.
package shipping

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/models"
)

// Request carries what the engine needs to know about an order and its
// destination.
type Request struct {
	Subtotal  decimal.Decimal
	WeightKg  float64
	ItemCount int

	Country string
	State   string
	Zip     string
}

// Candidate is one shipping method offered for a request, after rule
// application.
type Candidate struct {
	RateID int64           `json:"rateId"`
	ZoneID int64           `json:"zoneId"`
	Method string          `json:"method"`
	Cost   decimal.Decimal `json:"cost"`
}

// Engine evaluates loaded zone/rate/rule data. It holds no connection;
// handlers load the rows and hand them over.
type Engine struct {
	Zones []models.ShippingZone
	Rates []models.ShippingRate
	Rules []models.ShippingRule
}

// Quote returns every shipping method applicable to the request, rules
// applied. An empty result means no zone covers the destination.
func (e Engine) Quote(req Request) []Candidate {
	zoneMatch := map[int64]bool{}
	for _, z := range e.Zones {
		if z.IsActive && zoneMatches(z, req) {
			zoneMatch[z.ID] = true
		}
	}

	candidates := []Candidate{}
	for _, r := range e.Rates {
		if !r.IsActive || !zoneMatch[r.ZoneID] {
			continue
		}
		if !rateWindowMatches(r, req) {
			continue
		}
		candidates = append(candidates, Candidate{
			RateID: r.ID,
			ZoneID: r.ZoneID,
			Method: r.Name,
			Cost:   rateCost(r, req),
		})
	}

	e.applyRules(&candidates, req)
	return candidates
}

func zoneMatches(z models.ShippingZone, req Request) bool {
	if !listMatches(z.Countries, req.Country) {
		return false
	}
	if !listMatches(z.States, req.State) {
		return false
	}
	if len(z.ZipPatterns) == 0 {
		return true
	}
	for _, p := range z.ZipPatterns {
		if zipMatches(p, req.Zip) {
			return true
		}
	}
	return false
}

// listMatches treats an empty list or "*" entry as "any".
func listMatches(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == "*" || strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// zipMatches supports literals and trailing-star prefix globs ("90*").
func zipMatches(pattern, zip string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(zip, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == zip
}

func rateWindowMatches(r models.ShippingRate, req Request) bool {
	if r.MinOrderAmount != nil && req.Subtotal.LessThan(*r.MinOrderAmount) {
		return false
	}
	if r.MaxOrderAmount != nil && req.Subtotal.GreaterThan(*r.MaxOrderAmount) {
		return false
	}
	if r.MinWeight != nil && req.WeightKg < *r.MinWeight {
		return false
	}
	if r.MaxWeight != nil && req.WeightKg > *r.MaxWeight {
		return false
	}
	return true
}

func rateCost(r models.ShippingRate, req Request) decimal.Decimal {
	switch r.CostType {
	case models.CostWeightBased:
		cost := r.Amount
		if r.PerKg != nil {
			cost = cost.Add(r.PerKg.Mul(decimal.NewFromFloat(req.WeightKg)))
		}
		return cost.Round(2)
	case models.CostPercentage:
		return req.Subtotal.Mul(r.Amount).Div(decimal.NewFromInt(100)).Round(2)
	default: // flat
		return r.Amount.Round(2)
	}
}

// applyRules mutates the candidate list in place, highest priority
// first. No tie-break exists: equal priorities run in load order and a
// later rule can undo an earlier one.
func (e Engine) applyRules(out *[]Candidate, req Request) {
	rules := make([]models.ShippingRule, 0, len(e.Rules))
	for _, r := range e.Rules {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	for _, rule := range rules {
		if !conditionHolds(rule, req) {
			continue
		}
		switch rule.Action {
		case models.ActionRemoveMethod:
			if rule.MethodName == nil {
				continue
			}
			kept := (*out)[:0]
			for _, c := range *out {
				if !strings.EqualFold(c.Method, *rule.MethodName) {
					kept = append(kept, c)
				}
			}
			*out = kept
		default:
			for i := range *out {
				(*out)[i].Cost = adjustCost((*out)[i].Cost, rule)
			}
		}
	}
}

func conditionHolds(rule models.ShippingRule, req Request) bool {
	var actual decimal.Decimal
	switch rule.Condition {
	case "subtotal":
		actual = req.Subtotal
	case "weight":
		actual = decimal.NewFromFloat(req.WeightKg)
	case "item_count":
		actual = decimal.NewFromInt(int64(req.ItemCount))
	default:
		return false
	}

	switch rule.Operator {
	case "gt":
		return actual.GreaterThan(rule.Value)
	case "gte":
		return actual.GreaterThanOrEqual(rule.Value)
	case "lt":
		return actual.LessThan(rule.Value)
	case "lte":
		return actual.LessThanOrEqual(rule.Value)
	case "eq":
		return actual.Equal(rule.Value)
	}
	return false
}

func adjustCost(cost decimal.Decimal, rule models.ShippingRule) decimal.Decimal {
	v := decimal.Zero
	if rule.ActionValue != nil {
		v = *rule.ActionValue
	}

	switch rule.Action {
	case models.ActionFreeShipping:
		return decimal.Zero
	case models.ActionAddFlat:
		cost = cost.Add(v)
	case models.ActionSubtractFlat:
		cost = cost.Sub(v)
	case models.ActionAddPercent:
		cost = cost.Add(cost.Mul(v).Div(decimal.NewFromInt(100)))
	case models.ActionSubtractPercent:
		cost = cost.Sub(cost.Mul(v).Div(decimal.NewFromInt(100)))
	}

	if cost.IsNegative() {
		cost = decimal.Zero
	}
	return cost.Round(2)
}
