package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StringList is a []string stored as a JSONB document.
type StringList []string

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into StringList", src)
}

// Value encodes as a JSON string so the driver sends a jsonb-compatible
// parameter rather than bytea.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Shipping rate cost types.
const (
	CostFlat        = "flat"
	CostWeightBased = "weight_based"
	CostPercentage  = "percentage"
)

// Shipping rule actions.
const (
	ActionFreeShipping    = "free_shipping"
	ActionAddFlat         = "add_flat"
	ActionSubtractFlat    = "subtract_flat"
	ActionAddPercent      = "add_percent"
	ActionSubtractPercent = "subtract_percent"
	ActionRemoveMethod    = "remove_method"
)

// ShippingZone is the model for the 'shipping_zones' table. Countries,
// states and zip patterns are JSONB lists; a zip pattern is either a
// literal or a prefix glob like "90*".
type ShippingZone struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Countries   StringList `json:"countries" db:"countries"`
	States      StringList `json:"states" db:"states"`
	ZipPatterns StringList `json:"zipPatterns" db:"zip_patterns"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// ShippingRate is the model for the 'shipping_rates' table. The
// min/max windows filter candidates before rule evaluation.
type ShippingRate struct {
	ID       int64  `json:"id" db:"id"`
	ZoneID   int64  `json:"zoneId" db:"zone_id"`
	Name     string `json:"name" db:"name"` // method name shown to the buyer
	CostType string `json:"costType" db:"cost_type"`

	Amount decimal.Decimal  `json:"amount" db:"amount"`
	PerKg  *decimal.Decimal `json:"perKg,omitempty" db:"per_kg"` // weight_based only

	MinOrderAmount *decimal.Decimal `json:"minOrderAmount,omitempty" db:"min_order_amount"`
	MaxOrderAmount *decimal.Decimal `json:"maxOrderAmount,omitempty" db:"max_order_amount"`
	MinWeight      *float64         `json:"minWeight,omitempty" db:"min_weight"`
	MaxWeight      *float64         `json:"maxWeight,omitempty" db:"max_weight"`

	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ShippingRule is the model for the 'shipping_rules' table. Rules run
// in priority-descending order and mutate the candidate rate list in
// place, so a later rule can undo an earlier one.
type ShippingRule struct {
	ID          int64            `json:"id" db:"id"`
	Priority    int              `json:"priority" db:"priority"`
	Condition   string           `json:"condition" db:"condition"` // subtotal | weight | item_count
	Operator    string           `json:"operator" db:"operator"`   // gt | gte | lt | lte | eq
	Value       decimal.Decimal  `json:"value" db:"value"`
	Action      string           `json:"action" db:"action"`
	ActionValue *decimal.Decimal `json:"actionValue,omitempty" db:"action_value"`
	MethodName  *string          `json:"methodName,omitempty" db:"method_name"` // remove_method only
	IsActive    bool             `json:"isActive" db:"is_active"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}
