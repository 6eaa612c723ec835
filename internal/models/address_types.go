package models

import "time"

// Address is the model for the 'addresses' table. Orders copy the
// fields into a JSON snapshot at creation time; editing an address
// never touches past orders.
type Address struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Label      string    `json:"label" db:"label"`
	FullName   string    `json:"fullName" db:"full_name"`
	Line1      string    `json:"line1" db:"line1"`
	Line2      *string   `json:"line2,omitempty" db:"line2"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state" db:"state"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	Country    string    `json:"country" db:"country"` // ISO-2, e.g. "US"
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	IsDefault  bool      `json:"isDefault" db:"is_default"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
