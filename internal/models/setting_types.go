package models

import (
	"encoding/json"
	"time"
)

// Setting is the model for the 'settings' table. Keys are lowercase
// with underscores; values are arbitrary JSON. Public settings are
// readable without authentication.
type Setting struct {
	ID        int64           `json:"id" db:"id"`
	Key       string          `json:"key" db:"key"`
	Value     json.RawMessage `json:"value" db:"value"`
	Category  string          `json:"category" db:"category"`
	IsPublic  bool            `json:"isPublic" db:"is_public"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
