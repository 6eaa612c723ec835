package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-golang/internal/models"
)

// Well-known setting keys.
const (
	KeyTaxEnabled            = "tax_enabled"
	KeyTaxRate               = "tax_rate"
	KeyShippingFlatRate      = "shipping_flat_rate"
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyCurrency              = "currency"
	KeyMaintenanceMode       = "maintenance_mode"
	KeyStoreName             = "store_name"
)

// DefaultTTL is how long a read stays cached per key. A write from
// another process is observed up to this much later.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	value     json.RawMessage
	found     bool
	expiresAt time.Time
}

// Store reads and writes the settings table through a per-key expiring
// cache. GetByCategory always bypasses the cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	// Overridable in tests.
	now   func() time.Time
	fetch func(ctx context.Context, key string) (json.RawMessage, bool, error)
}

func NewStore(db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		db:    db,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
	s.fetch = s.fetchDB
	return s
}

func (s *Store) fetchDB(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(raw), true, nil
}

// Get returns the raw JSON value for key, or found=false when the key
// is absent. Absence is cached too, so a missing key does not cost a
// round trip per request.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && s.now().Before(entry.expiresAt) {
		return entry.value, entry.found, nil
	}

	value, found, err := s.fetch(ctx, key)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{value: value, found: found, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return value, found, nil
}

// GetString returns the value for key as a string, or def.
func (s *Store) GetString(ctx context.Context, key, def string) string {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return def
	}
	var v string
	if json.Unmarshal(raw, &v) != nil {
		return def
	}
	return v
}

// GetBool returns the value for key as a bool, or def.
func (s *Store) GetBool(ctx context.Context, key string, def bool) bool {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return def
	}
	var v bool
	if json.Unmarshal(raw, &v) != nil {
		return def
	}
	return v
}

// GetDecimal returns the value for key as a decimal, or def. Accepts
// both JSON numbers and numeric strings.
func (s *Store) GetDecimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return def
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return decimal.NewFromFloat(f)
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		if d, err := decimal.NewFromString(str); err == nil {
			return d
		}
	}
	return def
}

// Set upserts a setting and invalidates its cache entry. Only this
// process sees the invalidation; others converge within the TTL.
func (s *Store) Set(ctx context.Context, key string, value interface{}, category string, isPublic bool) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, category, is_public, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			category = EXCLUDED.category,
			is_public = EXCLUDED.is_public,
			updated_at = now()`,
		key, string(raw), category, isPublic)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// GetByCategory loads every setting in a category, uncached.
func (s *Store) GetByCategory(ctx context.Context, category string) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, value, category, is_public, updated_at
		FROM settings WHERE category = $1 ORDER BY key`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSettings(rows)
}

// GetPublic loads every public setting, uncached.
func (s *Store) GetPublic(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, value, category, is_public, updated_at
		FROM settings WHERE is_public = TRUE ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSettings(rows)
}

// GetAll loads the whole settings table, uncached. Admin-only.
func (s *Store) GetAll(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, value, category, is_public, updated_at
		FROM settings ORDER BY category, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSettings(rows)
}

func scanSettings(rows *sql.Rows) ([]models.Setting, error) {
	out := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		var raw []byte
		if err := rows.Scan(&st.ID, &st.Key, &raw, &st.Category, &st.IsPublic, &st.UpdatedAt); err != nil {
			return nil, err
		}
		st.Value = json.RawMessage(raw)
		out = append(out, st)
	}
	return out, rows.Err()
}
