package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore builds a Store whose fetch hits an in-memory map instead of
// the database, counting how many times each key is actually fetched.
func fakeStore(ttl time.Duration, values map[string]string) (*Store, map[string]int) {
	s := NewStore(nil, ttl)
	hits := map[string]int{}
	s.fetch = func(_ context.Context, key string) (json.RawMessage, bool, error) {
		hits[key]++
		v, ok := values[key]
		if !ok {
			return nil, false, nil
		}
		return json.RawMessage(v), true, nil
	}
	return s, hits
}

func TestGet_CachesWithinTTL(t *testing.T) {
	s, hits := fakeStore(time.Minute, map[string]string{"tax_rate": `8.5`})

	for i := 0; i < 5; i++ {
		raw, found, err := s.Get(context.Background(), "tax_rate")
		require.NoError(t, err)
		require.True(t, found)
		assert.JSONEq(t, `8.5`, string(raw))
	}
	assert.Equal(t, 1, hits["tax_rate"], "every read within the TTL should come from cache")
}

func TestGet_RefetchesAfterExpiry(t *testing.T) {
	s, hits := fakeStore(time.Minute, map[string]string{"currency": `"USD"`})

	now := time.Now()
	s.now = func() time.Time { return now }

	_, _, err := s.Get(context.Background(), "currency")
	require.NoError(t, err)

	// Jump past the TTL; the next read must hit the fetcher again.
	now = now.Add(2 * time.Minute)
	_, _, err = s.Get(context.Background(), "currency")
	require.NoError(t, err)

	assert.Equal(t, 2, hits["currency"])
}

func TestGet_CachesAbsence(t *testing.T) {
	s, hits := fakeStore(time.Minute, map[string]string{})

	for i := 0; i < 3; i++ {
		_, found, err := s.Get(context.Background(), "missing_key")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 1, hits["missing_key"])
}

func TestTypedGetters_Defaults(t *testing.T) {
	s, _ := fakeStore(time.Minute, map[string]string{
		"tax_enabled": `true`,
		"tax_rate":    `8.5`,
		"flat_rate":   `"5.99"`,
		"store_name":  `"Vendora"`,
		"mangled":     `{"not":"a scalar"}`,
	})
	ctx := context.Background()

	assert.True(t, s.GetBool(ctx, "tax_enabled", false))
	assert.False(t, s.GetBool(ctx, "absent", false))
	assert.Equal(t, "Vendora", s.GetString(ctx, "store_name", "x"))
	assert.Equal(t, "fallback", s.GetString(ctx, "absent", "fallback"))

	assert.True(t, decimal.NewFromFloat(8.5).Equal(s.GetDecimal(ctx, "tax_rate", decimal.Zero)))
	assert.True(t, decimal.RequireFromString("5.99").Equal(s.GetDecimal(ctx, "flat_rate", decimal.Zero)))
	assert.True(t, decimal.NewFromInt(7).Equal(s.GetDecimal(ctx, "mangled", decimal.NewFromInt(7))))
}
