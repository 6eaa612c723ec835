package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["US","CA"]`)))
	assert.Equal(t, StringList{"US", "CA"}, l)

	require.NoError(t, l.Scan(`["90*"]`))
	assert.Equal(t, StringList{"90*"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	assert.Error(t, l.Scan(42))
}

func TestStringListValue(t *testing.T) {
	v, err := StringList{"US"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["US"]`, v.(string))

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
