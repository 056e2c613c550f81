package memocache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/joinopt/internal/bitset"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCardinalityRoundTrip(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Cardinality(bitset.Set(0b101))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutCardinality(bitset.Set(0b101), 42.5))

	value, ok, err := c.Cardinality(bitset.Set(0b101))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.5, value)
}

func TestSignatureRoundTrip(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.PutSignature(bitset.Set(0b11), "(R0:J:R1)"))

	sig, ok, err := c.Signature(bitset.Set(0b11))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "(R0:J:R1)", sig)
}

func TestOperationsFailAfterClose(t *testing.T) {
	c, err := Open(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	err = c.PutCardinality(bitset.Set(1), 1)
	assert.ErrorIs(t, err, ErrClosed)

	_, _, err = c.Cardinality(bitset.Set(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := Open(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
