package folio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := folio.NewMemoryCache()
	ctx := context.Background()

	got, err := c.Get(ctx, "catalog:status:quote")
	require.NoError(t, err)
	assert.Nil(t, got, "a miss reads as nil, nil")

	require.NoError(t, c.Set(ctx, "catalog:status:quote", []byte("v1"), 0))
	got, err = c.Get(ctx, "catalog:status:quote")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// The cache holds its own copies in both directions.
	got[0] = 'X'
	again, err := c.Get(ctx, "catalog:status:quote")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, c.Delete(ctx, "catalog:status:quote"))
	got, err = c.Get(ctx, "catalog:status:quote")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheTTL(t *testing.T) {
	c := folio.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 15*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	got, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.NotNil(t, got, "not expired yet")

	time.Sleep(40 * time.Millisecond)

	got, err = c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries read as misses")

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got, "ttl 0 never expires")
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := folio.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:cities:56", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "catalog:cities:33", []byte("b"), 0))
	require.NoError(t, c.Set(ctx, "catalog:units", []byte("c"), 0))

	require.NoError(t, c.DeletePrefix(ctx, "catalog:cities:"))
	assert.Equal(t, 1, c.Len())

	got, err := c.Get(ctx, "catalog:units")
	require.NoError(t, err)
	assert.NotNil(t, got, "other prefixes survive")
}
