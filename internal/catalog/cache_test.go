package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedSource(t *testing.T, upstream Source) (*CachedSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedSource(upstream, client, time.Minute, nil), mr
}

func TestCachedSource_MissPopulatesCache(t *testing.T) {
	upstream := &stubSource{products: testProducts()}
	cache, mr := setupCachedSource(t, upstream)

	products, err := cache.Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 8)
	assert.Equal(t, 1, upstream.calls)
	assert.True(t, mr.Exists(productsCacheKey))
	assert.Greater(t, mr.TTL(productsCacheKey), time.Duration(0))
}

func TestCachedSource_HitSkipsUpstream(t *testing.T) {
	upstream := &stubSource{products: testProducts()}
	cache, _ := setupCachedSource(t, upstream)
	ctx := context.Background()

	_, err := cache.Products(ctx)
	require.NoError(t, err)
	products, err := cache.Products(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, ids(testProducts()), ids(products))
}

func TestCachedSource_CorruptEntryFallsBack(t *testing.T) {
	upstream := &stubSource{products: testProducts()}
	cache, mr := setupCachedSource(t, upstream)
	require.NoError(t, mr.Set(productsCacheKey, "{not json"))

	products, err := cache.Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 8)
	assert.Equal(t, 1, upstream.calls)

	raw, err := mr.Get(productsCacheKey)
	require.NoError(t, err)
	var cached []Product
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached), "corrupt entry is overwritten")
}

func TestCachedSource_RedisDownUsesUpstream(t *testing.T) {
	upstream := &stubSource{products: testProducts()}
	cache, mr := setupCachedSource(t, upstream)
	mr.Close()

	products, err := cache.Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 8)
}

func TestCachedSource_UpstreamError(t *testing.T) {
	upstreamErr := errors.New("catalog down")
	cache, mr := setupCachedSource(t, &stubSource{err: upstreamErr})

	_, err := cache.Products(context.Background())

	assert.ErrorIs(t, err, upstreamErr)
	assert.False(t, mr.Exists(productsCacheKey))
}

func TestCachedSource_Invalidate(t *testing.T) {
	upstream := &stubSource{products: testProducts()}
	cache, mr := setupCachedSource(t, upstream)
	ctx := context.Background()
	_, err := cache.Products(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx))

	assert.False(t, mr.Exists(productsCacheKey))
	_, err = cache.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}
