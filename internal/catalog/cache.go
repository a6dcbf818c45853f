package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productsCacheKey = "catalog:products"

// CachedSource is a read-through Redis cache in front of another Source.
// Cache failures are logged and the upstream source is used instead.
type CachedSource struct {
	upstream Source
	client   *redis.Client
	baseTTL  time.Duration
	logger   *zap.Logger
}

func NewCachedSource(upstream Source, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedSource{
		upstream: upstream,
		client:   client,
		baseTTL:  ttl,
		logger:   logger.Named("catalog_cache"),
	}
}

// Products implements Source.
func (c *CachedSource) Products(ctx context.Context) ([]Product, error) {
	data, err := c.client.Get(ctx, productsCacheKey).Bytes()
	switch {
	case err == nil:
		var products []Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.logger.Warn("discarding corrupt catalog cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.Error(err))
	}

	products, err := c.upstream.Products(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(products)
	if err != nil {
		return products, nil
	}
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := c.client.Set(ctx, productsCacheKey, encoded, c.baseTTL+jitter).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return products, nil
}

// Invalidate drops the cached product list.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, productsCacheKey).Err()
}
