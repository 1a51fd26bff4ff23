package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
)

// CachedCatalog keeps product and bundle snapshots in redis. Stock-changing
// paths must call InvalidateProducts so cart views stay close to live data.
type CachedCatalog struct {
	next        Catalog
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCatalog(next Catalog, redisClient *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedCatalog{next: next, redisClient: redisClient, cacheTTL: ttl}
}

func productKey(id uint) string { return fmt.Sprintf("checkout:product:%d", id) }
func bundleKey(id uint) string  { return fmt.Sprintf("checkout:bundle:%d", id) }

func (c *CachedCatalog) Product(ctx context.Context, id uint) (*domain.ProductSnapshot, error) {
	var snap domain.ProductSnapshot
	if c.get(ctx, productKey(id), &snap) {
		return &snap, nil
	}
	p, err := c.next.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, productKey(id), p)
	return p, nil
}

func (c *CachedCatalog) Bundle(ctx context.Context, id uint) (*domain.BundleSnapshot, error) {
	var snap domain.BundleSnapshot
	if c.get(ctx, bundleKey(id), &snap) {
		return &snap, nil
	}
	b, err := c.next.Bundle(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, bundleKey(id), b)
	return b, nil
}

func (c *CachedCatalog) InvalidateProducts(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("catalog_cache_invalidate_error", "keys", len(keys), "error", err)
	}
}

func (c *CachedCatalog) get(ctx context.Context, key string, dst any) bool {
	val, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.FromContext(ctx).Warn("catalog_cache_get_error", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(val, dst) == nil
}

func (c *CachedCatalog) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redisClient.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("catalog_cache_set_error", "key", key, "error", err)
	}
}
