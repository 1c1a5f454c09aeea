package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

const productListKey = "storefront:products:all"

// ProductListCache caches the full product listing
type ProductListCache interface {
	// Get returns the cached listing; ok is false on a miss
	Get(ctx context.Context) (products []catalog.Product, ok bool, err error)
	Set(ctx context.Context, products []catalog.Product, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisProductCache stores the listing as a JSON blob in Redis
type RedisProductCache struct {
	client redis.Cmdable
	logger *zap.Logger
}

// RedisProductCacheOption configures a RedisProductCache
type RedisProductCacheOption func(*RedisProductCache)

// WithRedisLogger sets the cache logger
func WithRedisLogger(logger *zap.Logger) RedisProductCacheOption {
	return func(c *RedisProductCache) {
		c.logger = logger
	}
}

// NewRedisProductCache creates a cache on an existing client.
// The caller retains ownership of the client.
func NewRedisProductCache(client redis.Cmdable, opts ...RedisProductCacheOption) *RedisProductCache {
	c := &RedisProductCache{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements ProductListCache
func (c *RedisProductCache) Get(ctx context.Context) ([]catalog.Product, bool, error) {
	data, err := c.client.Get(ctx, productListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get products from cache: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("Dropping corrupted product cache entry", zap.Error(err))
		_ = c.client.Del(ctx, productListKey)
		return nil, false, nil
	}
	return products, true, nil
}

// Set implements ProductListCache
func (c *RedisProductCache) Set(ctx context.Context, products []catalog.Product, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}
	if err := c.client.Set(ctx, productListKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set products in cache: %w", err)
	}
	return nil
}

// Invalidate implements ProductListCache
func (c *RedisProductCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, productListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	return nil
}

var _ ProductListCache = (*RedisProductCache)(nil)

// InMemoryProductCache is a process-local ProductListCache
type InMemoryProductCache struct {
	mu        sync.RWMutex
	products  []catalog.Product
	expiresAt time.Time
	now       func() time.Time
}

// NewInMemoryProductCache creates an empty cache
func NewInMemoryProductCache() *InMemoryProductCache {
	return &InMemoryProductCache{now: time.Now}
}

// Get implements ProductListCache
func (c *InMemoryProductCache) Get(_ context.Context) ([]catalog.Product, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.products == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]catalog.Product, len(c.products))
	copy(out, c.products)
	return out, true, nil
}

// Set implements ProductListCache
func (c *InMemoryProductCache) Set(_ context.Context, products []catalog.Product, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]catalog.Product, len(products))
	copy(stored, products)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = stored
	c.expiresAt = c.now().Add(ttl)
	return nil
}

// Invalidate implements ProductListCache
func (c *InMemoryProductCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.expiresAt = time.Time{}
	return nil
}

var _ ProductListCache = (*InMemoryProductCache)(nil)
