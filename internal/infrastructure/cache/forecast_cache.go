package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appplanning "github.com/stockplan/backend/internal/application/planning"
	"github.com/stockplan/backend/internal/domain/planning"
)

// DefaultForecastTTL is used when no TTL is configured
const DefaultForecastTTL = 15 * time.Minute

// RedisForecastCache implements ForecastCache using Redis. Cache failures
// are logged and reported as misses so forecasting keeps working when
// Redis is unavailable.
type RedisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisForecastCacheOption is a functional option for configuring the cache
type RedisForecastCacheOption func(*RedisForecastCache)

// WithForecastTTL sets the expiry for cached forecasts
func WithForecastTTL(ttl time.Duration) RedisForecastCacheOption {
	return func(c *RedisForecastCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithForecastCacheLogger sets the logger for the cache
func WithForecastCacheLogger(logger *zap.Logger) RedisForecastCacheOption {
	return func(c *RedisForecastCache) {
		c.logger = logger
	}
}

// NewRedisForecastCache creates a cache backed by an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisForecastCache(client *redis.Client, opts ...RedisForecastCacheOption) *RedisForecastCache {
	cache := &RedisForecastCache{
		client: client,
		ttl:    DefaultForecastTTL,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// forecastKey generates the cache key for a product and horizon
func (c *RedisForecastCache) forecastKey(productID uuid.UUID, horizonMonths int) string {
	return fmt.Sprintf("forecast:%s:%d", productID.String(), horizonMonths)
}

// forecastKeyPattern matches every cached horizon for a product
func (c *RedisForecastCache) forecastKeyPattern(productID uuid.UUID) string {
	return fmt.Sprintf("forecast:%s:*", productID.String())
}

// Get retrieves cached forecast points for the product and horizon
func (c *RedisForecastCache) Get(ctx context.Context, productID uuid.UUID, horizonMonths int) ([]planning.ForecastPoint, bool) {
	key := c.forecastKey(productID, horizonMonths)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Error("Failed to get forecast from cache",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}

	var points []planning.ForecastPoint
	if err := json.Unmarshal(data, &points); err != nil {
		c.logger.Error("Failed to unmarshal cached forecast",
			zap.String("key", key),
			zap.Error(err))
		// Drop the corrupted entry
		_ = c.client.Del(ctx, key)
		return nil, false
	}

	c.logger.Debug("Cache hit for forecast", zap.String("key", key))
	return points, true
}

// Set stores forecast points for the product and horizon
func (c *RedisForecastCache) Set(ctx context.Context, productID uuid.UUID, horizonMonths int, points []planning.ForecastPoint) {
	key := c.forecastKey(productID, horizonMonths)

	data, err := json.Marshal(points)
	if err != nil {
		c.logger.Error("Failed to marshal forecast",
			zap.String("key", key),
			zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Failed to set forecast in cache",
			zap.String("key", key),
			zap.Error(err))
		return
	}

	c.logger.Debug("Cached forecast",
		zap.String("key", key),
		zap.Duration("ttl", c.ttl))
}

// Invalidate drops all cached forecasts for the product, across horizons
func (c *RedisForecastCache) Invalidate(ctx context.Context, productID uuid.UUID) {
	var cursor uint64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.forecastKeyPattern(productID), 100).Result()
		if err != nil {
			c.logger.Error("Failed to scan forecast keys",
				zap.String("product_id", productID.String()),
				zap.Error(err))
			return
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Error("Failed to delete forecast keys",
					zap.String("product_id", productID.String()),
					zap.Error(err))
				return
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
}

// Ensure RedisForecastCache implements ForecastCache
var _ appplanning.ForecastCache = (*RedisForecastCache)(nil)
