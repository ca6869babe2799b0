package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appplanning "github.com/stockplan/backend/internal/application/planning"
	"github.com/stockplan/backend/internal/domain/planning"
)

// InMemoryForecastCache implements ForecastCache using process-local
// storage. Used when Redis is disabled; entries expire lazily on read.
type InMemoryForecastCache struct {
	mu      sync.RWMutex
	entries map[string]forecastEntry
	ttl     time.Duration
	clock   func() time.Time
}

type forecastEntry struct {
	points    []planning.ForecastPoint
	expiresAt time.Time
}

// NewInMemoryForecastCache creates an in-memory forecast cache with the
// given TTL. A non-positive TTL falls back to DefaultForecastTTL.
func NewInMemoryForecastCache(ttl time.Duration) *InMemoryForecastCache {
	if ttl <= 0 {
		ttl = DefaultForecastTTL
	}
	return &InMemoryForecastCache{
		entries: make(map[string]forecastEntry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

func (c *InMemoryForecastCache) key(productID uuid.UUID, horizonMonths int) string {
	return fmt.Sprintf("%s:%d", productID.String(), horizonMonths)
}

// Get returns cached forecast points for the product and horizon
func (c *InMemoryForecastCache) Get(_ context.Context, productID uuid.UUID, horizonMonths int) ([]planning.ForecastPoint, bool) {
	key := c.key(productID, horizonMonths)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.clock().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	points := make([]planning.ForecastPoint, len(entry.points))
	copy(points, entry.points)
	return points, true
}

// Set stores forecast points for the product and horizon
func (c *InMemoryForecastCache) Set(_ context.Context, productID uuid.UUID, horizonMonths int, points []planning.ForecastPoint) {
	stored := make([]planning.ForecastPoint, len(points))
	copy(stored, points)

	c.mu.Lock()
	c.entries[c.key(productID, horizonMonths)] = forecastEntry{
		points:    stored,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops all cached forecasts for the product
func (c *InMemoryForecastCache) Invalidate(_ context.Context, productID uuid.UUID) {
	prefix := productID.String() + ":"

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Ensure InMemoryForecastCache implements ForecastCache
var _ appplanning.ForecastCache = (*InMemoryForecastCache)(nil)
