package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockplan/backend/internal/domain/planning"
)

func testPoints(months int) []planning.ForecastPoint {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	points := make([]planning.ForecastPoint, 0, months)
	for i := 0; i < months; i++ {
		points = append(points, planning.ForecastPoint{
			Month:           base.AddDate(0, i, 0),
			PredictedDemand: int64(100 + i),
			Confidence:      80,
		})
	}
	return points
}

func TestInMemoryForecastCache(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves per product and horizon", func(t *testing.T) {
		c := NewInMemoryForecastCache(time.Minute)
		productID := uuid.New()

		c.Set(ctx, productID, 3, testPoints(3))

		points, ok := c.Get(ctx, productID, 3)
		require.True(t, ok)
		require.Len(t, points, 3)
		assert.Equal(t, int64(100), points[0].PredictedDemand)

		_, ok = c.Get(ctx, productID, 6)
		assert.False(t, ok)
		_, ok = c.Get(ctx, uuid.New(), 3)
		assert.False(t, ok)
	})

	t.Run("expires entries after the TTL", func(t *testing.T) {
		c := NewInMemoryForecastCache(time.Minute)
		productID := uuid.New()

		now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		c.clock = func() time.Time { return now }
		c.Set(ctx, productID, 3, testPoints(3))

		_, ok := c.Get(ctx, productID, 3)
		assert.True(t, ok)

		now = now.Add(2 * time.Minute)
		_, ok = c.Get(ctx, productID, 3)
		assert.False(t, ok)
	})

	t.Run("invalidate drops all horizons for the product", func(t *testing.T) {
		c := NewInMemoryForecastCache(time.Minute)
		productID := uuid.New()
		otherID := uuid.New()

		c.Set(ctx, productID, 3, testPoints(3))
		c.Set(ctx, productID, 6, testPoints(6))
		c.Set(ctx, otherID, 3, testPoints(3))

		c.Invalidate(ctx, productID)

		_, ok := c.Get(ctx, productID, 3)
		assert.False(t, ok)
		_, ok = c.Get(ctx, productID, 6)
		assert.False(t, ok)
		_, ok = c.Get(ctx, otherID, 3)
		assert.True(t, ok)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewInMemoryForecastCache(time.Minute)
		productID := uuid.New()

		c.Set(ctx, productID, 3, testPoints(3))

		points, ok := c.Get(ctx, productID, 3)
		require.True(t, ok)
		points[0].PredictedDemand = -1

		again, ok := c.Get(ctx, productID, 3)
		require.True(t, ok)
		assert.Equal(t, int64(100), again[0].PredictedDemand)
	})
}
