package planning

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/planning"
	"github.com/stockplan/backend/internal/domain/shared"
)

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]inventory.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]inventory.Product)}
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.SKU == sku {
			copied := product
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubProductRepo) FindAll(_ context.Context, filter shared.Filter) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Page > 1 {
		return nil, nil
	}
	all := make([]inventory.Product, 0, len(r.products))
	for _, product := range r.products {
		all = append(all, product)
	}
	return all, nil
}

func (r *stubProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *stubProductRepo) SaveWithLock(_ context.Context, product *inventory.Product) error {
	return r.Save(context.Background(), product)
}

func (r *stubProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

type stubMovementRepo struct {
	movements []inventory.StockMovement
}

func (r *stubMovementRepo) FindByID(_ context.Context, _ uuid.UUID) (*inventory.StockMovement, error) {
	return nil, shared.ErrNotFound
}

func (r *stubMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *stubMovementRepo) FindByProductAndTypeSince(_ context.Context, productID uuid.UUID, movementType inventory.MovementType, since time.Time) ([]inventory.StockMovement, error) {
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID && m.MovementType == movementType && !m.OccurredAt.Before(since) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *stubMovementRepo) FindByReference(_ context.Context, _ inventory.Reference) ([]inventory.StockMovement, error) {
	return nil, nil
}

func (r *stubMovementRepo) Create(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *stubMovementRepo) CountByProduct(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(r.movements)), nil
}

type memoryForecastCache struct {
	mu     sync.Mutex
	points map[string][]planning.ForecastPoint
	hits   int
}

func newMemoryForecastCache() *memoryForecastCache {
	return &memoryForecastCache{points: make(map[string][]planning.ForecastPoint)}
}

func cacheKey(productID uuid.UUID, horizon int) string {
	return productID.String() + ":" + strconv.Itoa(horizon)
}

func (c *memoryForecastCache) Get(_ context.Context, productID uuid.UUID, horizon int) ([]planning.ForecastPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	points, ok := c.points[cacheKey(productID, horizon)]
	if ok {
		c.hits++
	}
	return points, ok
}

func (c *memoryForecastCache) Set(_ context.Context, productID uuid.UUID, horizon int, points []planning.ForecastPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[cacheKey(productID, horizon)] = points
}

func (c *memoryForecastCache) Invalidate(_ context.Context, productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.points {
		if len(key) >= 36 && key[:36] == productID.String() {
			delete(c.points, key)
		}
	}
}

type recordedEvents struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (r *recordedEvents) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func seedSales(t *testing.T, repo *stubMovementRepo, productID uuid.UUID, perDay float64, days int, now time.Time) {
	t.Helper()
	for i := 0; i < days; i++ {
		m, err := inventory.NewStockMovement(productID, inventory.MovementTypeSale,
			decimal.NewFromFloat(-perDay), decimal.Zero, now.AddDate(0, 0, -i))
		require.NoError(t, err)
		repo.movements = append(repo.movements, *m)
	}
}

func TestPlanningServiceForecast(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Unknown product", func(t *testing.T) {
		service := NewPlanningService(newStubProductRepo(), &stubMovementRepo{}, zap.NewNop())
		_, err := service.Forecast(ctx, uuid.New(), 3, now)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Rejects non-positive horizon", func(t *testing.T) {
		service := NewPlanningService(newStubProductRepo(), &stubMovementRepo{}, zap.NewNop())
		_, err := service.Forecast(ctx, uuid.New(), 0, now)
		assert.Error(t, err)
	})

	t.Run("Forecasts from sale history", func(t *testing.T) {
		products := newStubProductRepo()
		movements := &stubMovementRepo{}
		product, err := inventory.NewProduct("SKU-001", "Widget")
		require.NoError(t, err)
		require.NoError(t, products.Save(ctx, product))

		// 30 units in each of the last three months
		for i := 0; i < 3; i++ {
			m, err := inventory.NewStockMovement(product.ID, inventory.MovementTypeSale,
				decimal.NewFromInt(-30), decimal.Zero, now.AddDate(0, -i, 0))
			require.NoError(t, err)
			movements.movements = append(movements.movements, *m)
		}

		service := NewPlanningService(products, movements, zap.NewNop())
		points, err := service.Forecast(ctx, product.ID, 2, now)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, int64(30), points[0].PredictedDemand)
	})

	t.Run("Second call is served from the cache", func(t *testing.T) {
		products := newStubProductRepo()
		movements := &stubMovementRepo{}
		product, err := inventory.NewProduct("SKU-001", "Widget")
		require.NoError(t, err)
		require.NoError(t, products.Save(ctx, product))

		cache := newMemoryForecastCache()
		service := NewPlanningService(products, movements, zap.NewNop())
		service.SetForecastCache(cache)

		first, err := service.Forecast(ctx, product.ID, 3, now)
		require.NoError(t, err)
		second, err := service.Forecast(ctx, product.ID, 3, now)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.hits)
	})
}

func TestPlanningServiceOptimize(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Computes levels from trailing sales", func(t *testing.T) {
		products := newStubProductRepo()
		movements := &stubMovementRepo{}
		product, err := inventory.NewProduct("SKU-001", "Widget")
		require.NoError(t, err)
		product.LeadTimeDays = 14
		product.OrderingCost = decimal.NewFromInt(50)
		product.AverageCost = decimal.NewFromInt(10)
		product.HoldingCostRate = decimal.NewFromFloat(0.2)
		require.NoError(t, products.Save(ctx, product))

		seedSales(t, movements, product.ID, 10, planning.DemandWindowDays, now)

		service := NewPlanningService(products, movements, zap.NewNop())
		levels, err := service.Optimize(ctx, product.ID, now)
		require.NoError(t, err)

		assert.Equal(t, int64(140), levels.ReorderPoint)
		assert.Zero(t, levels.SafetyStock)
		assert.Equal(t, int64(280), levels.MaxStockLevel)
		assert.False(t, levels.EOQUndeterminable)
	})

	t.Run("Unknown product", func(t *testing.T) {
		service := NewPlanningService(newStubProductRepo(), &stubMovementRepo{}, zap.NewNop())
		_, err := service.Optimize(ctx, uuid.New(), now)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPlanningServiceCheckLowStock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, stock int64) (*PlanningService, *recordedEvents, uuid.UUID) {
		t.Helper()
		products := newStubProductRepo()
		movements := &stubMovementRepo{}
		product, err := inventory.NewProduct("SKU-001", "Widget")
		require.NoError(t, err)
		product.StockQuantity = decimal.NewFromInt(stock)
		require.NoError(t, products.Save(ctx, product))

		// Steady 10/day demand: reorder point is 140
		seedSales(t, movements, product.ID, 10, planning.DemandWindowDays, now)

		events := &recordedEvents{}
		service := NewPlanningService(products, movements, zap.NewNop())
		service.SetEventPublisher(events)
		return service, events, product.ID
	}

	t.Run("Publishes a signal when stock is at the reorder point", func(t *testing.T) {
		service, events, productID := setup(t, 140)
		result, err := service.CheckLowStock(ctx, productID, now)
		require.NoError(t, err)
		assert.True(t, result.Signaled)
		assert.Equal(t, int64(140), result.Levels.ReorderPoint)

		require.Len(t, events.events, 1)
		assert.Equal(t, planning.EventTypeLowStockSignal, events.events[0].EventType())
	})

	t.Run("Stays quiet above the reorder point", func(t *testing.T) {
		service, events, productID := setup(t, 141)
		result, err := service.CheckLowStock(ctx, productID, now)
		require.NoError(t, err)
		assert.False(t, result.Signaled)
		assert.Empty(t, events.events)
	})
}

func TestPlanningServiceSweepLowStock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	products := newStubProductRepo()
	movements := &stubMovementRepo{}

	low, err := inventory.NewProduct("SKU-LOW", "Low widget")
	require.NoError(t, err)
	low.StockQuantity = decimal.NewFromInt(5)
	require.NoError(t, products.Save(ctx, low))

	high, err := inventory.NewProduct("SKU-HIGH", "High widget")
	require.NoError(t, err)
	high.StockQuantity = decimal.NewFromInt(10000)
	require.NoError(t, products.Save(ctx, high))

	seedSales(t, movements, low.ID, 10, planning.DemandWindowDays, now)
	seedSales(t, movements, high.ID, 10, planning.DemandWindowDays, now)

	events := &recordedEvents{}
	service := NewPlanningService(products, movements, zap.NewNop())
	service.SetEventPublisher(events)

	signaled, err := service.SweepLowStock(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, signaled)
	require.Len(t, events.events, 1)
}
