package planning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/planning"
	"github.com/stockplan/backend/internal/domain/shared"
)

// ForecastCache caches computed forecast points per product and horizon.
// A miss is reported with ok=false, never as an error; cache failures are
// treated as misses so planning keeps working without the cache.
type ForecastCache interface {
	// Get returns cached forecast points for the product and horizon
	Get(ctx context.Context, productID uuid.UUID, horizonMonths int) ([]planning.ForecastPoint, bool)
	// Set stores forecast points for the product and horizon
	Set(ctx context.Context, productID uuid.UUID, horizonMonths int, points []planning.ForecastPoint)
	// Invalidate drops all cached forecasts for the product
	Invalidate(ctx context.Context, productID uuid.UUID)
}

// PlanningService exposes demand forecasting, reorder optimization and
// low-stock checking over the movement history. All computations are
// stateless reads; only the low-stock check has a side effect (the
// published signal).
type PlanningService struct {
	productRepo    inventory.ProductRepository
	movementRepo   inventory.MovementRepository
	forecaster     *planning.DemandForecaster
	planner        *planning.ReorderPlanner
	dispatcher     *planning.AlertDispatcher
	cache          ForecastCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPlanningService creates a new PlanningService
func NewPlanningService(
	productRepo inventory.ProductRepository,
	movementRepo inventory.MovementRepository,
	logger *zap.Logger,
) *PlanningService {
	return &PlanningService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		forecaster:   planning.NewDemandForecaster(),
		planner:      planning.NewReorderPlanner(),
		dispatcher:   planning.NewAlertDispatcher(),
		logger:       logger,
	}
}

// SetForecastCache sets the forecast cache (optional)
func (s *PlanningService) SetForecastCache(cache ForecastCache) {
	s.cache = cache
}

// SetEventPublisher sets the event publisher for low-stock signals
func (s *PlanningService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// saleHistory loads the product's sale movements occurring at or after since
func (s *PlanningService) saleHistory(ctx context.Context, productID uuid.UUID, since time.Time) ([]inventory.StockMovement, error) {
	return s.movementRepo.FindByProductAndTypeSince(ctx, productID, inventory.MovementTypeSale, since)
}

// Forecast predicts monthly demand for the product over the horizon.
// Results are served from the cache when available.
func (s *PlanningService) Forecast(ctx context.Context, productID uuid.UUID, horizonMonths int, now time.Time) ([]planning.ForecastPoint, error) {
	if horizonMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_HORIZON", "Forecast horizon must be positive")
	}

	if s.cache != nil {
		if points, ok := s.cache.Get(ctx, productID, horizonMonths); ok {
			return points, nil
		}
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	movements, err := s.saleHistory(ctx, productID, now.AddDate(0, -planning.HistoryMonths, 0))
	if err != nil {
		return nil, err
	}

	points, err := s.forecaster.Forecast(movements, horizonMonths, now)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, productID, horizonMonths, points)
	}
	return points, nil
}

// InvalidateForecasts drops all cached forecasts for the product. Called
// when the movement history changes, so stale predictions don't outlive
// their history.
func (s *PlanningService) InvalidateForecasts(ctx context.Context, productID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
}

// Optimize computes the product's stock levels from its trailing demand
func (s *PlanningService) Optimize(ctx context.Context, productID uuid.UUID, now time.Time) (planning.StockLevels, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return planning.StockLevels{}, err
	}

	movements, err := s.saleHistory(ctx, productID, now.AddDate(0, 0, -planning.DemandWindowDays))
	if err != nil {
		return planning.StockLevels{}, err
	}

	levels := s.planner.Optimize(product, movements, now)
	if levels.EOQUndeterminable {
		s.logger.Debug("EOQ undeterminable, cost data missing",
			zap.String("product_id", productID.String()),
			zap.String("sku", product.SKU),
		)
	}
	return levels, nil
}

// LowStockCheckResult reports the outcome of a low-stock check
type LowStockCheckResult struct {
	ProductID uuid.UUID            `json:"product_id"`
	SKU       string               `json:"sku"`
	Levels    planning.StockLevels `json:"levels"`
	Signaled  bool                 `json:"signaled"`
}

// CheckLowStock computes stock levels for the product and publishes a
// low-stock signal when the on-hand quantity is at or below the reorder
// point.
func (s *PlanningService) CheckLowStock(ctx context.Context, productID uuid.UUID, now time.Time) (*LowStockCheckResult, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	movements, err := s.saleHistory(ctx, productID, now.AddDate(0, 0, -planning.DemandWindowDays))
	if err != nil {
		return nil, err
	}

	levels := s.planner.Optimize(product, movements, now)
	result := &LowStockCheckResult{
		ProductID: product.ID,
		SKU:       product.SKU,
		Levels:    levels,
	}

	signal := s.dispatcher.CheckLowStock(product, levels)
	if signal == nil {
		return result, nil
	}
	result.Signaled = true

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, signal); err != nil {
			s.logger.Error("failed to publish low stock signal",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// SweepLowStock runs a low-stock check over every product. A failing
// product is logged and skipped; the sweep always covers the rest.
// Returns the number of products that signaled.
func (s *PlanningService) SweepLowStock(ctx context.Context, now time.Time) (int, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 200

	signaled := 0
	for {
		products, err := s.productRepo.FindAll(ctx, filter)
		if err != nil {
			return signaled, err
		}
		if len(products) == 0 {
			return signaled, nil
		}

		for i := range products {
			result, err := s.CheckLowStock(ctx, products[i].ID, now)
			if err != nil {
				s.logger.Warn("low stock check failed during sweep",
					zap.String("product_id", products[i].ID.String()),
					zap.String("sku", products[i].SKU),
					zap.Error(err),
				)
				continue
			}
			if result.Signaled {
				signaled++
			}
		}

		if len(products) < filter.PageSize {
			return signaled, nil
		}
		filter.Page++
	}
}
