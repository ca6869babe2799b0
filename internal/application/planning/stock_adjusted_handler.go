package planning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// StockAdjustedHandler reacts to stock adjustments: it drops the
// product's cached forecasts and runs a low-stock check, so every
// adjustment that crosses the reorder point raises a signal without
// waiting for the next sweep.
type StockAdjustedHandler struct {
	service *PlanningService
	logger  *zap.Logger
}

// NewStockAdjustedHandler creates a new handler for stock adjustments
func NewStockAdjustedHandler(service *PlanningService, logger *zap.Logger) *StockAdjustedHandler {
	return &StockAdjustedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StockAdjustedHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockAdjusted}
}

// Handle processes a stock adjusted event
func (h *StockAdjustedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	adjusted, ok := event.(*inventory.StockAdjustedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockAdjusted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockAdjusted, event.EventType())
	}

	h.service.InvalidateForecasts(ctx, adjusted.ProductID)

	if _, err := h.service.CheckLowStock(ctx, adjusted.ProductID, event.OccurredAt()); err != nil {
		h.logger.Error("low stock check after adjustment failed",
			zap.String("product_id", adjusted.ProductID.String()),
			zap.String("movement_id", adjusted.MovementID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Ensure StockAdjustedHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockAdjustedHandler)(nil)
