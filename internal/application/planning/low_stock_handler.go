package planning

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/stockplan/backend/internal/domain/planning"
	"github.com/stockplan/backend/internal/domain/shared"
)

// LowStockHandler reacts to low-stock signals and forwards them to a
// notifier. Delivery channels are the notifier's concern.
type LowStockHandler struct {
	logger   *zap.Logger
	notifier ReplenishmentNotifier
}

// ReplenishmentNotifier is the interface for delivering replenishment
// alerts. Implementations can support different channels (in-app, email,
// purchasing system).
type ReplenishmentNotifier interface {
	// NotifyLowStock delivers a replenishment alert
	NotifyLowStock(ctx context.Context, alert ReplenishmentAlert) error
}

// ReplenishmentAlert is the notifier-facing view of a low-stock signal
type ReplenishmentAlert struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	CurrentStock   string `json:"current_stock"`
	ReorderPoint   string `json:"reorder_point"`
	SafetyStock    string `json:"safety_stock"`
	SuggestedOrder string `json:"suggested_order"` // EOQ when determinable
	OutOfStock     bool   `json:"out_of_stock"`
}

// NewLowStockHandler creates a new handler for low-stock signals
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithNotifier sets the notifier for delivering alerts
func (h *LowStockHandler) WithNotifier(notifier ReplenishmentNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{planning.EventTypeLowStockSignal}
}

// Handle processes a low-stock signal
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	signal, ok := event.(*planning.LowStockSignal)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", planning.EventTypeLowStockSignal),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			planning.EventTypeLowStockSignal, event.EventType())
	}

	h.logger.Warn("stock at or below reorder point",
		zap.String("product_id", signal.ProductID.String()),
		zap.String("sku", signal.SKU),
		zap.String("current_stock", signal.CurrentStock.String()),
		zap.Int64("reorder_point", signal.Levels.ReorderPoint),
		zap.Int64("safety_stock", signal.Levels.SafetyStock),
		zap.Int64("eoq", signal.Levels.EconomicOrderQuantity),
		zap.Bool("eoq_undeterminable", signal.Levels.EOQUndeterminable),
	)

	if h.notifier == nil {
		return nil
	}

	alert := ReplenishmentAlert{
		ProductID:    signal.ProductID.String(),
		SKU:          signal.SKU,
		CurrentStock: signal.CurrentStock.String(),
		ReorderPoint: strconv.FormatInt(signal.Levels.ReorderPoint, 10),
		SafetyStock:  strconv.FormatInt(signal.Levels.SafetyStock, 10),
		OutOfStock:   !signal.CurrentStock.IsPositive(),
	}
	if !signal.Levels.EOQUndeterminable {
		alert.SuggestedOrder = strconv.FormatInt(signal.Levels.EconomicOrderQuantity, 10)
	}

	if err := h.notifier.NotifyLowStock(ctx, alert); err != nil {
		h.logger.Error("failed to deliver replenishment alert",
			zap.String("sku", signal.SKU),
			zap.Error(err),
		)
		// Notification failure shouldn't fail the event handling
	}
	return nil
}

// Ensure LowStockHandler implements shared.EventHandler
var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingReplenishmentNotifier logs alerts instead of delivering them.
// Useful for development and testing.
type LoggingReplenishmentNotifier struct {
	logger *zap.Logger
}

// NewLoggingReplenishmentNotifier creates a new logging notifier
func NewLoggingReplenishmentNotifier(logger *zap.Logger) *LoggingReplenishmentNotifier {
	return &LoggingReplenishmentNotifier{logger: logger}
}

// NotifyLowStock logs the replenishment alert
func (n *LoggingReplenishmentNotifier) NotifyLowStock(_ context.Context, alert ReplenishmentAlert) error {
	n.logger.Warn("REPLENISHMENT ALERT",
		zap.String("sku", alert.SKU),
		zap.String("current_stock", alert.CurrentStock),
		zap.String("reorder_point", alert.ReorderPoint),
		zap.String("suggested_order", alert.SuggestedOrder),
		zap.Bool("out_of_stock", alert.OutOfStock),
	)
	return nil
}

// Ensure LoggingReplenishmentNotifier implements ReplenishmentNotifier
var _ ReplenishmentNotifier = (*LoggingReplenishmentNotifier)(nil)
