package planning

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// EventTypeLowStockSignal identifies low stock signal events
const EventTypeLowStockSignal = "planning.low_stock_signal"

// LowStockSignal is emitted when a product's stock falls to or below its
// reorder point. Delivery (email, push, dashboard) is the notification
// system's concern; this engine only makes the threshold decision.
type LowStockSignal struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	SKU          string          `json:"sku"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Levels       StockLevels     `json:"levels"`
}

// NewLowStockSignal creates a new low stock signal
func NewLowStockSignal(product *inventory.Product, levels StockLevels) *LowStockSignal {
	return &LowStockSignal{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockSignal, inventory.AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		SKU:             product.SKU,
		CurrentStock:    product.StockQuantity,
		Levels:          levels,
	}
}

// AlertDispatcher compares current stock against the reorder point and
// produces the low-stock signal when the threshold is crossed.
type AlertDispatcher struct{}

// NewAlertDispatcher creates a new alert dispatcher
func NewAlertDispatcher() *AlertDispatcher {
	return &AlertDispatcher{}
}

// CheckLowStock returns a signal when stock is at or below the reorder
// point, nil otherwise.
func (d *AlertDispatcher) CheckLowStock(product *inventory.Product, levels StockLevels) *LowStockSignal {
	threshold := decimal.NewFromInt(levels.ReorderPoint)
	if product.StockQuantity.GreaterThan(threshold) {
		return nil
	}
	return NewLowStockSignal(product, levels)
}
