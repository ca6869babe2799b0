package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// Event types for the inventory domain
const (
	EventTypeStockAdjusted      = "inventory.stock_adjusted"
	EventTypeBatchReceived      = "inventory.batch_received"
	EventTypeAllocationApplied  = "inventory.allocation_applied"
	AggregateTypeProduct        = "Product"
	AggregateTypeInventoryBatch = "InventoryBatch"
)

// StockAdjustedEvent is emitted whenever the ledger records a movement
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	MovementType MovementType    `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	StockAfter   decimal.Decimal `json:"stock_after"`
}

// NewStockAdjustedEvent creates a new stock adjusted event
func NewStockAdjustedEvent(product *Product, movement *StockMovement) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		MovementID:      movement.ID,
		MovementType:    movement.MovementType,
		Quantity:        movement.Quantity,
		StockAfter:      movement.StockAfter,
	}
}

// BatchReceivedEvent is emitted when a new batch of stock is received
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewBatchReceivedEvent creates a new batch received event
func NewBatchReceivedEvent(batch *InventoryBatch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, AggregateTypeInventoryBatch, batch.ID),
		ProductID:       batch.ProductID,
		BatchID:         batch.ID,
		WarehouseID:     batch.WarehouseID,
		Quantity:        batch.QuantityReceived,
		UnitCost:        batch.UnitCost,
	}
}

// AllocationAppliedEvent is emitted when an allocation plan becomes permanent
type AllocationAppliedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID         `json:"product_id"`
	Requested decimal.Decimal   `json:"requested"`
	Entries   []AllocationEntry `json:"entries"`
}

// NewAllocationAppliedEvent creates a new allocation applied event
func NewAllocationAppliedEvent(plan *AllocationPlan) *AllocationAppliedEvent {
	return &AllocationAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationApplied, AggregateTypeProduct, plan.ProductID),
		ProductID:       plan.ProductID,
		Requested:       plan.Requested,
		Entries:         plan.Entries,
	}
}
