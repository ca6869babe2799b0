package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// InventoryBatch represents a discrete quantity of a product received at a
// point in time (a lot). Available quantity only ever decreases, through
// allocation; an exhausted batch is terminal but kept for audit.
type InventoryBatch struct {
	shared.BaseEntity
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_product_received,priority:1"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAvailable decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BatchNumber       string          `gorm:"type:varchar(100)"`
	ReceivedAt        time.Time       `gorm:"not null;index:idx_batch_product_received,priority:2"`
	Version           int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// NewInventoryBatch creates a new batch for received stock
func NewInventoryBatch(
	productID, warehouseID uuid.UUID,
	quantity, unitCost decimal.Decimal,
	receivedAt time.Time,
) (*InventoryBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &InventoryBatch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		QuantityReceived:  quantity,
		QuantityAvailable: quantity,
		UnitCost:          unitCost,
		ReceivedAt:        receivedAt,
		Version:           1,
	}, nil
}

// WithBatchNumber sets the batch/lot number
func (b *InventoryBatch) WithBatchNumber(batchNumber string) *InventoryBatch {
	b.BatchNumber = batchNumber
	return b
}

// Deduct reduces the available quantity. The available quantity is
// monotonically non-increasing and never goes negative.
func (b *InventoryBatch) Deduct(quantity decimal.Decimal, now time.Time) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be positive")
	}
	if quantity.GreaterThan(b.QuantityAvailable) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Deduction exceeds batch available quantity")
	}

	b.QuantityAvailable = b.QuantityAvailable.Sub(quantity)
	b.UpdatedAt = now
	b.Version++
	return nil
}

// IsExhausted returns true once the batch has no available quantity left
func (b *InventoryBatch) IsExhausted() bool {
	return b.QuantityAvailable.LessThanOrEqual(decimal.Zero)
}

// HasStock returns true if the batch still has available quantity
func (b *InventoryBatch) HasStock() bool {
	return b.QuantityAvailable.GreaterThan(decimal.Zero)
}

// ConsumedQuantity returns how much of the batch has been allocated so far
func (b *InventoryBatch) ConsumedQuantity() decimal.Decimal {
	return b.QuantityReceived.Sub(b.QuantityAvailable)
}

// RemainingValue returns the value of the still-available quantity
func (b *InventoryBatch) RemainingValue() decimal.Decimal {
	return b.QuantityAvailable.Mul(b.UnitCost)
}
