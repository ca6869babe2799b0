package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// AdjustmentMeta carries the optional context of a stock adjustment
type AdjustmentMeta struct {
	WarehouseID *uuid.UUID
	Reference   Reference
	BatchNumber string
	UnitCost    decimal.Decimal // Per-unit cost; only meaningful for inbound movements
}

// LedgerConfig controls ledger behavior
type LedgerConfig struct {
	// BackorderTypes lists the movement types allowed to drive stock
	// negative. Empty by default: no backorders.
	BackorderTypes []MovementType
}

// StockLedger is the only mutator of a product's stock quantity and
// weighted-average cost. Each adjustment appends an immutable movement
// whose running sum equals the product's current stock; time is passed in
// explicitly so behavior is reproducible under test.
type StockLedger struct {
	allowBackorder map[MovementType]bool
}

// NewStockLedger creates a stock ledger with the given configuration
func NewStockLedger(cfg LedgerConfig) *StockLedger {
	allow := make(map[MovementType]bool, len(cfg.BackorderTypes))
	for _, t := range cfg.BackorderTypes {
		allow[t] = true
	}
	return &StockLedger{allowBackorder: allow}
}

// AllowsBackorder returns true if the movement type may drive stock negative
func (l *StockLedger) AllowsBackorder(t MovementType) bool {
	return l.allowBackorder[t]
}

// Adjust applies a signed quantity delta to the product and returns the
// movement record to append. The product mutation and the returned
// movement must be persisted in the same transaction; the caller owns
// that boundary.
func (l *StockLedger) Adjust(
	product *Product,
	delta decimal.Decimal,
	movementType MovementType,
	meta AdjustmentMeta,
	now time.Time,
) (*StockMovement, error) {
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Quantity delta cannot be zero")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type: "+string(movementType))
	}
	if !meta.Reference.IsZero() && !meta.Reference.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown reference kind: "+string(meta.Reference.Kind))
	}

	if err := product.ApplyDelta(delta, meta.UnitCost, l.AllowsBackorder(movementType), now); err != nil {
		return nil, err
	}

	movement, err := NewStockMovement(product.ID, movementType, delta, product.StockQuantity, now)
	if err != nil {
		return nil, err
	}
	if meta.WarehouseID != nil {
		movement.WithWarehouse(*meta.WarehouseID)
	}
	if !meta.Reference.IsZero() {
		movement.WithReference(meta.Reference)
	}
	if meta.BatchNumber != "" {
		movement.WithBatchNumber(meta.BatchNumber)
	}
	if delta.GreaterThan(decimal.Zero) && meta.UnitCost.GreaterThan(decimal.Zero) {
		movement.WithUnitCost(meta.UnitCost)
	}

	product.AddDomainEvent(NewStockAdjustedEvent(product, movement))

	return movement, nil
}
