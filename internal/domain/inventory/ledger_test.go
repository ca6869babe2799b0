package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockplan/backend/internal/domain/shared"
)

func createTestProduct(t *testing.T) *Product {
	t.Helper()
	product, err := NewProduct("SKU-001", "Widget")
	require.NoError(t, err)
	return product
}

func TestStockLedgerAdjust(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("Rejects zero delta", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		_, err := ledger.Adjust(product, decimal.Zero, MovementTypePurchase, AdjustmentMeta{}, now)
		assert.True(t, shared.IsDomainError(err, "INVALID_MOVEMENT"))
	})

	t.Run("Rejects unknown movement type", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementType("teleport"), AdjustmentMeta{}, now)
		assert.True(t, shared.IsDomainError(err, "INVALID_MOVEMENT"))
	})

	t.Run("Rejects unknown reference kind", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		meta := AdjustmentMeta{Reference: NewReference(ReferenceKind("INVOICE"), "INV-1")}
		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase, meta, now)
		assert.True(t, shared.IsDomainError(err, "INVALID_MOVEMENT"))
	})

	t.Run("Inbound movement increases stock and records balance", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		movement, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(5)}, now)
		require.NoError(t, err)

		assert.True(t, product.StockQuantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, movement.StockAfter.Equal(decimal.NewFromInt(10)))
		assert.True(t, movement.Quantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, movement.UnitCost.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, now, movement.OccurredAt)
	})

	t.Run("Outbound movement may not drive stock negative", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		_, err := ledger.Adjust(product, decimal.NewFromInt(5), MovementTypePurchase, AdjustmentMeta{}, now)
		require.NoError(t, err)

		_, err = ledger.Adjust(product, decimal.NewFromInt(-6), MovementTypeSale, AdjustmentMeta{}, now)
		assert.True(t, shared.IsDomainError(err, "INVALID_MOVEMENT"))
		assert.True(t, product.StockQuantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("Backorder-permitted type may drive stock negative", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{BackorderTypes: []MovementType{MovementTypeSale}})
		product := createTestProduct(t)

		movement, err := ledger.Adjust(product, decimal.NewFromInt(-3), MovementTypeSale, AdjustmentMeta{}, now)
		require.NoError(t, err)
		assert.True(t, product.StockQuantity.Equal(decimal.NewFromInt(-3)))
		assert.True(t, movement.StockAfter.Equal(decimal.NewFromInt(-3)))
	})

	t.Run("Running sum of movements equals current stock", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		deltas := []decimal.Decimal{
			decimal.NewFromInt(20),
			decimal.NewFromInt(-7),
			decimal.NewFromInt(15),
			decimal.NewFromInt(-8),
		}
		types := []MovementType{MovementTypePurchase, MovementTypeSale, MovementTypeReturn, MovementTypeBulkOrder}

		sum := decimal.Zero
		for i, delta := range deltas {
			movement, err := ledger.Adjust(product, delta, types[i], AdjustmentMeta{}, now.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
			sum = sum.Add(delta)
			assert.True(t, movement.StockAfter.Equal(sum))
		}
		assert.True(t, product.StockQuantity.Equal(sum))
	})

	t.Run("Carries warehouse reference and batch number onto the movement", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)
		warehouseID := uuid.New()

		meta := AdjustmentMeta{
			WarehouseID: &warehouseID,
			Reference:   NewReference(ReferenceKindPurchaseOrder, "PO-42"),
			BatchNumber: "LOT-7",
			UnitCost:    decimal.NewFromInt(3),
		}
		movement, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase, meta, now)
		require.NoError(t, err)

		require.NotNil(t, movement.WarehouseID)
		assert.Equal(t, warehouseID, *movement.WarehouseID)
		assert.Equal(t, ReferenceKindPurchaseOrder, movement.Reference.Kind)
		assert.Equal(t, "PO-42", movement.Reference.ID)
		assert.Equal(t, "LOT-7", movement.BatchNumber)
	})

	t.Run("Publishes a stock adjusted event on the aggregate", func(t *testing.T) {
		ledger := NewStockLedger(LedgerConfig{})
		product := createTestProduct(t)

		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase, AdjustmentMeta{}, now)
		require.NoError(t, err)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeStockAdjusted, events[0].EventType())
		assert.Equal(t, product.ID, events[0].AggregateID())
	})
}

func TestStockLedgerWeightedAverageCost(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ledger := NewStockLedger(LedgerConfig{})

	t.Run("First receipt sets the average cost", func(t *testing.T) {
		product := createTestProduct(t)
		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(8)}, now)
		require.NoError(t, err)
		assert.True(t, product.AverageCost.Equal(decimal.NewFromInt(8)))
	})

	t.Run("Subsequent receipts blend by quantity", func(t *testing.T) {
		product := createTestProduct(t)
		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(10)}, now)
		require.NoError(t, err)
		_, err = ledger.Adjust(product, decimal.NewFromInt(5), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(16)}, now)
		require.NoError(t, err)

		// (10*10 + 5*16) / 15 = 12
		assert.True(t, product.AverageCost.Equal(decimal.NewFromInt(12)))
	})

	t.Run("Outbound movements leave the average cost untouched", func(t *testing.T) {
		product := createTestProduct(t)
		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(10)}, now)
		require.NoError(t, err)
		_, err = ledger.Adjust(product, decimal.NewFromInt(-4), MovementTypeSale, AdjustmentMeta{}, now)
		require.NoError(t, err)

		assert.True(t, product.AverageCost.Equal(decimal.NewFromInt(10)))
	})

	t.Run("Inbound without a unit cost keeps the previous average", func(t *testing.T) {
		product := createTestProduct(t)
		_, err := ledger.Adjust(product, decimal.NewFromInt(10), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(10)}, now)
		require.NoError(t, err)
		_, err = ledger.Adjust(product, decimal.NewFromInt(5), MovementTypeReturn, AdjustmentMeta{}, now)
		require.NoError(t, err)

		assert.True(t, product.AverageCost.Equal(decimal.NewFromInt(10)))
	})

	t.Run("Average rounds to four decimal places", func(t *testing.T) {
		product := createTestProduct(t)
		_, err := ledger.Adjust(product, decimal.NewFromInt(3), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(10)}, now)
		require.NoError(t, err)
		_, err = ledger.Adjust(product, decimal.NewFromInt(4), MovementTypePurchase,
			AdjustmentMeta{UnitCost: decimal.NewFromInt(11)}, now)
		require.NoError(t, err)

		// (3*10 + 4*11) / 7 = 10.5714...
		expected := decimal.NewFromInt(74).Div(decimal.NewFromInt(7)).Round(4)
		assert.True(t, product.AverageCost.Equal(expected))
	})
}
