package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementType(t *testing.T) {
	t.Run("IsValid accepts all declared types", func(t *testing.T) {
		for _, mt := range AllMovementTypes() {
			assert.True(t, mt.IsValid(), mt.String())
		}
	})

	t.Run("IsValid rejects unknown type", func(t *testing.T) {
		assert.False(t, MovementType("teleport").IsValid())
	})

	t.Run("Only sales count as demand", func(t *testing.T) {
		assert.True(t, MovementTypeSale.IsDemand())
		assert.False(t, MovementTypeBulkOrder.IsDemand())
		assert.False(t, MovementTypeReturn.IsDemand())
		assert.False(t, MovementTypeAdjustment.IsDemand())
	})
}

func TestReferenceKind(t *testing.T) {
	t.Run("IsValid accepts declared kinds", func(t *testing.T) {
		for _, kind := range []ReferenceKind{
			ReferenceKindOrder,
			ReferenceKindBulkOrder,
			ReferenceKindReturn,
			ReferenceKindPurchaseOrder,
			ReferenceKindStockTake,
		} {
			assert.True(t, kind.IsValid(), kind.String())
		}
	})

	t.Run("IsValid rejects unknown kind", func(t *testing.T) {
		assert.False(t, ReferenceKind("INVOICE").IsValid())
	})

	t.Run("Zero reference", func(t *testing.T) {
		assert.True(t, Reference{}.IsZero())
		assert.False(t, NewReference(ReferenceKindOrder, "SO-1").IsZero())
	})
}

func TestNewStockMovement(t *testing.T) {
	productID := uuid.New()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("Creates a movement record", func(t *testing.T) {
		movement, err := NewStockMovement(productID, MovementTypeSale, decimal.NewFromInt(-3), decimal.NewFromInt(7), now)
		require.NoError(t, err)
		assert.Equal(t, productID, movement.ProductID)
		assert.True(t, movement.IsOutbound())
		assert.False(t, movement.IsInbound())
		assert.True(t, movement.Magnitude().Equal(decimal.NewFromInt(3)))
		assert.True(t, movement.StockAfter.Equal(decimal.NewFromInt(7)))
	})

	t.Run("Rejects nil product", func(t *testing.T) {
		_, err := NewStockMovement(uuid.Nil, MovementTypeSale, decimal.NewFromInt(-3), decimal.Zero, now)
		assert.Error(t, err)
	})

	t.Run("Rejects invalid type", func(t *testing.T) {
		_, err := NewStockMovement(productID, MovementType("teleport"), decimal.NewFromInt(-3), decimal.Zero, now)
		assert.Error(t, err)
	})

	t.Run("Rejects zero quantity", func(t *testing.T) {
		_, err := NewStockMovement(productID, MovementTypeSale, decimal.Zero, decimal.Zero, now)
		assert.Error(t, err)
	})
}
