package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockplan/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking; returns
	// shared.ErrConcurrencyConflict when the stored version moved on
	SaveWithLock(ctx context.Context, product *Product) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// BatchRepository defines the interface for inventory batch persistence
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryBatch, error)

	// FindAvailableByProduct finds batches with available quantity for a
	// product, optionally scoped to a warehouse, ordered by received time
	FindAvailableByProduct(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*InventoryBatch, error)

	// FindByProduct finds all batches for a product including exhausted ones
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]*InventoryBatch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *InventoryBatch) error

	// SaveWithLock saves with optimistic locking on the batch version
	SaveWithLock(ctx context.Context, batch *InventoryBatch) error
}

// MovementRepository defines the interface for the append-only movement log
type MovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindByProduct finds movements for a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByProductAndTypeSince finds movements of a type for a product
	// occurring at or after the given time, ordered by occurrence
	FindByProductAndTypeSince(ctx context.Context, productID uuid.UUID, movementType MovementType, since time.Time) ([]StockMovement, error)

	// FindByReference finds movements by their tagged reference
	FindByReference(ctx context.Context, ref Reference) ([]StockMovement, error)

	// Create appends a movement (no update or delete: the log is immutable)
	Create(ctx context.Context, movement *StockMovement) error

	// CountByProduct counts movements for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
