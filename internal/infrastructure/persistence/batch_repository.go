package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryBatch, error) {
	var batch inventory.InventoryBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindAvailableByProduct finds batches with remaining quantity for a product,
// ordered oldest received first. Ties on the receive timestamp are broken by
// ID so concurrent planners walk batches in the same order.
func (r *GormBatchRepository) FindAvailableByProduct(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*inventory.InventoryBatch, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity_available > 0", productID)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var batches []*inventory.InventoryBatch
	if err := query.Order("received_at ASC, id ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByProduct finds all batches for a product, including exhausted ones
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]*inventory.InventoryBatch, error) {
	query := r.db.WithContext(ctx).
		Model(&inventory.InventoryBatch{}).
		Where("product_id = ?", productID)
	query = r.applyFilter(query, filter)

	var batches []*inventory.InventoryBatch
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.InventoryBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.InventoryBatch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"quantity_available": batch.QuantityAvailable,
			"version":            batch.Version,
			"updated_at":         batch.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "batch_number":
			query = query.Where("batch_number = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("quantity_available > 0")
			}
		case "exhausted":
			if value == true {
				query = query.Where("quantity_available <= 0")
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "received_at")
	dir := "ASC"
	if filter.OrderDir != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	return query.Order(orderBy + " " + dir)
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
