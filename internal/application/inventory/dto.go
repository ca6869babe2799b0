package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/inventory"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	StockQuantity     decimal.Decimal `json:"stock_quantity"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	StockValue        decimal.Decimal `json:"stock_value"`
	OptimalStockLevel decimal.Decimal `json:"optimal_stock_level"`
	LeadTimeDays      int             `json:"lead_time_days"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToProductResponse converts a product to its response representation
func ToProductResponse(product *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:                product.ID,
		SKU:               product.SKU,
		Name:              product.Name,
		StockQuantity:     product.StockQuantity,
		AverageCost:       product.AverageCost,
		StockValue:        product.StockValue(),
		OptimalStockLevel: product.OptimalStockLevel,
		LeadTimeDays:      product.EffectiveLeadTimeDays(),
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
		Version:           product.Version,
	}
}

// CreateProductRequest represents a request to register a product
type CreateProductRequest struct {
	SKU             string          `json:"sku" binding:"required,max=64"`
	Name            string          `json:"name" binding:"required,max=255"`
	OrderingCost    decimal.Decimal `json:"ordering_cost"`
	HoldingCostRate decimal.Decimal `json:"holding_cost_rate"`
	LeadTimeDays    int             `json:"lead_time_days" binding:"omitempty,min=0,max=365"`
}

// AdjustStockRequest represents a request to record a stock movement
type AdjustStockRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"` // Signed delta
	MovementType  string          `json:"movement_type" binding:"required"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   string          `json:"reference_id"`
	BatchNumber   string          `json:"batch_number"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	StockAfter    decimal.Decimal `json:"stock_after"`
	ReferenceKind string          `json:"reference_kind,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	BatchNumber   string          `json:"batch_number,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ToMovementResponse converts a movement to its response representation
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		MovementType:  m.MovementType.String(),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		StockAfter:    m.StockAfter,
		ReferenceKind: m.Reference.Kind.String(),
		ReferenceID:   m.Reference.ID,
		BatchNumber:   m.BatchNumber,
		OccurredAt:    m.OccurredAt,
	}
}

// MovementListFilter represents filter options for the movement log
type MovementListFilter struct {
	MovementType string `form:"movement_type"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ReceiveBatchRequest represents a request to receive a batch of stock
type ReceiveBatchRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"required"`
	BatchNumber string          `json:"batch_number"`
	ReferenceID string          `json:"reference_id"`
}

// BatchResponse represents an inventory batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	ReceivedAt        time.Time       `json:"received_at"`
}

// ToBatchResponse converts a batch to its response representation
func ToBatchResponse(batch *inventory.InventoryBatch) BatchResponse {
	return BatchResponse{
		ID:                batch.ID,
		ProductID:         batch.ProductID,
		WarehouseID:       batch.WarehouseID,
		QuantityReceived:  batch.QuantityReceived,
		QuantityAvailable: batch.QuantityAvailable,
		UnitCost:          batch.UnitCost,
		BatchNumber:       batch.BatchNumber,
		ReceivedAt:        batch.ReceivedAt,
	}
}

// AllocateRequest represents a request to allocate stock for one order line
type AllocateRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id"`
	MovementType  string          `json:"movement_type"` // Defaults to sale
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   string          `json:"reference_id"`
}

// AllocationResponse represents the applied allocation plan
type AllocationResponse struct {
	ProductID   uuid.UUID         `json:"product_id"`
	Requested   decimal.Decimal   `json:"requested"`
	Entries     []AllocationEntry `json:"entries"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	AverageCost decimal.Decimal   `json:"average_cost"`
	StockAfter  decimal.Decimal   `json:"stock_after"`
}

// AllocationEntry represents one batch consumption in a response
type AllocationEntry struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number,omitempty"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// ToAllocationResponse converts an applied plan to its response representation
func ToAllocationResponse(plan *inventory.AllocationPlan, stockAfter decimal.Decimal) AllocationResponse {
	entries := make([]AllocationEntry, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		entries = append(entries, AllocationEntry{
			BatchID:     e.BatchID,
			BatchNumber: e.BatchNumber,
			WarehouseID: e.WarehouseID,
			Quantity:    e.Quantity,
			UnitCost:    e.UnitCost,
		})
	}
	return AllocationResponse{
		ProductID:   plan.ProductID,
		Requested:   plan.Requested,
		Entries:     entries,
		TotalCost:   plan.TotalCost,
		AverageCost: plan.AverageCost,
		StockAfter:  stockAfter,
	}
}

// BulkAllocateRequest represents a multi-line allocation request
type BulkAllocateRequest struct {
	ReferenceID string             `json:"reference_id" binding:"required"`
	WarehouseID *uuid.UUID         `json:"warehouse_id"`
	Lines       []BulkAllocateLine `json:"lines" binding:"required,min=1,dive"`
}

// BulkAllocateLine is a single product line within a bulk allocation
type BulkAllocateLine struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// BulkAllocateResponse reports per-line outcomes of a bulk allocation.
// Failed lines never abort the remaining lines.
type BulkAllocateResponse struct {
	ReferenceID string                `json:"reference_id"`
	Allocated   []AllocationResponse  `json:"allocated"`
	Failed      []BulkAllocateFailure `json:"failed"`
}

// BulkAllocateFailure describes a line that could not be allocated
type BulkAllocateFailure struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
}

// AvailabilityResponse reports whether a quantity could be allocated now
type AvailabilityResponse struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Requested  decimal.Decimal `json:"requested"`
	Available  decimal.Decimal `json:"available"`
	Sufficient bool            `json:"sufficient"`
}
