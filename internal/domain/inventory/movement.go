package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	// MovementTypeSale represents stock leaving through a standard sale
	MovementTypeSale MovementType = "sale"
	// MovementTypeBulkOrder represents stock leaving through a bulk order line
	MovementTypeBulkOrder MovementType = "bulk_order"
	// MovementTypeReturn represents resellable stock coming back from a customer
	MovementTypeReturn MovementType = "return"
	// MovementTypePurchase represents stock received from a supplier
	MovementTypePurchase MovementType = "purchase"
	// MovementTypeAdjustment represents a manual correction (count variance, damage)
	MovementTypeAdjustment MovementType = "adjustment"
	// MovementTypeTransferIn represents stock transferred in from another warehouse
	MovementTypeTransferIn MovementType = "transfer_in"
	// MovementTypeTransferOut represents stock transferred out to another warehouse
	MovementTypeTransferOut MovementType = "transfer_out"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale,
		MovementTypeBulkOrder,
		MovementTypeReturn,
		MovementTypePurchase,
		MovementTypeAdjustment,
		MovementTypeTransferIn,
		MovementTypeTransferOut:
		return true
	}
	return false
}

// IsDemand returns true if movements of this type count as customer demand
// for forecasting purposes.
func (t MovementType) IsDemand() bool {
	return t == MovementTypeSale
}

// AllMovementTypes returns all valid movement types
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementTypeSale,
		MovementTypeBulkOrder,
		MovementTypeReturn,
		MovementTypePurchase,
		MovementTypeAdjustment,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
	}
}

// ReferenceKind identifies the kind of entity a movement points back to
type ReferenceKind string

const (
	// ReferenceKindOrder is a standard sales order
	ReferenceKindOrder ReferenceKind = "ORDER"
	// ReferenceKindBulkOrder is a bulk order
	ReferenceKindBulkOrder ReferenceKind = "BULK_ORDER"
	// ReferenceKindReturn is a customer return
	ReferenceKindReturn ReferenceKind = "RETURN"
	// ReferenceKindPurchaseOrder is a supplier purchase order
	ReferenceKindPurchaseOrder ReferenceKind = "PURCHASE_ORDER"
	// ReferenceKindStockTake is a stock taking/count session
	ReferenceKindStockTake ReferenceKind = "STOCK_TAKE"
)

// String returns the string representation of ReferenceKind
func (k ReferenceKind) String() string {
	return string(k)
}

// IsValid returns true if the reference kind is valid
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceKindOrder,
		ReferenceKindBulkOrder,
		ReferenceKindReturn,
		ReferenceKindPurchaseOrder,
		ReferenceKindStockTake:
		return true
	}
	return false
}

// Reference is a tagged pointer from a stock movement to the entity that
// caused it. The kind tag forces consumers to handle each owner explicitly
// instead of guessing what a bare ID means.
type Reference struct {
	Kind ReferenceKind `gorm:"column:reference_kind;type:varchar(30)"`
	ID   string        `gorm:"column:reference_id;type:varchar(50)"`
}

// NewReference creates a reference to an owning entity
func NewReference(kind ReferenceKind, id string) Reference {
	return Reference{Kind: kind, ID: id}
}

// IsZero returns true when no reference was supplied
func (r Reference) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// StockMovement is an immutable record of a signed stock change.
// Movements are append-only: corrections are made with new movements,
// never by editing existing ones. The running sum of movement quantities
// for a product always equals that product's current stock.
type StockMovement struct {
	shared.BaseEntity
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_product_time,priority:1"`
	WarehouseID  *uuid.UUID      `gorm:"type:uuid;index"`
	MovementType MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed: positive inbound, negative outbound
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Cost per unit for inbound movements
	StockAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Product stock after applying this movement
	Reference    Reference       `gorm:"embedded"`
	BatchNumber  string          `gorm:"type:varchar(100)"`
	OccurredAt   time.Time       `gorm:"not null;index:idx_movement_product_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new stock movement record
func NewStockMovement(
	productID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	stockAfter decimal.Decimal,
	occurredAt time.Time,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Movement quantity cannot be zero")
	}

	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		UnitCost:     decimal.Zero,
		StockAfter:   stockAfter,
		OccurredAt:   occurredAt,
	}, nil
}

// WithWarehouse sets the warehouse the movement happened in
func (m *StockMovement) WithWarehouse(warehouseID uuid.UUID) *StockMovement {
	m.WarehouseID = &warehouseID
	return m
}

// WithReference sets the tagged reference to the owning entity
func (m *StockMovement) WithReference(ref Reference) *StockMovement {
	m.Reference = ref
	return m
}

// WithUnitCost sets the per-unit cost for inbound movements
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	m.UnitCost = cost
	return m
}

// WithBatchNumber sets the batch/lot number associated with the movement
func (m *StockMovement) WithBatchNumber(batchNumber string) *StockMovement {
	m.BatchNumber = batchNumber
	return m
}

// IsInbound returns true if this movement increases stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity.GreaterThan(decimal.Zero)
}

// IsOutbound returns true if this movement decreases stock
func (m *StockMovement) IsOutbound() bool {
	return m.Quantity.LessThan(decimal.Zero)
}

// Magnitude returns the absolute quantity of the movement
func (m *StockMovement) Magnitude() decimal.Decimal {
	return m.Quantity.Abs()
}
