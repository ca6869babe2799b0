package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// DefaultLeadTimeDays is used when a product has no supplier lead time configured
const DefaultLeadTimeDays = 14

// Product is the aggregate root for stock accounting. Its quantity and
// weighted-average cost are mutated only through the StockLedger; the
// planning attributes (optimal level, ordering cost, holding rate, lead
// time) are maintained by external catalog management.
type Product struct {
	shared.BaseAggregateRoot
	SKU               string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(255);not null"`
	StockQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Moving weighted average
	OptimalStockLevel decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OrderingCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Cost per replenishment order
	HoldingCostRate   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`  // Fraction of unit cost per year
	LeadTimeDays      int             `gorm:"not null;default:0"`                    // Supplier lead time; 0 = unset
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(sku, name string) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		StockQuantity:     decimal.Zero,
		AverageCost:       decimal.Zero,
		OptimalStockLevel: decimal.Zero,
		OrderingCost:      decimal.Zero,
		HoldingCostRate:   decimal.Zero,
	}, nil
}

// ApplyDelta applies a signed quantity change to the product's stock.
// A positive delta with a positive unit cost recalculates the moving
// weighted average cost. The resulting stock may only go negative when
// allowNegative is set (backorder-permitted movement types).
func (p *Product) ApplyDelta(delta, unitCost decimal.Decimal, allowNegative bool, now time.Time) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_MOVEMENT", "Quantity delta cannot be zero")
	}

	newStock := p.StockQuantity.Add(delta)
	if newStock.IsNegative() && !allowNegative {
		return shared.NewDomainError("INVALID_MOVEMENT", "Resulting stock would be negative")
	}

	if delta.GreaterThan(decimal.Zero) && unitCost.GreaterThan(decimal.Zero) {
		// New Cost = (Old Qty * Old Cost + Delta * Unit Cost) / (Old Qty + Delta)
		if p.StockQuantity.LessThanOrEqual(decimal.Zero) {
			p.AverageCost = unitCost
		} else {
			totalValue := p.StockQuantity.Mul(p.AverageCost).Add(delta.Mul(unitCost))
			p.AverageCost = totalValue.Div(newStock).Round(4)
		}
	}

	p.StockQuantity = newStock
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// EffectiveLeadTimeDays returns the supplier lead time, falling back to
// the default when catalog management has not set one.
func (p *Product) EffectiveLeadTimeDays() int {
	if p.LeadTimeDays <= 0 {
		return DefaultLeadTimeDays
	}
	return p.LeadTimeDays
}

// HasStock returns true if the product has positive stock on hand
func (p *Product) HasStock() bool {
	return p.StockQuantity.GreaterThan(decimal.Zero)
}

// StockValue returns the total value of stock on hand
func (p *Product) StockValue() decimal.Decimal {
	return p.StockQuantity.Mul(p.AverageCost)
}

// AnnualHoldingCostPerUnit returns the yearly cost of holding one unit
func (p *Product) AnnualHoldingCostPerUnit() decimal.Decimal {
	return p.AverageCost.Mul(p.HoldingCostRate)
}
