package planning

import (
	"math"
	"time"

	"github.com/stockplan/backend/internal/domain/inventory"
)

const (
	// DemandWindowDays is the trailing window used for daily demand statistics
	DemandWindowDays = 90
	// ServiceLevelZ is the z-factor for a ~99% service level
	ServiceLevelZ = 2.326
	// DaysPerYear annualizes daily demand for the EOQ formula
	DaysPerYear = 365
)

// StockLevels holds the derived replenishment thresholds for a product.
// All values are recomputed per request and never persisted.
type StockLevels struct {
	ReorderPoint          int64 `json:"reorder_point"`
	SafetyStock           int64 `json:"safety_stock"`
	EconomicOrderQuantity int64 `json:"economic_order_quantity"`
	MaxStockLevel         int64 `json:"max_stock_level"`
	// EOQUndeterminable is set when cost or holding-rate data is missing,
	// so dashboards can degrade gracefully instead of showing a bogus zero.
	EOQUndeterminable bool `json:"eoq_undeterminable"`
}

// ReorderPlanner converts demand statistics into reorder point, safety
// stock, EOQ and max-stock-level figures.
type ReorderPlanner struct{}

// NewReorderPlanner creates a new reorder planner
func NewReorderPlanner() *ReorderPlanner {
	return &ReorderPlanner{}
}

// Optimize computes stock levels from the product's planning attributes
// and its trailing-90-day sale history. The movement slice may contain
// any types; only sale movements inside the window contribute.
func (p *ReorderPlanner) Optimize(
	product *inventory.Product,
	movements []inventory.StockMovement,
	now time.Time,
) StockLevels {
	dailyDemand, demandStdDev := p.dailyDemandStats(movements, now)
	leadTime := float64(product.EffectiveLeadTimeDays())

	safety := ServiceLevelZ * demandStdDev * math.Sqrt(leadTime)
	reorder := dailyDemand*leadTime + safety

	levels := StockLevels{
		ReorderPoint:  int64(math.Ceil(reorder)),
		SafetyStock:   int64(math.Ceil(safety)),
		MaxStockLevel: int64(math.Ceil(dailyDemand * leadTime * 2)),
	}

	annualDemand := dailyDemand * DaysPerYear
	holdingCost := product.AnnualHoldingCostPerUnit().InexactFloat64()
	if holdingCost > 0 {
		eoq := math.Sqrt(2 * annualDemand * product.OrderingCost.InexactFloat64() / holdingCost)
		levels.EconomicOrderQuantity = int64(math.Round(eoq))
	} else {
		levels.EOQUndeterminable = true
	}

	return levels
}

// dailyDemandStats returns the average and standard deviation of daily
// sale demand over the trailing window. Days without sales count as zero
// demand, which keeps the deviation honest for slow movers.
func (p *ReorderPlanner) dailyDemandStats(movements []inventory.StockMovement, now time.Time) (float64, float64) {
	windowStart := now.AddDate(0, 0, -DemandWindowDays)

	daily := make(map[time.Time]float64)
	for _, m := range movements {
		if !m.MovementType.IsDemand() {
			continue
		}
		if m.OccurredAt.Before(windowStart) || m.OccurredAt.After(now) {
			continue
		}
		daily[dayKey(m.OccurredAt)] += math.Abs(m.Quantity.InexactFloat64())
	}

	total := 0.0
	for _, d := range daily {
		total += d
	}
	mean := total / DemandWindowDays

	variance := 0.0
	for _, d := range daily {
		variance += (d - mean) * (d - mean)
	}
	// Zero-demand days contribute (0 - mean)^2 each
	variance += float64(DemandWindowDays-len(daily)) * mean * mean
	variance /= DemandWindowDays

	return mean, math.Sqrt(variance)
}

// dayKey truncates a timestamp to midnight UTC
func dayKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
