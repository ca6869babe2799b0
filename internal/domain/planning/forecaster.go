package planning

import (
	"math"
	"time"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// HistoryMonths is the trailing window of sale history the forecaster reads
const HistoryMonths = 12

// ForecastPoint is a demand estimate for a single future month. Points are
// computed on demand and never persisted by this engine; callers may cache
// them.
type ForecastPoint struct {
	Month           time.Time `json:"month"` // First day of the target month, UTC
	PredictedDemand int64     `json:"predicted_demand"`
	Confidence      int       `json:"confidence"` // 0-100
}

// DemandForecaster derives monthly demand estimates and seasonal factors
// from historical sale movements. It is stateless: every call recomputes
// from the movement history it is given, so identical history always
// yields identical forecasts.
type DemandForecaster struct{}

// NewDemandForecaster creates a new demand forecaster
func NewDemandForecaster() *DemandForecaster {
	return &DemandForecaster{}
}

// Forecast predicts demand for each of the next horizonMonths months.
// Only sale-type movements within the trailing twelve months of now are
// considered; the caller is expected to have fetched exactly that window.
// A product with no sale history yields zero demand and zero confidence
// for every horizon point.
func (f *DemandForecaster) Forecast(
	movements []inventory.StockMovement,
	horizonMonths int,
	now time.Time,
) ([]ForecastPoint, error) {
	if horizonMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_HORIZON", "Forecast horizon must be positive")
	}

	windowStart := now.AddDate(0, -HistoryMonths, 0)
	monthly := make(map[time.Time]float64) // first-of-month -> demand
	for _, m := range movements {
		if !m.MovementType.IsDemand() {
			continue
		}
		if m.OccurredAt.Before(windowStart) || m.OccurredAt.After(now) {
			continue
		}
		monthly[monthKey(m.OccurredAt)] += math.Abs(m.Quantity.InexactFloat64())
	}

	points := make([]ForecastPoint, 0, horizonMonths)
	if len(monthly) == 0 {
		for i := 1; i <= horizonMonths; i++ {
			points = append(points, ForecastPoint{Month: monthKey(now.AddDate(0, i, 0))})
		}
		return points, nil
	}

	mean, stddev := demandStats(monthly, now)
	confidence := confidenceScore(mean, stddev)
	factors := seasonalFactors(monthly, mean)

	for i := 1; i <= horizonMonths; i++ {
		target := monthKey(now.AddDate(0, i, 0))
		factor := 1.0
		if fct, ok := factors[target.Month()]; ok {
			factor = fct
		}
		points = append(points, ForecastPoint{
			Month:           target,
			PredictedDemand: int64(math.Ceil(mean * factor)),
			Confidence:      confidence,
		})
	}

	return points, nil
}

// monthKey truncates a timestamp to the first day of its calendar month in UTC
func monthKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// demandStats returns the mean and standard deviation of monthly demand
// over the history span. Months inside the span without sales count as
// zero-demand groups, which keeps sparse sellers from being forecast at
// their selling-month average.
func demandStats(monthly map[time.Time]float64, now time.Time) (float64, float64) {
	span := float64(historySpanMonths(monthly, now))

	sum := 0.0
	for _, d := range monthly {
		sum += d
	}
	mean := sum / span

	variance := 0.0
	for _, d := range monthly {
		variance += (d - mean) * (d - mean)
	}
	// Zero-demand months contribute (0 - mean)^2 each
	variance += (span - float64(len(monthly))) * mean * mean
	variance /= span

	return mean, math.Sqrt(variance)
}

// historySpanMonths counts the calendar months from the earliest sale
// month through the month of now, capped at the trailing window. The
// window can clip up to thirteen partial calendar months, so the span
// never drops below the number of observed months.
func historySpanMonths(monthly map[time.Time]float64, now time.Time) int {
	var earliest time.Time
	for key := range monthly {
		if earliest.IsZero() || key.Before(earliest) {
			earliest = key
		}
	}

	current := monthKey(now)
	span := (current.Year()-earliest.Year())*12 + int(current.Month()-earliest.Month()) + 1
	if span > HistoryMonths {
		span = HistoryMonths
	}
	if span < len(monthly) {
		span = len(monthly)
	}
	return span
}

// confidenceScore maps the coefficient of variation of monthly demand to
// a 0-100 score. Zero mean demand yields zero confidence, never a divide
// by zero.
func confidenceScore(mean, stddev float64) int {
	if mean <= 0 {
		return 0
	}
	cv := stddev / mean
	score := (1 - cv) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// seasonalFactors returns, per calendar month, the ratio of that month's
// average historical demand to the overall average. Months without data
// are absent; callers default them to 1.
func seasonalFactors(monthly map[time.Time]float64, overallMean float64) map[time.Month]float64 {
	if overallMean <= 0 {
		return map[time.Month]float64{}
	}

	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for key, demand := range monthly {
		sums[key.Month()] += demand
		counts[key.Month()]++
	}

	factors := make(map[time.Month]float64, len(sums))
	for month, sum := range sums {
		avg := sum / float64(counts[month])
		factors[month] = avg / overallMean
	}
	return factors
}
