package planning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockplan/backend/internal/domain/inventory"
)

func saleMovement(t *testing.T, productID uuid.UUID, quantity float64, occurredAt time.Time) inventory.StockMovement {
	t.Helper()
	m, err := inventory.NewStockMovement(productID, inventory.MovementTypeSale,
		decimal.NewFromFloat(-quantity), decimal.Zero, occurredAt)
	require.NoError(t, err)
	return *m
}

func TestDemandForecasterForecast(t *testing.T) {
	forecaster := NewDemandForecaster()
	productID := uuid.New()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Rejects non-positive horizon", func(t *testing.T) {
		_, err := forecaster.Forecast(nil, 0, now)
		assert.Error(t, err)
		_, err = forecaster.Forecast(nil, -3, now)
		assert.Error(t, err)
	})

	t.Run("No history yields zero demand and zero confidence", func(t *testing.T) {
		points, err := forecaster.Forecast(nil, 3, now)
		require.NoError(t, err)
		require.Len(t, points, 3)
		for _, p := range points {
			assert.Zero(t, p.PredictedDemand)
			assert.Zero(t, p.Confidence)
		}
		assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), points[0].Month)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), points[2].Month)
	})

	t.Run("Non-demand movements are ignored", func(t *testing.T) {
		purchase, err := inventory.NewStockMovement(productID, inventory.MovementTypePurchase,
			decimal.NewFromInt(500), decimal.Zero, now.AddDate(0, -1, 0))
		require.NoError(t, err)

		points, err := forecaster.Forecast([]inventory.StockMovement{*purchase}, 1, now)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Zero(t, points[0].PredictedDemand)
	})

	t.Run("Movements outside the trailing year are ignored", func(t *testing.T) {
		old := saleMovement(t, productID, 1000, now.AddDate(-2, 0, 0))
		recent := saleMovement(t, productID, 30, now.AddDate(0, 0, -1))

		points, err := forecaster.Forecast([]inventory.StockMovement{old, recent}, 1, now)
		require.NoError(t, err)
		assert.Equal(t, int64(30), points[0].PredictedDemand)
	})

	t.Run("Steady demand forecasts the mean with full confidence", func(t *testing.T) {
		movements := make([]inventory.StockMovement, 0, 6)
		for i := 0; i < 6; i++ {
			movements = append(movements, saleMovement(t, productID, 40, now.AddDate(0, -i, 0)))
		}

		points, err := forecaster.Forecast(movements, 2, now)
		require.NoError(t, err)
		require.Len(t, points, 2)
		for _, p := range points {
			assert.Equal(t, int64(40), p.PredictedDemand)
			assert.Equal(t, 100, p.Confidence)
		}
	})

	t.Run("Months without sales drag the mean down", func(t *testing.T) {
		// 40 units sold every other month across the trailing year. The
		// average must spread over the whole span, not just the selling
		// months, or the forecast doubles the true run rate.
		movements := make([]inventory.StockMovement, 0, 6)
		for i := 12; i >= 2; i -= 2 {
			movements = append(movements, saleMovement(t, productID, 40, now.AddDate(0, -i, 0)))
		}

		points, err := forecaster.Forecast(movements, 2, now)
		require.NoError(t, err)
		require.Len(t, points, 2)

		// July never sold: plain mean of 240 units over 12 months
		assert.Equal(t, time.July, points[0].Month.Month())
		assert.Equal(t, int64(20), points[0].PredictedDemand)
		// August sold 40 historically, twice the mean
		assert.Equal(t, time.August, points[1].Month.Month())
		assert.Equal(t, int64(40), points[1].PredictedDemand)
		// Half the span at 40, half at zero: dispersion equals the mean
		assert.Zero(t, points[0].Confidence)
	})

	t.Run("Identical history yields identical forecasts", func(t *testing.T) {
		movements := []inventory.StockMovement{
			saleMovement(t, productID, 10, now.AddDate(0, -1, 0)),
			saleMovement(t, productID, 25, now.AddDate(0, -2, 0)),
			saleMovement(t, productID, 17, now.AddDate(0, -3, 0)),
		}

		first, err := forecaster.Forecast(movements, 4, now)
		require.NoError(t, err)
		second, err := forecaster.Forecast(movements, 4, now)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Seasonal months scale the prediction", func(t *testing.T) {
		// 20 per month everywhere except December, which doubled
		movements := make([]inventory.StockMovement, 0, 12)
		for i := 1; i <= 12; i++ {
			occurred := now.AddDate(0, -i, 0)
			qty := 20.0
			if occurred.Month() == time.December {
				qty = 40.0
			}
			movements = append(movements, saleMovement(t, productID, qty, occurred))
		}

		points, err := forecaster.Forecast(movements, 12, now)
		require.NoError(t, err)

		var december, july *ForecastPoint
		for i := range points {
			switch points[i].Month.Month() {
			case time.December:
				december = &points[i]
			case time.July:
				july = &points[i]
			}
		}
		require.NotNil(t, december)
		require.NotNil(t, july)
		assert.Greater(t, december.PredictedDemand, july.PredictedDemand)
	})

	t.Run("Volatile demand lowers confidence", func(t *testing.T) {
		steady := []inventory.StockMovement{
			saleMovement(t, productID, 40, now.AddDate(0, -1, 0)),
			saleMovement(t, productID, 40, now.AddDate(0, -2, 0)),
			saleMovement(t, productID, 40, now.AddDate(0, -3, 0)),
		}
		volatile := []inventory.StockMovement{
			saleMovement(t, productID, 5, now.AddDate(0, -1, 0)),
			saleMovement(t, productID, 80, now.AddDate(0, -2, 0)),
			saleMovement(t, productID, 35, now.AddDate(0, -3, 0)),
		}

		steadyPoints, err := forecaster.Forecast(steady, 1, now)
		require.NoError(t, err)
		volatilePoints, err := forecaster.Forecast(volatile, 1, now)
		require.NoError(t, err)

		assert.Greater(t, steadyPoints[0].Confidence, volatilePoints[0].Confidence)
	})

	t.Run("Confidence stays within bounds", func(t *testing.T) {
		// Extreme dispersion: coefficient of variation above 1
		movements := []inventory.StockMovement{
			saleMovement(t, productID, 1, now.AddDate(0, -1, 0)),
			saleMovement(t, productID, 500, now.AddDate(0, -2, 0)),
		}

		points, err := forecaster.Forecast(movements, 1, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, points[0].Confidence, 0)
		assert.LessOrEqual(t, points[0].Confidence, 100)
	})
}
