package analytics_test

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleJournal() []analytics.RawTrade {
	// newest first
	return []analytics.RawTrade{
		{"date": "2024-01-04", "symbol": "TCS", "netPnl": 60, "grossPnl": 65, "charges": 5, "type": "Intraday"},
		{"date": "2024-01-03", "symbol": "INFY", "netPnl": -40, "grossPnl": -35, "charges": 5, "type": "Delivery"},
		{"date": "2024-01-02", "symbol": "HDFC", "netPnl": -30, "grossPnl": -25, "charges": 5, "type": "Intraday"},
		{"date": "2024-01-01", "symbol": "RELIANCE", "netPnl": 100, "grossPnl": 105, "charges": 5, "type": "Delivery"},
	}
}

func TestCalculate_Empty(t *testing.T) {
	calc := analytics.NewCalculator(zap.NewNop(), analytics.DefaultOptions())

	assert.Equal(t, types.EmptyMetrics(), calc.Calculate(nil))
	assert.Equal(t, types.EmptyMetrics(), calc.Calculate([]analytics.RawTrade{}))
}

func TestCalculate_SampleJournal(t *testing.T) {
	m := analytics.CalculateAdvancedMetrics(sampleJournal())

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.Equal(t, 50.0, m.WinRate)
	assert.Equal(t, 90.0, m.TotalNetPnL)
	assert.Equal(t, 110.0, m.TotalGrossPnL)
	assert.Equal(t, 20.0, m.TotalCharges)
	assert.Equal(t, 22.5, m.AvgTradePnL)
	assert.Equal(t, 80.0, m.AvgWin)
	assert.Equal(t, -35.0, m.AvgLoss)
	assert.Equal(t, 2.29, m.ProfitFactor)

	assert.Equal(t, 70.0, m.MaxDrawdown)
	assert.Equal(t, 70.0, m.MaxDrawdownPercent)
	assert.Equal(t, 2, m.MaxDrawdownDuration)
	assert.Equal(t, 10.0, m.CurrentDrawdown)
	assert.Equal(t, 1.29, m.CalmarRatio)
	assert.Equal(t, m.CalmarRatio, m.RecoveryFactor)
	assert.Equal(t, 2.29, m.OmegaRatio)

	assert.Equal(t, 1, m.CurrentStreak)
	assert.Equal(t, 1, m.LongestWinStreak)
	assert.Equal(t, 2, m.LongestLossStreak)
	assert.Equal(t, 100.0, m.BestDay)
	assert.Equal(t, -40.0, m.WorstDay)
	assert.Equal(t, 4, m.TradingDays)

	assert.Equal(t, 2, m.IntradayTrades)
	assert.Equal(t, 50.0, m.IntradayPercent)
	assert.Equal(t, 1.0, m.AvgTradeDuration)

	require.NotNil(t, m.BestTrade)
	require.NotNil(t, m.WorstTrade)
	assert.Equal(t, "RELIANCE", m.BestTrade.Symbol)
	assert.Equal(t, "INFY", m.WorstTrade.Symbol)
	assert.Equal(t, "2024-01-01", m.StartDate)
	assert.Equal(t, "2024-01-04", m.EndDate)
}

func TestCalculate_OldestFirstOption(t *testing.T) {
	calc := analytics.NewCalculator(nil, analytics.Options{Order: analytics.OldestFirst})

	m := calc.Calculate(sampleJournal())

	// the last element is now the most recent: a win of 100
	assert.Equal(t, 1, m.CurrentStreak)
	assert.Equal(t, analytics.DefaultTradingDaysPerYear, calc.Options().TradingDaysPerYear)

	m = calc.Calculate([]analytics.RawTrade{{"netPnl": 5}, {"netPnl": -1}, {"netPnl": -2}})
	assert.Equal(t, -2, m.CurrentStreak)
}

func TestCalculate_Idempotent(t *testing.T) {
	calc := analytics.NewCalculator(zap.NewNop(), analytics.DefaultOptions())
	raws := sampleJournal()

	assert.Equal(t, calc.Calculate(raws), calc.Calculate(raws))
}

func TestCalculate_RoundsToCents(t *testing.T) {
	m := analytics.CalculateAdvancedMetrics([]analytics.RawTrade{
		{"date": "2024-01-01", "netPnl": 1.005},
		{"date": "2024-01-02", "netPnl": -1},
		{"date": "2024-01-03", "netPnl": -2},
	})

	assert.Equal(t, 33.33, m.WinRate)
	assert.Equal(t, 1.01, m.AvgWin)
	assert.Equal(t, 1.01, m.LargestWin)
	assert.Equal(t, -1.5, m.AvgLoss)
	assert.Equal(t, -2.0, m.WorstDay)
}

func TestCalculate_UndatedTradesStillCount(t *testing.T) {
	m := analytics.CalculateAdvancedMetrics([]analytics.RawTrade{
		{"netPnl": 10},
		{"netPnl": -4},
	})

	assert.Equal(t, 2, m.TotalTrades)
	assert.Equal(t, 6.0, m.TotalNetPnL)
	assert.Equal(t, 0, m.TradingDays)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, "", m.StartDate)
}

func TestCalculate_TotalOverArbitraryRecords(t *testing.T) {
	raws := []analytics.RawTrade{
		nil,
		{},
		{"netPnl": math.NaN(), "date": 12},
		{"net_pnl": "not a number", "trade_date": []any{"x"}},
		{"pnl": math.Inf(1), "charges": "1e999", "quantity": -3},
		{"profit": "-12.5", "day": "2024-02-30"},
		{"realizedPnl": true, "segment": map[string]any{"a": 1}},
	}

	var m *types.AdvancedMetrics
	require.NotPanics(t, func() {
		m = analytics.CalculateAdvancedMetrics(raws)
	})

	assert.Equal(t, len(raws), m.TotalTrades)
	assert.Equal(t, m.TotalTrades, m.WinningTrades+m.LosingTrades)
	assertFinite(t, m)

	_, err := json.Marshal(m)
	require.NoError(t, err)
}

func TestCalculate_NonFiniteRawStaysEncodable(t *testing.T) {
	m := analytics.CalculateAdvancedMetrics([]analytics.RawTrade{
		{"date": "2024-01-01", "netPnl": math.NaN()},
		{"date": "2024-01-02", "netPnl": math.NaN(), "charges": float32(math.Inf(1))},
	})
	require.NotNil(t, m.BestTrade)
	require.NotNil(t, m.WorstTrade)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"NaN"`)
}

// assertFinite checks every float64 field of the metrics record.
func assertFinite(t *testing.T, m *types.AdvancedMetrics) {
	t.Helper()

	v := reflect.ValueOf(m).Elem()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() != reflect.Float64 {
			continue
		}
		f := field.Float()
		assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "%s = %v", v.Type().Field(i).Name, f)
	}
}
