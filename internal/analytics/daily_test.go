package analytics_test

import (
	"testing"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(date string, net float64) types.Trade {
	return types.Trade{TradeDate: date, NetPnL: net, GrossPnL: net + 1, Charges: 1}
}

func TestAggregateByDay_GroupsAndSorts(t *testing.T) {
	trades := []types.Trade{
		trade("2024-01-03", 50),
		trade("2024-01-01", 100),
		trade("2024-01-03", -20),
		trade("", 999),
		trade("2024-01-02", -30),
	}

	daily := analytics.AggregateByDay(trades)

	require.Len(t, daily, 3)
	assert.Equal(t, "2024-01-01", daily[0].Date)
	assert.Equal(t, "2024-01-02", daily[1].Date)
	assert.Equal(t, "2024-01-03", daily[2].Date)

	assert.Equal(t, 30.0, daily[2].PnL)
	assert.Equal(t, 32.0, daily[2].GrossPnL)
	assert.Equal(t, 2.0, daily[2].Charges)
	assert.Equal(t, 2, daily[2].TradesCount)

	assert.Equal(t, 100.0, daily[0].Cumulative)
	assert.Equal(t, 70.0, daily[1].Cumulative)
	assert.Equal(t, 100.0, daily[2].Cumulative)
}

func TestAggregateByDay_CumulativeInvariant(t *testing.T) {
	trades := []types.Trade{
		trade("2024-02-05", 12.25),
		trade("2024-02-01", -3.5),
		trade("2024-02-03", 7),
		trade("2024-02-01", 1.75),
		trade("2024-02-09", -40),
	}

	daily := analytics.AggregateByDay(trades)
	require.NotEmpty(t, daily)

	assert.Equal(t, daily[0].PnL, daily[0].Cumulative)
	for i := 1; i < len(daily); i++ {
		assert.InDelta(t, daily[i].PnL, daily[i].Cumulative-daily[i-1].Cumulative, 1e-9)
		assert.Less(t, daily[i-1].Date, daily[i].Date)
	}
}

func TestAggregateByDay_Deterministic(t *testing.T) {
	trades := []types.Trade{
		trade("2024-01-02", 1), trade("2024-01-01", 2), trade("2024-01-03", 3),
	}

	assert.Equal(t, analytics.AggregateByDay(trades), analytics.AggregateByDay(trades))
}

func TestAggregateByDay_Empty(t *testing.T) {
	assert.Empty(t, analytics.AggregateByDay(nil))
	assert.Empty(t, analytics.AggregateByDay([]types.Trade{trade("", 10)}))
}

func TestBuildDailyEquity(t *testing.T) {
	daily := analytics.AggregateByDay([]types.Trade{
		trade("2024-01-01", 100),
		trade("2024-01-02", -30),
	})

	equity := analytics.BuildDailyEquity(daily, 1000)

	require.Len(t, equity, 2)
	assert.Equal(t, types.EquityPoint{Date: "2024-01-01", Equity: 1100}, equity[0])
	assert.Equal(t, types.EquityPoint{Date: "2024-01-02", Equity: 1070}, equity[1])
}
