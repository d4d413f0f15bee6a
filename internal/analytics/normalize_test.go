package analytics_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CanonicalFields(t *testing.T) {
	raw := analytics.RawTrade{
		"trade_date": "2024-03-01",
		"symbol":     "INFY",
		"trade_type": "Intraday",
		"segment":    "EQ",
		"quantity":   10.0,
		"buy_value":  "1500.50",
		"sell_value": "1,600.50",
		"gross_pnl":  100,
		"charges":    json.Number("12.5"),
		"net_pnl":    87.5,
	}

	trade := analytics.Normalize(raw)

	assert.Equal(t, "2024-03-01", trade.TradeDate)
	assert.Equal(t, "INFY", trade.Symbol)
	assert.Equal(t, "Intraday", trade.TradeType)
	assert.Equal(t, "EQ", trade.Segment)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, 1500.5, trade.BuyValue)
	assert.Equal(t, 1600.5, trade.SellValue)
	assert.Equal(t, 100.0, trade.GrossPnL)
	assert.Equal(t, 12.5, trade.Charges)
	assert.Equal(t, 87.5, trade.NetPnL)
	assert.Equal(t, map[string]any(raw), trade.Raw)
}

func TestNormalize_AliasesTriedInOrder(t *testing.T) {
	trade := analytics.Normalize(analytics.RawTrade{
		"netPnl":    "42",
		"netPL":     99,
		"tradeDate": "2024-01-02",
		"qty":       3,
	})

	assert.Equal(t, 42.0, trade.NetPnL)
	assert.Equal(t, "2024-01-02", trade.TradeDate)
	assert.Equal(t, 3.0, trade.Quantity)
}

func TestNormalize_NilValueFallsThroughToNextAlias(t *testing.T) {
	trade := analytics.Normalize(analytics.RawTrade{
		"net_pnl": nil,
		"netPnl":  -5,
	})

	assert.Equal(t, -5.0, trade.NetPnL)
}

func TestNormalize_MalformedValuesBecomeZero(t *testing.T) {
	cases := map[string]any{
		"garbage string": "abc",
		"empty string":   "",
		"bool":           true,
		"slice":          []any{1, 2},
		"map":            map[string]any{"x": 1},
		"nan string":     "NaN",
		"inf string":     "+Inf",
		"nan float":      math.NaN(),
		"inf float":      math.Inf(-1),
		"overflow":       "1e400",
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			trade := analytics.Normalize(analytics.RawTrade{"net_pnl": v, "symbol": v})
			assert.Equal(t, 0.0, trade.NetPnL)
			assert.False(t, math.IsNaN(trade.NetPnL))
		})
	}
}

func TestNormalize_NonFiniteRawValuesReplaced(t *testing.T) {
	raw := analytics.RawTrade{"netPnl": math.NaN(), "charges": math.Inf(1), "qty": float32(math.Inf(-1)), "symbol": "TCS"}

	trade := analytics.Normalize(raw)
	assert.Equal(t, 0.0, trade.NetPnL)
	assert.Equal(t, "NaN", trade.Raw["netPnl"])
	assert.Equal(t, "+Inf", trade.Raw["charges"])
	assert.Equal(t, "-Inf", trade.Raw["qty"])
	assert.Equal(t, "TCS", trade.Raw["symbol"])
	assert.True(t, math.IsNaN(raw["netPnl"].(float64)), "input record is not modified")

	_, err := json.Marshal(trade)
	require.NoError(t, err)

	finite := analytics.RawTrade{"netPnl": 1.5}
	assert.Equal(t, map[string]any(finite), analytics.Normalize(finite).Raw)
}

func TestNormalize_NilAndEmptyRecords(t *testing.T) {
	require.NotPanics(t, func() {
		trade := analytics.Normalize(nil)
		assert.Equal(t, "", trade.TradeDate)
		assert.Equal(t, 0.0, trade.NetPnL)
	})

	trade := analytics.Normalize(analytics.RawTrade{})
	assert.Equal(t, "", trade.Symbol)
	assert.Equal(t, 0.0, trade.Charges)
}

func TestNormalize_TimestampDatesKeepDayPrefix(t *testing.T) {
	trade := analytics.Normalize(analytics.RawTrade{"date": "2024-05-06T09:15:00+05:30"})
	assert.Equal(t, "2024-05-06", trade.TradeDate)

	trade = analytics.Normalize(analytics.RawTrade{"date": time.Date(2024, 7, 8, 15, 0, 0, 0, time.UTC)})
	assert.Equal(t, "2024-07-08", trade.TradeDate)

	trade = analytics.Normalize(analytics.RawTrade{"date": "06/05/2024"})
	assert.Equal(t, "06/05/2024", trade.TradeDate)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	trades := analytics.NormalizeAll([]analytics.RawTrade{
		{"net_pnl": 1},
		{"net_pnl": 2},
		{"net_pnl": 3},
	})

	require.Len(t, trades, 3)
	assert.Equal(t, 1.0, trades[0].NetPnL)
	assert.Equal(t, 3.0, trades[2].NetPnL)
}
