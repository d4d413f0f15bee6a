package analytics

import (
	"sort"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// AggregateByDay buckets trades by trade date and returns the series in
// ascending date order with a running cumulative P&L.
// Trades without a date are left out of the series.
func AggregateByDay(trades []types.Trade) []types.DailyPnL {
	buckets := make(map[string]*types.DailyPnL)

	for _, trade := range trades {
		if trade.TradeDate == "" {
			continue
		}
		day, ok := buckets[trade.TradeDate]
		if !ok {
			day = &types.DailyPnL{Date: trade.TradeDate}
			buckets[trade.TradeDate] = day
		}
		day.PnL += trade.NetPnL
		day.GrossPnL += trade.GrossPnL
		day.Charges += trade.Charges
		day.TradesCount++
	}

	daily := make([]types.DailyPnL, 0, len(buckets))
	for _, day := range buckets {
		daily = append(daily, *day)
	}

	// Dates are unique keys, so the order is total.
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date < daily[j].Date
	})

	var cumulative float64
	for i := range daily {
		cumulative += daily[i].PnL
		daily[i].Cumulative = cumulative
	}

	return daily
}

// BuildDailyEquity lays the daily P&L series onto a starting capital.
func BuildDailyEquity(daily []types.DailyPnL, startingCapital float64) []types.EquityPoint {
	equity := make([]types.EquityPoint, len(daily))
	balance := finite(startingCapital)

	for i, day := range daily {
		balance += day.PnL
		equity[i] = types.EquityPoint{
			Date:   day.Date,
			Equity: balance,
		}
	}

	return equity
}

// dateRange returns the first and last distinct non-empty trade dates.
func dateRange(daily []types.DailyPnL) (start, end string) {
	if len(daily) == 0 {
		return "", ""
	}
	return daily[0].Date, daily[len(daily)-1].Date
}
