package analytics

import (
	"strings"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// positionalHoldingDays is the holding period assigned to every non-intraday
// trade. Entry and exit timestamps are not part of a Trade.
const positionalHoldingDays = 1.0

// DurationStats describes holding periods
type DurationStats struct {
	IntradayTrades   int
	PositionalTrades int
	IntradayPercent  float64
	AvgTradeDuration float64 // days, positional trades only
	LongestTrade     float64 // days, positional trades only
}

// IsIntraday reports whether the trade type or segment mentions "intraday"
// or "day" (case-insensitive).
func IsIntraday(trade types.Trade) bool {
	return mentionsDay(trade.TradeType) || mentionsDay(trade.Segment)
}

func mentionsDay(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "intraday") || strings.Contains(s, "day")
}

// ClassifyDurations splits trades into intraday and positional.
func ClassifyDurations(trades []types.Trade) DurationStats {
	var stats DurationStats
	if len(trades) == 0 {
		return stats
	}

	var total float64
	for _, trade := range trades {
		if IsIntraday(trade) {
			stats.IntradayTrades++
			continue
		}
		stats.PositionalTrades++
		total += positionalHoldingDays
		if positionalHoldingDays > stats.LongestTrade {
			stats.LongestTrade = positionalHoldingDays
		}
	}

	stats.IntradayPercent = float64(stats.IntradayTrades) / float64(len(trades)) * 100
	if stats.PositionalTrades > 0 {
		stats.AvgTradeDuration = total / float64(stats.PositionalTrades)
	}

	return stats
}
