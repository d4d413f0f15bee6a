package analytics

import (
	"math"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// NoDownside is returned by ratios whose loss side is empty while gains exist.
// It stays finite so results remain sortable and JSON-encodable.
const NoDownside = 999.0

// CoreStats holds the trade-level statistics
type CoreStats struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	BreakEvenTrades int

	TotalNetPnL   float64
	TotalGrossPnL float64
	TotalCharges  float64
	GrossWins     float64
	GrossLosses   float64 // sum of losing net P&L, <= 0

	WinRate        float64 // percent
	AvgTradePnL    float64
	AvgWin         float64
	AvgLoss        float64 // <= 0
	ProfitFactor   float64
	Expectancy     float64
	PayoffRatio    float64
	KellyCriterion float64 // percent
}

// ComputeCoreStats partitions trades into winners (net > 0) and losers
// (net <= 0) and derives the edge statistics. Break-even trades count as losers.
func ComputeCoreStats(trades []types.Trade) CoreStats {
	stats := CoreStats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return stats
	}

	for _, trade := range trades {
		stats.TotalNetPnL += trade.NetPnL
		stats.TotalGrossPnL += trade.GrossPnL
		stats.TotalCharges += trade.Charges

		if trade.IsWin() {
			stats.WinningTrades++
			stats.GrossWins += trade.NetPnL
			continue
		}
		stats.LosingTrades++
		stats.GrossLosses += trade.NetPnL
		if trade.NetPnL == 0 {
			stats.BreakEvenTrades++
		}
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	stats.AvgTradePnL = stats.TotalNetPnL / float64(stats.TotalTrades)

	if stats.WinningTrades > 0 {
		stats.AvgWin = stats.GrossWins / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = stats.GrossLosses / float64(stats.LosingTrades)
	}

	stats.ProfitFactor = profitFactor(stats.GrossWins, stats.GrossLosses)
	stats.Expectancy = expectancy(stats.WinRate, stats.AvgWin, stats.AvgLoss)

	if stats.AvgLoss != 0 {
		stats.PayoffRatio = math.Abs(stats.AvgWin / stats.AvgLoss)
	}
	stats.KellyCriterion = Kelly(stats.WinRate, stats.PayoffRatio) * 100

	return stats
}

// ProfitFactor returns gross wins over absolute gross losses.
func ProfitFactor(trades []types.Trade) float64 {
	var wins, losses float64
	for _, trade := range trades {
		if trade.IsWin() {
			wins += trade.NetPnL
		} else {
			losses += trade.NetPnL
		}
	}
	return profitFactor(wins, losses)
}

// Expectancy returns the probability-weighted average P&L per trade.
func Expectancy(trades []types.Trade) float64 {
	stats := ComputeCoreStats(trades)
	return stats.Expectancy
}

// Kelly returns the Kelly fraction f* = p - q/b for a win rate in percent
// and a payoff ratio b. A zero payoff ratio yields 0.
func Kelly(winRatePct, payoffRatio float64) float64 {
	if payoffRatio == 0 {
		return 0
	}
	p := winRatePct / 100
	return finite((p*payoffRatio - (1 - p)) / payoffRatio)
}

func profitFactor(wins, losses float64) float64 {
	if losses == 0 {
		if wins > 0 {
			return NoDownside
		}
		return 0
	}
	return wins / math.Abs(losses)
}

func expectancy(winRatePct, avgWin, avgLoss float64) float64 {
	p := winRatePct / 100
	return p*avgWin + (1-p)*avgLoss
}
