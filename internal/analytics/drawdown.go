package analytics

import "github.com/atlas-desktop/tradestats/pkg/types"

// DrawdownStats describes peak-to-trough declines of cumulative daily P&L
type DrawdownStats struct {
	MaxDrawdown         float64
	MaxDrawdownPercent  float64
	MaxDrawdownDuration int // days in drawdown when the maximum was reached
	CurrentDrawdown     float64
	Peak                float64
}

// AnalyzeDrawdown walks the daily series in date order. Cumulative P&L
// starts flat at zero, so a losing first day is already a drawdown.
func AnalyzeDrawdown(daily []types.DailyPnL) DrawdownStats {
	var stats DrawdownStats
	if len(daily) == 0 {
		return stats
	}

	var peak, peakAtMax float64
	duration := 0

	for _, day := range daily {
		if day.Cumulative > peak {
			peak = day.Cumulative
			duration = 0
		} else {
			duration++
		}

		drawdown := peak - day.Cumulative
		if drawdown > stats.MaxDrawdown {
			stats.MaxDrawdown = drawdown
			stats.MaxDrawdownDuration = duration
			peakAtMax = peak
		}
	}

	stats.Peak = peak
	stats.CurrentDrawdown = peak - daily[len(daily)-1].Cumulative
	if peakAtMax > 0 {
		stats.MaxDrawdownPercent = stats.MaxDrawdown / peakAtMax * 100
	}

	return stats
}

// EquityDrawdown is the result of MaxDrawdown over an equity curve
type EquityDrawdown struct {
	MaxDrawdown        float64
	MaxDrawdownPercent float64
	PeakIndex          int
	TroughIndex        int
}

// MaxDrawdown computes the largest decline over an equity curve. The peak
// starts at the first point. Percent is relative to the peak of that decline.
func MaxDrawdown(equity []float64) EquityDrawdown {
	result := EquityDrawdown{PeakIndex: -1, TroughIndex: -1}
	if len(equity) == 0 {
		return result
	}

	peak := finite(equity[0])
	peakIdx := 0

	for i, v := range equity {
		v = finite(v)
		if v > peak {
			peak = v
			peakIdx = i
		}

		drawdown := peak - v
		if drawdown > result.MaxDrawdown {
			result.MaxDrawdown = drawdown
			result.PeakIndex = peakIdx
			result.TroughIndex = i
			if peak > 0 {
				result.MaxDrawdownPercent = drawdown / peak * 100
			} else {
				result.MaxDrawdownPercent = 0
			}
		}
	}

	return result
}

// EquityValues extracts the equity column of a curve.
func EquityValues(points []types.EquityPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Equity
	}
	return values
}
