package analytics

import (
	"math"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// DefaultTradingDaysPerYear annualizes daily ratios. It is a convention for
// exchange-traded markets, not a property of the data.
const DefaultTradingDaysPerYear = 252.0

// RiskRatios holds return-dispersion statistics over daily P&L
type RiskRatios struct {
	AvgReturn      float64
	StdDev         float64
	DownsideDev    float64
	SharpeRatio    float64
	SortinoRatio   float64
	CalmarRatio    float64
	OmegaRatio     float64
	RecoveryFactor float64
}

// ComputeRiskRatios derives Sharpe, Sortino, Calmar, Omega and recovery
// factor from the per-day P&L values (not the cumulative series).
func ComputeRiskRatios(daily []types.DailyPnL, totalNetPnL, maxDrawdown, tradingDaysPerYear float64) RiskRatios {
	var ratios RiskRatios

	if maxDrawdown > 0 {
		ratios.CalmarRatio = finite(math.Abs(totalNetPnL / maxDrawdown))
		ratios.RecoveryFactor = ratios.CalmarRatio
	}

	if len(daily) == 0 {
		return ratios
	}

	if tradingDaysPerYear <= 0 {
		tradingDaysPerYear = DefaultTradingDaysPerYear
	}
	annualization := math.Sqrt(tradingDaysPerYear)

	returns := make([]float64, len(daily))
	for i, day := range daily {
		returns[i] = day.PnL
	}

	ratios.AvgReturn = mean(returns)
	ratios.StdDev = populationStdDev(returns, ratios.AvgReturn)
	if ratios.StdDev > 0 {
		ratios.SharpeRatio = finite(ratios.AvgReturn / ratios.StdDev * annualization)
	}

	ratios.DownsideDev = downsideDeviation(returns)
	if ratios.DownsideDev > 0 {
		ratios.SortinoRatio = finite(ratios.AvgReturn / ratios.DownsideDev * annualization)
	}

	ratios.OmegaRatio = Omega(returns, 0)

	return ratios
}

// Omega returns the sum of gains above threshold over the sum of shortfalls
// below it. With no shortfall it is NoDownside when gains exist, else 0.
func Omega(returns []float64, threshold float64) float64 {
	var gains, losses float64
	for _, r := range returns {
		excess := r - threshold
		if excess > 0 {
			gains += excess
		} else if excess < 0 {
			losses += -excess
		}
	}

	if losses == 0 {
		if gains > 0 {
			return NoDownside
		}
		return 0
	}
	return finite(gains / losses)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev divides by n, not n-1.
func populationStdDev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sumSquares float64
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// downsideDeviation is the root mean square of the negative returns.
func downsideDeviation(returns []float64) float64 {
	var sumSquares float64
	count := 0

	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(count))
}
