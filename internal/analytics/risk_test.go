package analytics_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(pnls ...float64) []types.DailyPnL {
	daily := make([]types.DailyPnL, len(pnls))
	var cumulative float64
	for i, p := range pnls {
		cumulative += p
		daily[i] = types.DailyPnL{
			Date:       fmt.Sprintf("2024-01-%02d", i+1),
			PnL:        p,
			Cumulative: cumulative,
		}
	}
	return daily
}

func TestAnalyzeDrawdown_ReferenceSeries(t *testing.T) {
	stats := analytics.AnalyzeDrawdown(dailySeries(100, -30, -40, 60))

	assert.Equal(t, 70.0, stats.MaxDrawdown)
	assert.Equal(t, 2, stats.MaxDrawdownDuration)
	assert.Equal(t, 10.0, stats.CurrentDrawdown)
	assert.InDelta(t, 70.0, stats.MaxDrawdownPercent, 1e-9)
	assert.Equal(t, 100.0, stats.Peak)
}

func TestAnalyzeDrawdown_NewPeakClearsCurrent(t *testing.T) {
	stats := analytics.AnalyzeDrawdown(dailySeries(100, -30, 80))

	assert.Equal(t, 30.0, stats.MaxDrawdown)
	assert.Equal(t, 0.0, stats.CurrentDrawdown)
	assert.Equal(t, 150.0, stats.Peak)
}

func TestAnalyzeDrawdown_LosingFromStart(t *testing.T) {
	stats := analytics.AnalyzeDrawdown(dailySeries(-50, -25))

	assert.Equal(t, 75.0, stats.MaxDrawdown)
	assert.Equal(t, 2, stats.MaxDrawdownDuration)
	assert.Equal(t, 75.0, stats.CurrentDrawdown)
	assert.Equal(t, 0.0, stats.MaxDrawdownPercent, "no positive peak")
}

func TestAnalyzeDrawdown_Empty(t *testing.T) {
	assert.Equal(t, analytics.DrawdownStats{}, analytics.AnalyzeDrawdown(nil))
}

func TestMaxDrawdown_EquityCurve(t *testing.T) {
	result := analytics.MaxDrawdown([]float64{1000, 1100, 900, 950, 1200, 1150})

	assert.Equal(t, 200.0, result.MaxDrawdown)
	assert.InDelta(t, 18.1818, result.MaxDrawdownPercent, 1e-4)
	assert.Equal(t, 1, result.PeakIndex)
	assert.Equal(t, 2, result.TroughIndex)
}

func TestMaxDrawdown_Degenerate(t *testing.T) {
	empty := analytics.MaxDrawdown(nil)
	assert.Equal(t, 0.0, empty.MaxDrawdown)
	assert.Equal(t, -1, empty.PeakIndex)

	rising := analytics.MaxDrawdown([]float64{1, 2, 3})
	assert.Equal(t, 0.0, rising.MaxDrawdown)

	poisoned := analytics.MaxDrawdown([]float64{math.NaN(), 10, math.Inf(1), 5})
	assert.Equal(t, 10.0, poisoned.MaxDrawdown)
	assert.False(t, math.IsNaN(poisoned.MaxDrawdownPercent))
}

func TestComputeRiskRatios_ReferenceSeries(t *testing.T) {
	daily := dailySeries(100, -30, -40, 60)
	ratios := analytics.ComputeRiskRatios(daily, 90, 70, analytics.DefaultTradingDaysPerYear)

	// mean 22.5, population variance 3518.75
	assert.Equal(t, 22.5, ratios.AvgReturn)
	assert.InDelta(t, math.Sqrt(3518.75), ratios.StdDev, 1e-9)
	assert.InDelta(t, 22.5/math.Sqrt(3518.75)*math.Sqrt(252), ratios.SharpeRatio, 1e-9)

	// downside RMS of {-30, -40} = sqrt(1250)
	assert.InDelta(t, math.Sqrt(1250), ratios.DownsideDev, 1e-9)
	assert.InDelta(t, 22.5/math.Sqrt(1250)*math.Sqrt(252), ratios.SortinoRatio, 1e-9)

	assert.InDelta(t, 90.0/70.0, ratios.CalmarRatio, 1e-12)
	assert.Equal(t, ratios.CalmarRatio, ratios.RecoveryFactor)
	assert.InDelta(t, 160.0/70.0, ratios.OmegaRatio, 1e-12)
}

func TestComputeRiskRatios_Degenerate(t *testing.T) {
	empty := analytics.ComputeRiskRatios(nil, 0, 0, 252)
	assert.Equal(t, analytics.RiskRatios{}, empty)

	flat := analytics.ComputeRiskRatios(dailySeries(10, 10, 10), 30, 0, 252)
	assert.Equal(t, 0.0, flat.SharpeRatio, "zero variance")
	assert.Equal(t, 0.0, flat.SortinoRatio, "no negative days")
	assert.Equal(t, 0.0, flat.CalmarRatio, "no drawdown")
	assert.Equal(t, analytics.NoDownside, flat.OmegaRatio)

	zero := analytics.ComputeRiskRatios(dailySeries(0, 0), 0, 0, 0)
	assert.Equal(t, 0.0, zero.OmegaRatio)
}

func TestComputeRiskRatios_CalmarIsAbsolute(t *testing.T) {
	ratios := analytics.ComputeRiskRatios(dailySeries(-50, -25), -75, 75, 252)
	require.Equal(t, 1.0, ratios.CalmarRatio)
	assert.Equal(t, 1.0, ratios.RecoveryFactor)
}

func TestOmega_Threshold(t *testing.T) {
	assert.InDelta(t, 1.0, analytics.Omega([]float64{5, 15}, 10), 1e-12)
	assert.Equal(t, 0.0, analytics.Omega(nil, 0))
}
