package analytics

import (
	"github.com/atlas-desktop/tradestats/pkg/types"
	"go.uber.org/zap"
)

// Options are the policy choices of a Calculator
type Options struct {
	// Order is the sequencing of the input slice, used for the current streak.
	Order Order
	// TradingDaysPerYear annualizes Sharpe and Sortino.
	TradingDaysPerYear float64
}

// DefaultOptions returns newest-first ordering and 252 trading days.
func DefaultOptions() Options {
	return Options{
		Order:              NewestFirst,
		TradingDaysPerYear: DefaultTradingDaysPerYear,
	}
}

// Calculator assembles AdvancedMetrics. It keeps no state between calls and
// is safe for concurrent use.
type Calculator struct {
	logger *zap.Logger
	opts   Options
}

// NewCalculator creates a new metrics calculator
func NewCalculator(logger *zap.Logger, opts Options) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TradingDaysPerYear <= 0 {
		opts.TradingDaysPerYear = DefaultTradingDaysPerYear
	}
	return &Calculator{
		logger: logger,
		opts:   opts,
	}
}

// Options returns the calculator's policy
func (c *Calculator) Options() Options {
	return c.opts
}

// CalculateAdvancedMetrics computes metrics with the default options.
func CalculateAdvancedMetrics(raws []RawTrade) *types.AdvancedMetrics {
	return NewCalculator(nil, DefaultOptions()).Calculate(raws)
}

// Calculate normalizes raw records and computes all metrics.
func (c *Calculator) Calculate(raws []RawTrade) *types.AdvancedMetrics {
	return c.CalculateTrades(NormalizeAll(raws))
}

// CalculateTrades computes all metrics over already normalized trades.
// An empty slice yields EmptyMetrics.
func (c *Calculator) CalculateTrades(trades []types.Trade) *types.AdvancedMetrics {
	if len(trades) == 0 {
		return types.EmptyMetrics()
	}

	daily := AggregateByDay(trades)
	return c.assemble(trades, daily)
}

func (c *Calculator) assemble(trades []types.Trade, daily []types.DailyPnL) *types.AdvancedMetrics {
	core := ComputeCoreStats(trades)
	streaks := Streaks(trades, c.opts.Order)
	extremes := Extremes(trades, daily)
	durations := ClassifyDurations(trades)
	drawdown := AnalyzeDrawdown(daily)
	ratios := ComputeRiskRatios(daily, core.TotalNetPnL, drawdown.MaxDrawdown, c.opts.TradingDaysPerYear)
	startDate, endDate := dateRange(daily)

	c.logger.Debug("computed trade metrics",
		zap.Int("trades", len(trades)),
		zap.Int("days", len(daily)),
		zap.Int("undated", len(trades)-datedCount(daily)),
	)

	return &types.AdvancedMetrics{
		TotalTrades:     core.TotalTrades,
		WinningTrades:   core.WinningTrades,
		LosingTrades:    core.LosingTrades,
		BreakEvenTrades: core.BreakEvenTrades,
		WinRate:         round(core.WinRate),

		TotalNetPnL:   round(core.TotalNetPnL),
		TotalGrossPnL: round(core.TotalGrossPnL),
		TotalCharges:  round(core.TotalCharges),
		AvgTradePnL:   round(core.AvgTradePnL),
		AvgWin:        round(core.AvgWin),
		AvgLoss:       round(core.AvgLoss),
		LargestWin:    round(extremes.LargestWin),
		LargestLoss:   round(extremes.LargestLoss),

		ProfitFactor:   round(core.ProfitFactor),
		Expectancy:     round(core.Expectancy),
		PayoffRatio:    round(core.PayoffRatio),
		KellyCriterion: round(core.KellyCriterion),

		MaxDrawdown:         round(drawdown.MaxDrawdown),
		MaxDrawdownPercent:  round(drawdown.MaxDrawdownPercent),
		MaxDrawdownDuration: drawdown.MaxDrawdownDuration,
		CurrentDrawdown:     round(drawdown.CurrentDrawdown),

		AvgDailyPnL:    round(ratios.AvgReturn),
		DailyStdDev:    round(ratios.StdDev),
		SharpeRatio:    round(ratios.SharpeRatio),
		SortinoRatio:   round(ratios.SortinoRatio),
		CalmarRatio:    round(ratios.CalmarRatio),
		OmegaRatio:     round(ratios.OmegaRatio),
		RecoveryFactor: round(ratios.RecoveryFactor),

		CurrentStreak:     streaks.Current,
		LongestWinStreak:  streaks.LongestWin,
		LongestLossStreak: streaks.LongestLoss,
		BestDay:           round(extremes.BestDay),
		WorstDay:          round(extremes.WorstDay),
		TradingDays:       len(daily),

		IntradayTrades:   durations.IntradayTrades,
		IntradayPercent:  round(durations.IntradayPercent),
		AvgTradeDuration: round(durations.AvgTradeDuration),
		LongestTrade:     round(durations.LongestTrade),

		BestTrade:  extremes.BestTrade,
		WorstTrade: extremes.WorstTrade,
		StartDate:  startDate,
		EndDate:    endDate,
	}
}

func datedCount(daily []types.DailyPnL) int {
	n := 0
	for _, day := range daily {
		n += day.TradesCount
	}
	return n
}
