// Package types provides shared type definitions for the trade statistics backend.
package types

import "time"

// Trade is the canonical form of one closed position or fill.
// Numeric fields are always finite; text fields are never nil.
type Trade struct {
	TradeDate string  `json:"trade_date" yaml:"trade_date"`
	Symbol    string  `json:"symbol" yaml:"symbol"`
	TradeType string  `json:"trade_type" yaml:"trade_type"`
	Segment   string  `json:"segment" yaml:"segment"`
	Quantity  float64 `json:"quantity" yaml:"quantity"`
	BuyValue  float64 `json:"buy_value" yaml:"buy_value"`
	SellValue float64 `json:"sell_value" yaml:"sell_value"`
	GrossPnL  float64 `json:"gross_pnl" yaml:"gross_pnl"`
	Charges   float64 `json:"charges" yaml:"charges"`
	NetPnL    float64 `json:"net_pnl" yaml:"net_pnl"`

	// Raw is the source record, kept for traceability. Non-finite floats are
	// replaced by their string form.
	Raw map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// IsWin reports whether the trade closed with a positive net P&L.
// Break-even trades are not wins.
func (t Trade) IsWin() bool {
	return t.NetPnL > 0
}

// DailyPnL is the per-day bucket of a trade set
type DailyPnL struct {
	Date        string  `json:"date" yaml:"date"`
	PnL         float64 `json:"pnl" yaml:"pnl"`
	Cumulative  float64 `json:"cumulative" yaml:"cumulative"`
	GrossPnL    float64 `json:"gross_pnl" yaml:"gross_pnl"`
	Charges     float64 `json:"charges" yaml:"charges"`
	TradesCount int     `json:"trades_count" yaml:"trades_count"`
}

// EquityPoint is one point of a daily equity curve
type EquityPoint struct {
	Date   string  `json:"date" yaml:"date"`
	Equity float64 `json:"equity" yaml:"equity"`
}

// AdvancedMetrics is the flat result of one metrics computation.
// Float fields are rounded to two decimals.
type AdvancedMetrics struct {
	// Trade counts
	TotalTrades     int     `json:"totalTrades" yaml:"totalTrades"`
	WinningTrades   int     `json:"winningTrades" yaml:"winningTrades"`
	LosingTrades    int     `json:"losingTrades" yaml:"losingTrades"`
	BreakEvenTrades int     `json:"breakEvenTrades" yaml:"breakEvenTrades"`
	WinRate         float64 `json:"winRate" yaml:"winRate"`

	// P&L
	TotalNetPnL   float64 `json:"totalNetPnL" yaml:"totalNetPnL"`
	TotalGrossPnL float64 `json:"totalGrossPnL" yaml:"totalGrossPnL"`
	TotalCharges  float64 `json:"totalCharges" yaml:"totalCharges"`
	AvgTradePnL   float64 `json:"avgTradePnL" yaml:"avgTradePnL"`
	AvgWin        float64 `json:"avgWin" yaml:"avgWin"`
	AvgLoss       float64 `json:"avgLoss" yaml:"avgLoss"`
	LargestWin    float64 `json:"largestWin" yaml:"largestWin"`
	LargestLoss   float64 `json:"largestLoss" yaml:"largestLoss"`

	// Edge
	ProfitFactor   float64 `json:"profitFactor" yaml:"profitFactor"`
	Expectancy     float64 `json:"expectancy" yaml:"expectancy"`
	PayoffRatio    float64 `json:"payoffRatio" yaml:"payoffRatio"`
	KellyCriterion float64 `json:"kellyCriterion" yaml:"kellyCriterion"`

	// Drawdown
	MaxDrawdown         float64 `json:"maxDrawdown" yaml:"maxDrawdown"`
	MaxDrawdownPercent  float64 `json:"maxDrawdownPercent" yaml:"maxDrawdownPercent"`
	MaxDrawdownDuration int     `json:"maxDrawdownDuration" yaml:"maxDrawdownDuration"`
	CurrentDrawdown     float64 `json:"currentDrawdown" yaml:"currentDrawdown"`

	// Risk-adjusted returns
	AvgDailyPnL    float64 `json:"avgDailyPnL" yaml:"avgDailyPnL"`
	DailyStdDev    float64 `json:"dailyStdDev" yaml:"dailyStdDev"`
	SharpeRatio    float64 `json:"sharpeRatio" yaml:"sharpeRatio"`
	SortinoRatio   float64 `json:"sortinoRatio" yaml:"sortinoRatio"`
	CalmarRatio    float64 `json:"calmarRatio" yaml:"calmarRatio"`
	OmegaRatio     float64 `json:"omegaRatio" yaml:"omegaRatio"`
	RecoveryFactor float64 `json:"recoveryFactor" yaml:"recoveryFactor"`

	// Streaks and extremes
	CurrentStreak     int     `json:"currentStreak" yaml:"currentStreak"`
	LongestWinStreak  int     `json:"longestWinStreak" yaml:"longestWinStreak"`
	LongestLossStreak int     `json:"longestLossStreak" yaml:"longestLossStreak"`
	BestDay           float64 `json:"bestDay" yaml:"bestDay"`
	WorstDay          float64 `json:"worstDay" yaml:"worstDay"`
	TradingDays       int     `json:"tradingDays" yaml:"tradingDays"`

	// Holding period
	IntradayTrades   int     `json:"intradayTrades" yaml:"intradayTrades"`
	IntradayPercent  float64 `json:"intradayPercent" yaml:"intradayPercent"`
	AvgTradeDuration float64 `json:"avgTradeDuration" yaml:"avgTradeDuration"`
	LongestTrade     float64 `json:"longestTrade" yaml:"longestTrade"`

	BestTrade  *Trade `json:"bestTrade" yaml:"bestTrade"`
	WorstTrade *Trade `json:"worstTrade" yaml:"worstTrade"`
	StartDate  string `json:"startDate" yaml:"startDate"`
	EndDate    string `json:"endDate" yaml:"endDate"`
}

// EmptyMetrics returns the result defined for an empty trade list
func EmptyMetrics() *AdvancedMetrics {
	return &AdvancedMetrics{}
}

// Report wraps one metrics computation with the series it was derived from
type Report struct {
	ID          string           `json:"id" yaml:"id"`
	Journal     string           `json:"journal,omitempty" yaml:"journal,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generatedAt"`
	Metrics     *AdvancedMetrics `json:"metrics" yaml:"metrics"`
	Daily       []DailyPnL       `json:"daily" yaml:"daily"`
	Equity      []EquityPoint    `json:"equity" yaml:"equity"`

	// CapitalDrawdownPercent is the deepest equity decline relative to its
	// peak, with the starting capital as the first point. Zero without capital.
	CapitalDrawdownPercent float64 `json:"capitalDrawdownPercent" yaml:"capitalDrawdownPercent"`
}
