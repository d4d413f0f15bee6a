package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/atlas-desktop/tradestats/pkg/utils"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// encode writes v as JSON or YAML
func encode(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode values", format)
	}
}

// renderReport prints a report; the daily series is table-only opt-in
func renderReport(w io.Writer, format outputFormat, rep *types.Report, daily bool) error {
	if format != formatTable {
		if !daily {
			trimmed := *rep
			trimmed.Daily, trimmed.Equity = nil, nil
			rep = &trimmed
		}
		return encode(w, format, rep)
	}

	if rep.Journal != "" {
		fmt.Fprintf(w, "Journal: %s\n", rep.Journal)
	}
	renderMetricsTable(w, rep.Metrics)
	if rep.CapitalDrawdownPercent > 0 {
		fmt.Fprintf(w, "Drawdown on capital: %s\n", utils.FormatPercent(rep.CapitalDrawdownPercent))
	}

	if daily && len(rep.Daily) > 0 {
		fmt.Fprintln(w)
		renderDailyTable(w, rep.Daily)
	}
	return nil
}

func renderMetricsTable(w io.Writer, m *types.AdvancedMetrics) {
	ratio := func(v float64) string { return utils.FormatRatio(v, analytics.NoDownside) }
	period := "-"
	if m.StartDate != "" {
		period = m.StartDate + " .. " + m.EndDate
	}

	rows := [][]string{
		{"Period", period},
		{"Trades", strconv.Itoa(m.TotalTrades)},
		{"Wins / Losses", fmt.Sprintf("%d / %d (%d break-even)", m.WinningTrades, m.LosingTrades, m.BreakEvenTrades)},
		{"Win rate", utils.FormatPercent(m.WinRate)},
		{"Net P&L", utils.FormatMoney(m.TotalNetPnL)},
		{"Gross P&L", utils.FormatMoney(m.TotalGrossPnL)},
		{"Charges", utils.FormatMoney(m.TotalCharges)},
		{"Avg trade", utils.FormatMoney(m.AvgTradePnL)},
		{"Avg win / loss", utils.FormatMoney(m.AvgWin) + " / " + utils.FormatMoney(m.AvgLoss)},
		{"Largest win / loss", utils.FormatMoney(m.LargestWin) + " / " + utils.FormatMoney(m.LargestLoss)},
		{"Profit factor", ratio(m.ProfitFactor)},
		{"Expectancy", utils.FormatMoney(m.Expectancy)},
		{"Payoff ratio", ratio(m.PayoffRatio)},
		{"Kelly", utils.FormatPercent(m.KellyCriterion)},
		{"Max drawdown", fmt.Sprintf("%s (%s)", utils.FormatMoney(m.MaxDrawdown), utils.FormatPercent(m.MaxDrawdownPercent))},
		{"Drawdown duration", utils.FormatDays(m.MaxDrawdownDuration)},
		{"Current drawdown", utils.FormatMoney(m.CurrentDrawdown)},
		{"Sharpe", ratio(m.SharpeRatio)},
		{"Sortino", ratio(m.SortinoRatio)},
		{"Calmar", ratio(m.CalmarRatio)},
		{"Omega", ratio(m.OmegaRatio)},
		{"Current streak", utils.FormatStreak(m.CurrentStreak)},
		{"Longest streaks", fmt.Sprintf("%dW / %dL", m.LongestWinStreak, m.LongestLossStreak)},
		{"Best / worst day", utils.FormatMoney(m.BestDay) + " / " + utils.FormatMoney(m.WorstDay)},
		{"Trading days", strconv.Itoa(m.TradingDays)},
		{"Intraday", fmt.Sprintf("%d (%s)", m.IntradayTrades, utils.FormatPercent(m.IntradayPercent))},
	}

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	for _, row := range rows {
		table.Append(row[0], row[1])
	}
	table.Render()
}

func renderDailyTable(w io.Writer, daily []types.DailyPnL) {
	table := tablewriter.NewWriter(w)
	table.Header("Date", "Trades", "Net P&L", "Charges", "Cumulative")
	for _, d := range daily {
		table.Append(
			d.Date,
			strconv.Itoa(d.TradesCount),
			utils.FormatMoney(d.PnL),
			utils.FormatMoney(d.Charges),
			utils.FormatMoney(d.Cumulative),
		)
	}
	table.Render()
}

func renderJournals(w io.Writer, format outputFormat, names []string) error {
	if format != formatTable {
		return encode(w, format, map[string][]string{"journals": names})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Journal")
	for _, name := range names {
		table.Append(name)
	}
	table.Render()
	return nil
}

func renderImport(w io.Writer, format outputFormat, meta *journal.Metadata) error {
	if format != formatTable {
		return encode(w, format, meta)
	}
	fmt.Fprintf(w, "Imported %d trades into %q (import %s)\n", meta.TradeCount, meta.Name, meta.ImportID)
	return nil
}
