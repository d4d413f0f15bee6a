package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/config"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/spf13/cobra"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute metrics for a trade file",
	Long: `Reads a JSON array or CSV file of trades and prints the metrics.

Use --file - to read JSON from standard input.

Example:
  tradestats compute --file trades.csv
  tradestats compute --file trades.json --format yaml --daily
  cat trades.json | tradestats compute --file - --analytics.streakOrder oldest`,
	RunE: runCompute,
}

var (
	computeFile   string
	computeFormat string
	computeDaily  bool
)

func init() {
	rootCmd.AddCommand(computeCmd)

	defaults := config.Default()
	computeCmd.Flags().StringVarP(&computeFile, "file", "f", "", "trade file (.json, .csv or - for stdin)")
	computeCmd.Flags().StringVar(&computeFormat, "format", string(formatTable), "output format (table|json|yaml)")
	computeCmd.Flags().BoolVar(&computeDaily, "daily", false, "include the daily P&L series")
	computeCmd.Flags().String("analytics.streakOrder", defaults.Analytics.StreakOrder, "trade list order (newest|oldest)")
	computeCmd.Flags().Float64("analytics.startingCapital", 0, "starting capital for the equity curve")
	_ = computeCmd.MarkFlagRequired("file")
}

func runCompute(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(computeFormat)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	raws, err := readTradeFile(cmd.InOrStdin(), computeFile)
	if err != nil {
		return err
	}

	svc, err := newReportService(logger, cfg, nil)
	if err != nil {
		return err
	}
	rep := svc.Compute(cmd.Context(), raws, 0)

	return renderReport(cmd.OutOrStdout(), format, rep, computeDaily)
}

// readTradeFile decodes path by extension; "-" reads JSON from stdin.
func readTradeFile(stdin io.Reader, path string) ([]analytics.RawTrade, error) {
	if path == "-" {
		return journal.DecodeJSON(stdin)
	}

	format, err := journal.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade file: %w", err)
	}
	return journal.Decode(format, data)
}
