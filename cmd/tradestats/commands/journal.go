package commands

import (
	"github.com/atlas-desktop/tradestats/internal/config"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// journalCmd groups the journal store commands
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage stored trade journals",
	Long: `Lists, imports and reports on the journals kept in the configured store
(a directory of JSON files, or SQLite when journal.sqlitePath is set).

Example:
  tradestats journal list
  tradestats journal import swing trades.csv
  tradestats journal show swing --format json`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored journals",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalImportCmd = &cobra.Command{
	Use:   "import <name> <file>",
	Short: "Import a JSON or CSV trade file as a journal",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalImport,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Compute metrics for a stored journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalFormat string
	journalDaily  bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalImportCmd, journalShowCmd)

	defaults := config.Default()
	journalCmd.PersistentFlags().String("journal.dataDir", defaults.Journal.DataDir, "journal directory")
	journalCmd.PersistentFlags().String("journal.sqlitePath", "", "SQLite journal database")
	journalCmd.PersistentFlags().StringVar(&journalFormat, "format", string(formatTable), "output format (table|json|yaml)")
	journalShowCmd.Flags().BoolVar(&journalDaily, "daily", false, "include the daily P&L series")
}

// withJournals runs fn against a report service backed by the configured store
func withJournals(cmd *cobra.Command, fn func(svc *report.Service, format outputFormat) error) error {
	format, err := parseOutputFormat(journalFormat)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := journal.Open(logger, cfg.Journal.DataDir, cfg.Journal.SQLitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close journal store", zap.Error(err))
		}
	}()

	svc, err := newReportService(logger, cfg, store)
	if err != nil {
		return err
	}
	return fn(svc, format)
}

func runJournalList(cmd *cobra.Command, args []string) error {
	return withJournals(cmd, func(svc *report.Service, format outputFormat) error {
		names, err := svc.ListJournals(cmd.Context())
		if err != nil {
			return err
		}
		return renderJournals(cmd.OutOrStdout(), format, names)
	})
}

func runJournalImport(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	if err := journal.ValidateName(name); err != nil {
		return err
	}

	return withJournals(cmd, func(svc *report.Service, format outputFormat) error {
		raws, err := readTradeFile(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		meta, err := svc.ImportJournal(cmd.Context(), name, raws)
		if err != nil {
			return err
		}
		return renderImport(cmd.OutOrStdout(), format, meta)
	})
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	return withJournals(cmd, func(svc *report.Service, format outputFormat) error {
		rep, err := svc.ComputeJournal(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderReport(cmd.OutOrStdout(), format, rep, journalDaily)
	})
}
