// Package commands implements the tradestats command line.
package commands

import (
	"fmt"

	"github.com/atlas-desktop/tradestats/internal/config"
	"github.com/atlas-desktop/tradestats/internal/logging"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configFile string
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tradestats",
	Short: "Trading performance metrics engine",
	Long: `tradestats turns a list of closed trades into performance statistics:
win rate, profit factor, drawdowns, Sharpe/Sortino/Calmar/Omega ratios,
streaks and holding-period breakdowns.

Configuration is read from defaults, an optional YAML file, TRADESTATS_*
environment variables and flags, in increasing precedence.

Examples:
  tradestats compute --file trades.csv
  tradestats journal import main trades.json
  tradestats serve --server.port 9090`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaults := config.Default()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log.level", defaults.Log.Level, "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log.encoding", defaults.Log.Encoding, "log encoding (console|json)")
}

// setup loads the configuration for cmd and builds the logger
func setup(cmd *cobra.Command) (*types.Config, *zap.Logger, error) {
	cfg, err := config.Load(config.Options{
		File:    configFile,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
