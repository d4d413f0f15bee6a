package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/api"
	"github.com/atlas-desktop/tradestats/internal/config"
	"github.com/atlas-desktop/tradestats/internal/events"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/atlas-desktop/tradestats/internal/scheduler"
	"github.com/atlas-desktop/tradestats/internal/workers"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API",
	Long: `Starts the metrics API server.

Endpoints:
  GET  /health                       - Health check
  GET  /metrics                      - Prometheus metrics
  POST /api/v1/metrics               - Compute metrics for a trade list
  POST /api/v1/metrics/batch         - Compute several trade lists
  POST /api/v1/daily                 - Daily P&L series
  GET  /api/v1/journals              - List stored journals
  PUT  /api/v1/journals/{name}       - Import a journal (JSON or CSV)
  GET  /api/v1/journals/{name}/metrics
  WS   /ws                           - Live journal reports

Example:
  tradestats serve
  tradestats serve --server.port 9090 --schedule.snapshotCron "*/15 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := config.Default()
	serveCmd.Flags().String("server.host", defaults.Server.Host, "listen host")
	serveCmd.Flags().Int("server.port", defaults.Server.Port, "listen port")
	serveCmd.Flags().String("journal.dataDir", defaults.Journal.DataDir, "journal directory")
	serveCmd.Flags().String("journal.sqlitePath", "", "SQLite journal database (overrides journal.dataDir)")
	serveCmd.Flags().String("schedule.snapshotCron", "", "cron expression for journal snapshots (empty disables)")
	serveCmd.Flags().Bool("tracing.enabled", false, "export OpenTelemetry spans to stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting tradestats",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("dataDir", cfg.Journal.DataDir),
		zap.String("sqlite", cfg.Journal.SQLitePath),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := journal.Open(logger, cfg.Journal.DataDir, cfg.Journal.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open journal store: %w", err)
	}
	defer store.Close()

	metrics := observability.NewMetrics()

	tracing, err := observability.NewTracing(cfg.Tracing, os.Stderr)
	if err != nil {
		return err
	}

	pool := workers.NewPool(logger, &workers.PoolConfig{
		Name:        "compute",
		NumWorkers:  cfg.Workers.NumWorkers,
		QueueSize:   cfg.Workers.QueueSize,
		TaskTimeout: cfg.Workers.TaskTimeout,
		OnTaskDone: func(outcome workers.Outcome, _ time.Duration) {
			metrics.PoolTasks.WithLabelValues(string(outcome)).Inc()
		},
	})
	pool.Start()

	bus := events.NewBus(logger, events.DefaultBusConfig())

	reports, err := newReportService(logger, cfg, store, withPool(pool), withObservability(metrics, tracing), withEvents(bus))
	if err != nil {
		return err
	}

	hub := api.NewHub(logger, metrics)
	bus.SubscribeAll(hub.HandleEvent)
	go hub.Run(ctx)

	var sched *scheduler.Scheduler
	if cfg.Schedule.SnapshotCron != "" {
		sched = scheduler.New(logger, cfg.Workers.TaskTimeout)
		job := scheduler.NewSnapshotJob(logger, reports, metrics, cfg.Schedule.SnapshotCron, cfg.Schedule.Journals)
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
	}

	server := api.NewServer(logger, &cfg.Server, reports, hub, metrics)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	logger.Info("Server started",
		zap.String("http", fmt.Sprintf("http://%s:%d/api/v1", cfg.Server.Host, cfg.Server.Port)),
		zap.String("ws", fmt.Sprintf("ws://%s:%d%s", cfg.Server.Host, cfg.Server.Port, cfg.Server.WebSocketPath)),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-serverErr:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	bus.Stop()
	if err := pool.Stop(); err != nil {
		logger.Error("Error stopping worker pool", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing spans", zap.Error(err))
	}

	logger.Info("Server stopped")
	return err
}

type serviceOption func(*report.Config)

func withPool(pool *workers.Pool) serviceOption {
	return func(c *report.Config) { c.Pool = pool }
}

func withEvents(bus *events.Bus) serviceOption {
	return func(c *report.Config) { c.Events = bus }
}

func withObservability(metrics *observability.Metrics, tracing *observability.Tracing) serviceOption {
	return func(c *report.Config) {
		c.Metrics = metrics
		c.Tracing = tracing
	}
}

// newReportService builds the report service from the analytics section
func newReportService(logger *zap.Logger, cfg *types.Config, store journal.Store, opts ...serviceOption) (*report.Service, error) {
	analyticsOpts, err := config.AnalyticsOptions(cfg.Analytics)
	if err != nil {
		return nil, err
	}

	rc := report.Config{
		Calculator:      analytics.NewCalculator(logger, analyticsOpts),
		Store:           store,
		StartingCapital: cfg.Analytics.StartingCapital,
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return report.NewService(logger, rc), nil
}
