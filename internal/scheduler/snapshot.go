package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/report"
	"go.uber.org/zap"
)

// SnapshotJob recomputes a set of journals and publishes their reports
type SnapshotJob struct {
	logger   *zap.Logger
	reports  *report.Service
	metrics  *observability.Metrics
	schedule string
	journals []string
}

// NewSnapshotJob creates the journal snapshot job. An empty journal list
// means every stored journal.
func NewSnapshotJob(logger *zap.Logger, reports *report.Service, metrics *observability.Metrics, schedule string, journals []string) *SnapshotJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotJob{
		logger:   logger,
		reports:  reports,
		metrics:  metrics,
		schedule: schedule,
		journals: journals,
	}
}

func (j *SnapshotJob) Name() string     { return "journal_snapshot" }
func (j *SnapshotJob) Schedule() string { return j.schedule }

// Run computes every journal; one failing journal does not stop the others.
func (j *SnapshotJob) Run(ctx context.Context) error {
	names := j.journals
	if len(names) == 0 {
		var err error
		if names, err = j.reports.ListJournals(ctx); err != nil {
			j.observe(err)
			return fmt.Errorf("failed to list journals: %w", err)
		}
	}

	var errs []error
	for _, name := range names {
		rep, err := j.reports.ComputeJournal(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("journal %s: %w", name, err))
			continue
		}

		m := rep.Metrics
		j.logger.Info("Journal snapshot",
			zap.String("journal", name),
			zap.Int("trades", m.TotalTrades),
			zap.Float64("netPnl", m.TotalNetPnL),
			zap.Float64("winRate", m.WinRate),
			zap.Float64("maxDrawdown", m.MaxDrawdown),
			zap.Float64("sharpe", m.SharpeRatio),
		)
	}

	err := errors.Join(errs...)
	j.observe(err)
	return err
}

func (j *SnapshotJob) observe(err error) {
	if j.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	j.metrics.SnapshotRuns.WithLabelValues(result).Inc()
}
