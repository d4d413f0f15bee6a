package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/atlas-desktop/tradestats/internal/scheduler"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Schedule() string              { return j.schedule }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

type countingPublisher struct{ reports int }

func (p *countingPublisher) PublishReport(channel string, _ *types.Report) {
	if channel == report.ChannelReports {
		p.reports++
	}
}

func TestScheduler_AddRunHistory(t *testing.T) {
	s := scheduler.New(zap.NewNop(), 0)

	calls := 0
	require.NoError(t, s.AddJob(funcJob{name: "count", schedule: "@hourly", run: func(context.Context) error {
		calls++
		if calls == 2 {
			return errors.New("second run fails")
		}
		return nil
	}}))

	assert.Error(t, s.AddJob(funcJob{name: "count", schedule: "@hourly"}), "duplicate name")
	assert.Error(t, s.AddJob(funcJob{name: "bad", schedule: "not a cron"}))
	assert.Equal(t, []string{"count"}, s.Jobs())

	first, err := s.RunNow("count")
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := s.RunNow("count")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "second run fails", second.Error)

	assert.Len(t, s.History("count"), 2)

	_, err = s.RunNow("missing")
	assert.Error(t, err)

	s.Start()
	s.Stop()
}

func TestSnapshotJob(t *testing.T) {
	ctx := context.Background()
	store, err := journal.NewSQLiteStore(zap.NewNop(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	for _, name := range []string{"main", "swing"} {
		_, err := store.Save(ctx, name, []analytics.RawTrade{{"date": "2024-01-01", "netPnl": 10}})
		require.NoError(t, err)
	}

	metrics := observability.NewMetrics()
	reports := report.NewService(zap.NewNop(), report.Config{Store: store, Metrics: metrics})
	pub := &countingPublisher{}
	reports.AddPublisher(pub)

	all := scheduler.NewSnapshotJob(zap.NewNop(), reports, metrics, "@daily", nil)
	assert.Equal(t, "journal_snapshot", all.Name())
	assert.Equal(t, "@daily", all.Schedule())
	require.NoError(t, all.Run(ctx))
	assert.Equal(t, 2, pub.reports)

	some := scheduler.NewSnapshotJob(zap.NewNop(), reports, metrics, "@daily", []string{"main", "ghost"})
	err = some.Run(ctx)
	assert.ErrorIs(t, err, journal.ErrJournalNotFound)
	assert.Equal(t, 3, pub.reports, "the healthy journal still publishes")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotRuns.WithLabelValues("error")))
}
