package report_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/events"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/atlas-desktop/tradestats/internal/workers"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
}

func (p *recordingPublisher) PublishReport(channel string, _ *types.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
}

func raws() []analytics.RawTrade {
	return []analytics.RawTrade{
		{"date": "2024-01-02", "netPnl": -30},
		{"date": "2024-01-01", "netPnl": 100},
	}
}

func newService(t *testing.T) (*report.Service, *observability.Metrics, journal.Store) {
	t.Helper()

	store, err := journal.NewSQLiteStore(zap.NewNop(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pool := workers.NewPool(zap.NewNop(), &workers.PoolConfig{Name: "reports", NumWorkers: 2, QueueSize: 16, TaskTimeout: time.Second})
	pool.Start()
	t.Cleanup(func() { pool.Stop() })

	metrics := observability.NewMetrics()
	svc := report.NewService(zap.NewNop(), report.Config{
		Store:           store,
		Pool:            pool,
		Metrics:         metrics,
		StartingCapital: 1000,
	})
	return svc, metrics, store
}

func TestService_Compute(t *testing.T) {
	svc, metrics, _ := newService(t)

	rep := svc.Compute(context.Background(), raws(), 0)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 70.0, rep.Metrics.TotalNetPnL)
	require.Len(t, rep.Daily, 2)
	require.Len(t, rep.Equity, 2)
	assert.Equal(t, 1100.0, rep.Equity[0].Equity)
	assert.Equal(t, 1070.0, rep.Equity[1].Equity)
	assert.Equal(t, 2.73, rep.CapitalDrawdownPercent)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Computations.WithLabelValues("request", "ok")))

	custom := svc.Compute(context.Background(), raws(), 50)
	assert.Equal(t, 150.0, custom.Equity[0].Equity)
	assert.Equal(t, 20.0, custom.CapitalDrawdownPercent)
}

func TestService_ComputeEmpty(t *testing.T) {
	svc := report.NewService(nil, report.Config{})

	rep := svc.Compute(context.Background(), nil, 0)

	assert.Equal(t, types.EmptyMetrics(), rep.Metrics)
	assert.Empty(t, rep.Daily)
}

func TestService_ComputeJournalPublishes(t *testing.T) {
	svc, _, store := newService(t)
	pub := &recordingPublisher{}
	svc.AddPublisher(pub)

	_, err := store.Save(context.Background(), "main", raws())
	require.NoError(t, err)

	rep, err := svc.ComputeJournal(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "main", rep.Journal)
	assert.Equal(t, 2, rep.Metrics.TotalTrades)
	assert.Equal(t, []string{report.ChannelReports, "journal:main"}, pub.channels)

	_, err = svc.ComputeJournal(context.Background(), "missing")
	assert.ErrorIs(t, err, journal.ErrJournalNotFound)
}

func TestService_ComputeBatch(t *testing.T) {
	svc, _, _ := newService(t)

	results := svc.ComputeBatch(context.Background(), []report.BatchRequest{
		{ID: "a", Trades: raws()},
		{Trades: nil},
		{ID: "c", Trades: raws()[:1]},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 70.0, results[0].Report.Metrics.TotalNetPnL)
	assert.Equal(t, "1", results[1].ID)
	assert.Equal(t, 0, results[1].Report.Metrics.TotalTrades)
	assert.Equal(t, -30.0, results[2].Report.Metrics.TotalNetPnL)
	for _, r := range results {
		assert.Empty(t, r.Error)
	}
}

func TestService_BatchWithoutPoolRunsInline(t *testing.T) {
	svc := report.NewService(zap.NewNop(), report.Config{})

	results := svc.ComputeBatch(context.Background(), []report.BatchRequest{{ID: "x", Trades: raws()}})

	require.Len(t, results, 1)
	assert.Equal(t, 70.0, results[0].Report.Metrics.TotalNetPnL)
}

func TestService_ImportAndList(t *testing.T) {
	svc, _, _ := newService(t)

	meta, err := svc.ImportJournal(context.Background(), "swing", raws())
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TradeCount)

	names, err := svc.ListJournals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"swing"}, names)

	daily := svc.Daily(context.Background(), raws())
	assert.Len(t, daily, 2)
}

func TestService_EmitsEvents(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), events.BusConfig{NumWorkers: 1, BufferSize: 8})
	defer bus.Stop()

	got := make(chan events.Event, 2)
	bus.SubscribeAll(func(e events.Event) error {
		got <- e
		return nil
	})

	store, err := journal.NewSQLiteStore(zap.NewNop(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	svc := report.NewService(zap.NewNop(), report.Config{Store: store, Events: bus})
	_, err = svc.ImportJournal(context.Background(), "main", raws())
	require.NoError(t, err)
	_, err = svc.ComputeJournal(context.Background(), "main")
	require.NoError(t, err)

	next := func() events.Event {
		select {
		case e := <-got:
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
			return nil
		}
	}

	imported, ok := next().(*events.ImportEvent)
	require.True(t, ok)
	assert.Equal(t, "main", imported.Journal)
	assert.Equal(t, 2, imported.TradeCount)

	computed, ok := next().(*events.ReportEvent)
	require.True(t, ok)
	assert.Equal(t, "main", computed.Journal)
	assert.Equal(t, 70.0, computed.Report.Metrics.TotalNetPnL)
}
