// Package report turns raw trades into published metric reports.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/events"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/workers"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Channel names used when publishing reports
const (
	ChannelReports       = "reports"
	ChannelJournals      = "journals"
	ChannelJournalPrefix = "journal:"
)

// Channels lists the channels a journal report is published on
func Channels(report *types.Report) []string {
	return []string{ChannelReports, ChannelJournalPrefix + report.Journal}
}

// Publisher receives every journal report, e.g. the WebSocket hub
type Publisher interface {
	PublishReport(channel string, report *types.Report)
}

// BatchRequest is one independent computation in a batch
type BatchRequest struct {
	ID              string               `json:"id"`
	Trades          []analytics.RawTrade `json:"trades"`
	StartingCapital float64              `json:"startingCapital,omitempty"`
}

// BatchResult is the outcome of one BatchRequest
type BatchResult struct {
	ID     string        `json:"id"`
	Report *types.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Service computes reports. It is safe for concurrent use.
type Service struct {
	logger          *zap.Logger
	calc            *analytics.Calculator
	store           journal.Store
	pool            *workers.Pool
	metrics         *observability.Metrics
	tracing         *observability.Tracing
	events          *events.Bus
	startingCapital float64

	publishers []Publisher
}

// Config wires a Service. Everything but the calculator is optional.
type Config struct {
	Calculator      *analytics.Calculator
	Store           journal.Store
	Pool            *workers.Pool
	Metrics         *observability.Metrics
	Tracing         *observability.Tracing
	Events          *events.Bus
	StartingCapital float64
}

// NewService creates a new report service
func NewService(logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	calc := cfg.Calculator
	if calc == nil {
		calc = analytics.NewCalculator(logger, analytics.DefaultOptions())
	}

	return &Service{
		logger:          logger,
		calc:            calc,
		store:           cfg.Store,
		pool:            cfg.Pool,
		metrics:         cfg.Metrics,
		tracing:         cfg.Tracing,
		events:          cfg.Events,
		startingCapital: cfg.StartingCapital,
	}
}

// AddPublisher registers a sink for journal reports
func (s *Service) AddPublisher(p Publisher) {
	s.publishers = append(s.publishers, p)
}

// Compute builds a report from raw trades. A non-positive startingCapital
// falls back to the service default.
func (s *Service) Compute(ctx context.Context, raws []analytics.RawTrade, startingCapital float64) *types.Report {
	return s.compute(ctx, "request", "", raws, startingCapital)
}

func (s *Service) compute(ctx context.Context, source, name string, raws []analytics.RawTrade, startingCapital float64) *types.Report {
	_, span := s.tracing.StartSpan(ctx, "report.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", source),
		attribute.Int("trades", len(raws)),
	)

	start := time.Now()
	if startingCapital <= 0 {
		startingCapital = s.startingCapital
	}

	trades := analytics.NormalizeAll(raws)
	daily := analytics.AggregateByDay(trades)

	report := &types.Report{
		ID:          uuid.New().String(),
		Journal:     name,
		GeneratedAt: time.Now().UTC(),
		Metrics:     s.calc.CalculateTrades(trades),
		Daily:       daily,
		Equity:      analytics.BuildDailyEquity(daily, startingCapital),
	}
	if startingCapital > 0 {
		curve := append([]float64{startingCapital}, analytics.EquityValues(report.Equity)...)
		dd := analytics.MaxDrawdown(curve)
		report.CapitalDrawdownPercent = decimal.NewFromFloat(dd.MaxDrawdownPercent).Round(2).InexactFloat64()
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveCompute(source, len(raws), elapsed, nil)
	}

	s.logger.Debug("Computed report",
		append([]zap.Field{
			zap.String("id", report.ID),
			zap.String("source", source),
			zap.Int("trades", report.Metrics.TotalTrades),
			zap.Duration("elapsed", elapsed),
		}, observability.TraceFields(ctx)...)...,
	)

	return report
}

// Daily returns only the per-day P&L series
func (s *Service) Daily(ctx context.Context, raws []analytics.RawTrade) []types.DailyPnL {
	_, span := s.tracing.StartSpan(ctx, "report.daily")
	defer span.End()

	return analytics.AggregateByDay(analytics.NormalizeAll(raws))
}

// ComputeJournal loads a stored journal, computes its report and publishes it
func (s *Service) ComputeJournal(ctx context.Context, name string) (*types.Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no journal store configured", journal.ErrJournalNotFound)
	}

	ctx, span := s.tracing.StartSpan(ctx, "report.journal")
	defer span.End()
	span.SetAttributes(attribute.String("journal", name))

	raws, err := s.store.Load(ctx, name)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveCompute("journal", 0, 0, err)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	report := s.compute(ctx, "journal", name, raws, 0)
	s.publish(report)
	return report, nil
}

// ComputeBatch computes independent requests on the worker pool. Results keep
// request order; a failed item carries its error text.
func (s *Service) ComputeBatch(ctx context.Context, requests []BatchRequest) []BatchResult {
	ctx, span := s.tracing.StartSpan(ctx, "report.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("requests", len(requests)))

	out := make([]BatchResult, len(requests))
	for i, req := range requests {
		out[i].ID = req.ID
		if out[i].ID == "" {
			out[i].ID = fmt.Sprintf("%d", i)
		}
	}

	if s.pool == nil {
		for i, req := range requests {
			out[i].Report = s.compute(ctx, "batch", "", req.Trades, req.StartingCapital)
		}
		return out
	}

	results := workers.Map(ctx, s.pool, requests, func(taskCtx context.Context, req BatchRequest) (*types.Report, error) {
		return s.compute(taskCtx, "batch", "", req.Trades, req.StartingCapital), nil
	})

	for i, r := range results {
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			s.logger.Warn("Batch item failed", zap.String("id", out[i].ID), zap.Error(r.Err))
			continue
		}
		out[i].Report = r.Value
	}
	return out
}

// ListJournals returns the stored journal names
func (s *Service) ListJournals(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return []string{}, nil
	}
	return s.store.List(ctx)
}

// ImportJournal stores raw trades under name
func (s *Service) ImportJournal(ctx context.Context, name string, raws []analytics.RawTrade) (*journal.Metadata, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no journal store configured")
	}

	meta, err := s.store.Save(ctx, name, raws)
	if err != nil {
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	s.logger.Info("Imported journal",
		zap.String("journal", meta.Name),
		zap.String("importId", meta.ImportID),
		zap.Int("trades", meta.TradeCount),
	)
	if s.events != nil {
		s.events.Publish(events.NewImportEvent(meta.Name, meta.ImportID, meta.TradeCount))
	}
	return meta, nil
}

func (s *Service) publish(report *types.Report) {
	if s.events != nil {
		s.events.Publish(events.NewReportEvent(report))
	}
	for _, p := range s.publishers {
		for _, channel := range Channels(report) {
			p.PublishReport(channel, report)
		}
	}
}
