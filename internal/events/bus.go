// Package events routes domain events between the report service and its
// consumers.
package events

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType represents different event types
type EventType string

const (
	EventTypeReportComputed  EventType = "report.computed"
	EventTypeJournalImported EventType = "journal.imported"
)

// Event is the base interface for all events
type Event interface {
	GetType() EventType
	GetTimestamp() time.Time
	GetID() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *BaseEvent) GetType() EventType      { return e.Type }
func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *BaseEvent) GetID() string           { return e.ID }

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// ReportEvent carries a freshly computed journal report
type ReportEvent struct {
	BaseEvent
	Journal string        `json:"journal"`
	Report  *types.Report `json:"report"`
}

// NewReportEvent creates a report.computed event
func NewReportEvent(report *types.Report) *ReportEvent {
	return &ReportEvent{
		BaseEvent: newBaseEvent(EventTypeReportComputed),
		Journal:   report.Journal,
		Report:    report,
	}
}

// ImportEvent announces a stored journal
type ImportEvent struct {
	BaseEvent
	Journal    string `json:"journal"`
	ImportID   string `json:"importId"`
	TradeCount int    `json:"tradeCount"`
}

// NewImportEvent creates a journal.imported event
func NewImportEvent(journal, importID string, tradeCount int) *ImportEvent {
	return &ImportEvent{
		BaseEvent:  newBaseEvent(EventTypeJournalImported),
		Journal:    journal,
		ImportID:   importID,
		TradeCount: tradeCount,
	}
}

// EventHandler processes events
type EventHandler func(event Event) error

// EventFilter can selectively process events
type EventFilter func(event Event) bool

// Subscription represents an active event subscription
type Subscription struct {
	ID        string
	EventType EventType // empty for all events
	Handler   EventHandler
	Filter    EventFilter
	active    atomic.Bool
}

// IsActive returns whether subscription is active
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

// BusStats tracks bus throughput
type BusStats struct {
	EventsPublished   int64         `json:"events_published"`
	EventsProcessed   int64         `json:"events_processed"`
	EventsDropped     int64         `json:"events_dropped"`
	HandlerErrors     int64         `json:"handler_errors"`
	P99Latency        time.Duration `json:"p99_latency"`
	ActiveSubscribers int64         `json:"active_subscribers"`
}

// BusConfig configures the event bus
type BusConfig struct {
	NumWorkers int
	BufferSize int
}

// DefaultBusConfig returns sensible defaults
func DefaultBusConfig() BusConfig {
	return BusConfig{
		NumWorkers: 2,
		BufferSize: 1024,
	}
}

const latencySamples = 1024

// Bus delivers published events to subscribers on a small set of workers.
// Handlers of one subscription may run concurrently when NumWorkers > 1.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*Subscription

	eventChan chan Event

	eventsPublished   atomic.Int64
	eventsProcessed   atomic.Int64
	eventsDropped     atomic.Int64
	handlerErrors     atomic.Int64
	activeSubscribers atomic.Int64

	latencyMu sync.Mutex
	latencies []time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewBus creates an event bus and starts its workers
func NewBus(logger *zap.Logger, config BusConfig) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultBusConfig()
	if config.NumWorkers <= 0 {
		config.NumWorkers = defaults.NumWorkers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		eventChan: make(chan Event, config.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}

	for i := 0; i < config.NumWorkers; i++ {
		b.wg.Add(1)
		go b.worker()
	}

	return b
}

func (b *Bus) worker() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case event := <-b.eventChan:
			b.dispatch(event)
		}
	}
}

func (b *Bus) dispatch(event Event) {
	start := time.Now()

	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if sub.EventType != "" && sub.EventType != event.GetType() {
			continue
		}
		if sub.Filter != nil && !sub.Filter(event) {
			continue
		}
		b.executeHandler(sub, event)
	}

	b.eventsProcessed.Add(1)
	b.trackLatency(time.Since(start))
}

// executeHandler runs a handler with panic recovery
func (b *Bus) executeHandler(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerErrors.Add(1)
			b.logger.Error("Event handler panic",
				zap.String("subscription_id", sub.ID),
				zap.String("event_type", string(event.GetType())),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sub.Handler(event); err != nil {
		b.handlerErrors.Add(1)
		b.logger.Warn("Event handler error",
			zap.String("subscription_id", sub.ID),
			zap.String("event_type", string(event.GetType())),
			zap.Error(err),
		)
	}
}

func (b *Bus) trackLatency(d time.Duration) {
	b.latencyMu.Lock()
	defer b.latencyMu.Unlock()

	b.latencies = append(b.latencies, d)
	if len(b.latencies) > latencySamples {
		b.latencies = b.latencies[latencySamples/2:]
	}
}

// Subscribe registers a handler for one event type
func (b *Bus) Subscribe(eventType EventType, handler EventHandler, filter EventFilter) *Subscription {
	sub := &Subscription{
		ID:        uuid.NewString(),
		EventType: eventType,
		Handler:   handler,
		Filter:    filter,
	}
	sub.active.Store(true)

	b.mu.Lock()
	// copy on write so dispatch can range without holding the lock
	subs := make([]*Subscription, len(b.subscribers), len(b.subscribers)+1)
	copy(subs, b.subscribers)
	b.subscribers = append(subs, sub)
	b.mu.Unlock()

	b.activeSubscribers.Add(1)
	b.logger.Debug("Subscription added",
		zap.String("id", sub.ID),
		zap.String("event_type", string(eventType)),
	)
	return sub
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(handler EventHandler) *Subscription {
	return b.Subscribe("", handler, nil)
}

// Unsubscribe deactivates a subscription
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub.active.Swap(false) {
		b.activeSubscribers.Add(-1)
	}
}

// Publish queues an event without blocking. If the buffer is full the event
// is dropped and counted.
func (b *Bus) Publish(event Event) {
	select {
	case b.eventChan <- event:
		b.eventsPublished.Add(1)
	default:
		b.eventsDropped.Add(1)
		b.logger.Warn("Event dropped - buffer full",
			zap.String("event_type", string(event.GetType())),
		)
	}
}

// PublishSync delivers an event on the caller's goroutine
func (b *Bus) PublishSync(event Event) {
	b.eventsPublished.Add(1)
	b.dispatch(event)
}

// Stats returns current statistics
func (b *Bus) Stats() BusStats {
	return BusStats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsProcessed:   b.eventsProcessed.Load(),
		EventsDropped:     b.eventsDropped.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		P99Latency:        b.p99Latency(),
		ActiveSubscribers: b.activeSubscribers.Load(),
	}
}

func (b *Bus) p99Latency() time.Duration {
	b.latencyMu.Lock()
	sorted := append([]time.Duration(nil), b.latencies...)
	b.latencyMu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Stop shuts down the workers. Events still queued are dropped.
func (b *Bus) Stop() {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped",
			zap.Int64("events_processed", b.eventsProcessed.Load()),
			zap.Int64("events_dropped", b.eventsDropped.Load()),
		)
	case <-time.After(5 * time.Second):
		b.logger.Warn("Event bus shutdown timed out")
	}
}
