// Package workers runs metric computations on a bounded goroutine pool.
package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task represents a unit of work to be processed. The context carries the
// per-task timeout.
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc is a function that can be used as a Task
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

// Outcome labels how a task finished
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimeout   Outcome = "timeout"
	OutcomePanic     Outcome = "panic"
)

// Pool manages a pool of worker goroutines
type Pool struct {
	logger *zap.Logger
	config *PoolConfig

	taskQueue chan Task
	wg        sync.WaitGroup

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	metrics *PoolMetrics
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	Name            string        // Pool name for logging
	NumWorkers      int           // Number of worker goroutines
	QueueSize       int           // Size of the task queue
	TaskTimeout     time.Duration // Timeout for individual tasks
	ShutdownTimeout time.Duration // Timeout for graceful shutdown

	// OnTaskDone, if set, is called once per finished task.
	OnTaskDone func(outcome Outcome, elapsed time.Duration)
}

// DefaultPoolConfig returns sensible defaults
func DefaultPoolConfig(name string) *PoolConfig {
	return &PoolConfig{
		Name:            name,
		NumWorkers:      runtime.NumCPU(),
		QueueSize:       1024,
		TaskTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// PoolMetrics tracks pool performance
type PoolMetrics struct {
	mu sync.Mutex

	tasksSubmitted atomic.Int64
	tasksCompleted atomic.Int64
	tasksFailed    atomic.Int64
	tasksTimeout   atomic.Int64
	panicRecovered atomic.Int64

	latencies  []time.Duration
	latencyIdx int
	filled     int

	startTime time.Time
}

const latencyWindow = 1024

// NewPoolMetrics creates a new metrics tracker
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{
		latencies: make([]time.Duration, latencyWindow),
		startTime: time.Now(),
	}
}

// RecordLatency records task execution latency
func (m *PoolMetrics) RecordLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latencies[m.latencyIdx] = d
	m.latencyIdx = (m.latencyIdx + 1) % len(m.latencies)
	if m.filled < len(m.latencies) {
		m.filled++
	}
}

// P99Latency returns the 99th percentile over the recent latency window
func (m *PoolMetrics) P99Latency() time.Duration {
	m.mu.Lock()
	sorted := make([]time.Duration, m.filled)
	copy(sorted, m.latencies[:m.filled])
	m.mu.Unlock()

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

// Stats returns current metrics
func (m *PoolMetrics) Stats() PoolStats {
	return PoolStats{
		TasksSubmitted: m.tasksSubmitted.Load(),
		TasksCompleted: m.tasksCompleted.Load(),
		TasksFailed:    m.tasksFailed.Load(),
		TasksTimeout:   m.tasksTimeout.Load(),
		PanicRecovered: m.panicRecovered.Load(),
		P99Latency:     m.P99Latency(),
		Uptime:         time.Since(m.startTime),
	}
}

// PoolStats contains pool statistics
type PoolStats struct {
	TasksSubmitted int64         `json:"tasks_submitted"`
	TasksCompleted int64         `json:"tasks_completed"`
	TasksFailed    int64         `json:"tasks_failed"`
	TasksTimeout   int64         `json:"tasks_timeout"`
	PanicRecovered int64         `json:"panic_recovered"`
	P99Latency     time.Duration `json:"p99_latency"`
	Uptime         time.Duration `json:"uptime"`
}

// NewPool creates a new worker pool
func NewPool(logger *zap.Logger, config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig("default")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		logger:    logger,
		config:    config,
		taskQueue: make(chan Task, config.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		metrics:   NewPoolMetrics(),
	}
}

// Start initializes and starts all workers
func (p *Pool) Start() {
	if p.running.Swap(true) {
		return
	}

	p.logger.Info("starting worker pool",
		zap.String("name", p.config.Name),
		zap.Int("workers", p.config.NumWorkers),
		zap.Int("queue_size", p.config.QueueSize),
	)

	for i := 0; i < p.config.NumWorkers; i++ {
		p.wg.Add(1)
		go p.run(p.logger.With(zap.Int("worker_id", i)))
	}
}

func (p *Pool) run(logger *zap.Logger) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.taskQueue:
			p.execute(logger, task)
		}
	}
}

// execute runs a single task with timeout and panic recovery
func (p *Pool) execute(logger *zap.Logger, task Task) {
	start := time.Now()

	ctx := p.ctx
	var cancel context.CancelFunc = func() {}
	if p.config.TaskTimeout > 0 {
		ctx, cancel = context.WithTimeout(p.ctx, p.config.TaskTimeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("worker recovered from panic", zap.Any("panic", r))
				done <- &PanicError{Recovered: r}
			}
		}()
		done <- task.Execute(ctx)
	}()

	var outcome Outcome
	select {
	case err := <-done:
		var panicErr *PanicError
		switch {
		case errors.As(err, &panicErr):
			p.metrics.panicRecovered.Add(1)
			p.metrics.tasksFailed.Add(1)
			outcome = OutcomePanic
		case err != nil:
			p.metrics.tasksFailed.Add(1)
			logger.Debug("task failed", zap.Error(err))
			outcome = OutcomeFailed
		default:
			p.metrics.tasksCompleted.Add(1)
			outcome = OutcomeCompleted
		}

	case <-ctx.Done():
		p.metrics.tasksTimeout.Add(1)
		logger.Warn("task timed out", zap.Duration("timeout", p.config.TaskTimeout))
		outcome = OutcomeTimeout
	}

	elapsed := time.Since(start)
	p.metrics.RecordLatency(elapsed)
	if p.config.OnTaskDone != nil {
		p.config.OnTaskDone(outcome, elapsed)
	}
}

// Submit adds a task to the queue without blocking
func (p *Pool) Submit(task Task) error {
	if !p.running.Load() {
		return ErrPoolStopped
	}

	select {
	case p.taskQueue <- task:
		p.metrics.tasksSubmitted.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait submits a task, blocking until the queue has room, ctx is done,
// or the pool stops.
func (p *Pool) SubmitWait(ctx context.Context, task Task) error {
	if !p.running.Load() {
		return ErrPoolStopped
	}

	select {
	case p.taskQueue <- task:
		p.metrics.tasksSubmitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// SubmitFunc submits a function as a task
func (p *Pool) SubmitFunc(fn func(ctx context.Context) error) error {
	return p.Submit(TaskFunc(fn))
}

// Stop gracefully shuts down the pool. Queued tasks that have not started are
// dropped.
func (p *Pool) Stop() error {
	if !p.running.Swap(false) {
		return nil
	}

	p.logger.Info("stopping worker pool", zap.String("name", p.config.Name))
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully", zap.String("name", p.config.Name))
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out",
			zap.String("name", p.config.Name),
			zap.Duration("timeout", p.config.ShutdownTimeout),
		)
		return ErrShutdownTimeout
	}
}

// QueueLength returns the current number of queued tasks
func (p *Pool) QueueLength() int {
	return len(p.taskQueue)
}

// IsRunning returns whether the pool is running
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	return p.metrics.Stats()
}

// Errors
var (
	ErrPoolStopped     = errors.New("pool is stopped")
	ErrQueueFull       = errors.New("task queue is full")
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// PanicError represents a recovered panic
type PanicError struct {
	Recovered any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic recovered: %v", e.Recovered)
}
