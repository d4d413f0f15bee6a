// Package scheduler runs periodic jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job represents a scheduled job
type Job interface {
	Name() string
	// Schedule is a standard five-field cron expression or a descriptor such
	// as "@hourly".
	Schedule() string
	Run(ctx context.Context) error
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyLimit = 50

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
	jobs    map[string]Job
	history map[string][]JobResult
	mu      sync.RWMutex
}

// New creates a new scheduler. Each run gets its own timeout context.
func New(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]Job),
		history: make(map[string][]JobResult),
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.logger.Info("Job added to scheduler",
		zap.String("job", name),
		zap.String("schedule", job.Schedule()),
	)
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", zap.Int("jobs", len(s.Jobs())))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs a job synchronously, outside of its schedule
func (s *Scheduler) RunNow(name string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}
	return s.runJob(job), nil
}

// Jobs returns the registered job names, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// History returns the recent results of a job, oldest first
func (s *Scheduler) History(name string) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]JobResult(nil), s.history[name]...)
}

func (s *Scheduler) runJob(job Job) JobResult {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := JobResult{JobName: job.Name(), StartTime: time.Now()}
	err := job.Run(ctx)
	result.Duration = time.Since(result.StartTime)
	result.Success = err == nil

	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("Job failed", zap.String("job", result.JobName), zap.Error(err))
	} else {
		s.logger.Debug("Job finished",
			zap.String("job", result.JobName),
			zap.Duration("duration", result.Duration),
		)
	}

	s.mu.Lock()
	h := append(s.history[result.JobName], result)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	s.history[result.JobName] = h
	s.mu.Unlock()

	return result
}
