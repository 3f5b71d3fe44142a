package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	applog "spendlog/internal/log"
)

// Scheduler runs a job on a cron schedule. A run still in progress when the
// next one is due causes that next run to be skipped.
type Scheduler struct {
	spec   string
	job    func(context.Context) error
	logger *applog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler validates spec (standard five-field syntax or a descriptor
// such as @hourly) and returns a stopped scheduler.
func NewScheduler(spec string, job func(context.Context) error, logger *applog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Scheduler{spec: spec, job: job, logger: logger.WithComponent(applog.ComponentWorker)}, nil
}

// Start schedules the job. Every run uses ctx. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(s.spec, func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.job(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled job failed", applog.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	c.Start()
	s.cron = c
	s.running = true
	s.logger.InfoContext(ctx, "Scheduler started", "schedule", s.spec)
	return nil
}

// Stop prevents further runs and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
