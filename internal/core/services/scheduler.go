package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerConfigFromSettings builds the scheduler configuration for the
// invoice sync task.
func SchedulerConfigFromSettings(s domain.SchedulerSettings) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.TaskConfigs[domain.TaskIDInvoiceSync] = domain.TaskConfig{
		Enabled:  true,
		Interval: s.Interval.Std(),
		Timeout:  s.Timeout.Std(),
	}
	return cfg
}

// Scheduler runs the sync job on an interval. A task never runs twice
// concurrently; a tick that finds it still running skips it.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	jobs    driving.JobRunner
	jobOpts driving.JobOptions
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration. Scheduled job runs
// are always incremental; jobOpts selects the export and upload steps.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	jobs driving.JobRunner,
	jobOpts driving.JobOptions,
	log *zap.Logger,
) *Scheduler {
	jobOpts.Incremental = true
	if config.TickInterval <= 0 {
		config.TickInterval = domain.DefaultSchedulerConfig().TickInterval
	}
	return &Scheduler{
		config:  config,
		store:   store,
		jobs:    jobs,
		jobOpts: jobOpts,
		logger:  logger.OrNop(log).Named("scheduler"),
		now:     time.Now,
		active:  make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		s.logger.Error("failed to initialise tasks", zap.Error(err))
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDInvoiceSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDInvoiceSync, "Invoice Sync", taskCfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store. A new task is due
// immediately.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now(),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now()
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.logger.Error("failed to list tasks", zap.Error(err))
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.IsDue(now) {
			continue
		}
		if !s.markActive(task.ID) {
			s.logger.Debug("task still running, skipping tick", zap.String("task", task.ID))
			continue
		}
		s.runTask(ctx, &task)
	}
}

func (s *Scheduler) markActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[id] {
		return false
	}
	s.active[id] = true
	return true
}

func (s *Scheduler) clearActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// runTask executes a single task in the background. The job records the
// run in history; the task keeps only a reference to it.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.clearActive(task.ID)

		startedAt := s.now()

		var (
			run *domain.SyncRun
			err error
		)
		switch task.ID {
		case domain.TaskIDInvoiceSync:
			run, err = s.runInvoiceSync(ctx, s.config.GetTaskConfig(task.ID).Timeout)
		default:
			s.logger.Warn("unknown task", zap.String("task", task.ID))
			return
		}

		endedAt := s.now()

		if errors.Is(err, domain.ErrSyncInProgress) {
			s.logger.Info("another instance is syncing, skipping run", zap.String("task", task.ID))
			task.LastRun = startedAt
			task.NextRun = endedAt.Add(task.Interval)
			s.saveTask(ctx, task)
			return
		}

		task.RecordAttempt(startedAt, endedAt, run, err)
		if err != nil {
			s.logger.Error("scheduled run failed",
				zap.String("task", task.ID),
				zap.String("run_id", task.LastRunID),
				zap.Int("consecutive_failures", task.Failures),
				zap.Error(err),
			)
		}

		s.saveTask(ctx, task)
	}()
}

func (s *Scheduler) saveTask(ctx context.Context, task *domain.ScheduledTask) {
	if err := s.store.SaveTask(context.WithoutCancel(ctx), task); err != nil {
		s.logger.Error("failed to save task", zap.String("task", task.ID), zap.Error(err))
	}
}

// runInvoiceSync runs one job, bounded by timeout when set.
func (s *Scheduler) runInvoiceSync(ctx context.Context, timeout time.Duration) (*domain.SyncRun, error) {
	if s.jobs == nil {
		return nil, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.jobs.Run(ctx, s.jobOpts)
}
