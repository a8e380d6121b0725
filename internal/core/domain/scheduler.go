package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool

	// LastRunID is the SyncRun recorded by the latest attempt. Empty when
	// that attempt failed before a run was created.
	LastRunID string

	// Failures counts consecutive failed attempts.
	Failures int
}

// IsDue reports whether the task should run at now.
func (t *ScheduledTask) IsDue(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// RecordAttempt updates the task after the job ran between startedAt and
// endedAt. run is the job's history record and may be nil.
func (t *ScheduledTask) RecordAttempt(startedAt, endedAt time.Time, run *SyncRun, err error) {
	t.LastRun = startedAt
	t.NextRun = endedAt.Add(t.Interval)
	t.LastRunID = ""
	if run != nil {
		t.LastRunID = run.ID
	}
	if err != nil {
		t.LastError = err.Error()
		t.Failures++
		return
	}
	t.LastError = ""
	t.Failures = 0
	t.LastSuccess = endedAt
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// TickInterval is how often due tasks are checked.
	TickInterval time.Duration

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run.
	Interval time.Duration

	// Timeout bounds a single execution. Zero means no bound.
	Timeout time.Duration
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig returns the scheduler defaults: the invoice sync
// every two minutes with a five minute run timeout.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval: 15 * time.Second,
		TaskConfigs: map[string]TaskConfig{
			TaskIDInvoiceSync: {
				Enabled:  true,
				Interval: 2 * time.Minute,
				Timeout:  5 * time.Minute,
			},
		},
	}
}

// TaskIDInvoiceSync is the ID of the built-in invoice sync task.
const TaskIDInvoiceSync = "invoice-sync"
