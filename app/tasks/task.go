package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeProbeUpstream TaskType = "probe_upstream"
)

const (
	DefaultMaxRetries = 3
)

// TaskInterface is a unit of work run by the scheduler. Meta exposes the
// bookkeeping shared by every task type.
type TaskInterface interface {
	Execute(ctx context.Context) error
	Meta() *Task
}

// Task carries identity and retry state. Only the worker running the task
// mutates it.
type Task struct {
	ID         string
	Type       TaskType
	Retries    int
	MaxRetries int
	StartedAt  time.Time
}

func NewTask(taskType TaskType) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		MaxRetries: DefaultMaxRetries,
	}
}

func (t *Task) Meta() *Task {
	return t
}

// Elapsed is the time since the current run started, zero before the first run.
func (t *Task) Elapsed() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	return time.Since(t.StartedAt)
}

// retry records another attempt when the budget allows it.
func (t *Task) retry() bool {
	if t.Retries >= t.MaxRetries {
		return false
	}
	t.Retries++
	return true
}

func (t *Task) logAttrs() []any {
	return []any{"type", string(t.Type), "id", t.ID, "retries", t.Retries}
}
