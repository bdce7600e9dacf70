package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/policy"
)

type ProbeUpstreamTask struct {
	Task
	prober Prober
}

func NewProbeUpstreamTask(prober Prober) *ProbeUpstreamTask {
	return &ProbeUpstreamTask{
		Task:   NewTask(TaskTypeProbeUpstream),
		prober: prober,
	}
}

func (t *ProbeUpstreamTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.prober.Probe(ctx)
	if errors.Is(err, policy.ErrPoolExhausted) {
		// The pool is re-armed; retrying before the new window elapses is a no-op.
		slog.Info("Task completed",
			"type", string(t.Type),
			"duration", t.Elapsed(),
			"recovered", false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to probe upstream: %w", err)
	}

	slog.Debug("Task completed",
		"type", string(t.Type),
		"duration", t.Elapsed())

	return nil
}
