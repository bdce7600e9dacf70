package tasks

import (
	"context"
)

// TaskSchedulerInterface is the part of the scheduler the HTTP layer and
// main use: lifecycle plus ad-hoc enqueueing.
//
//	scheduler := NewScheduler(prober, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewProbeUpstreamTask(prober))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Prober re-checks a rate-limited upstream once its retry window elapses.
type Prober interface {
	Probe(ctx context.Context) error
}
