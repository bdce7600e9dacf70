package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	queueSize       = 300
	taskTimeout     = 5 * time.Minute
	maxRetryBackoff = 30 * time.Second
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	prober      Prober
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler runs a probe every interval on a pool of workers. A zero
// interval disables the periodic probe; ad-hoc tasks are still served.
func NewScheduler(prober Prober, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 1
	}

	return &Scheduler{
		prober:      prober,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.interval <= 0 {
		slog.Debug("Periodic upstream probe disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for workers and pending retries.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	task := NewProbeUpstreamTask(s.prober)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue ProbeUpstreamTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	meta := task.Meta()
	meta.StartedAt = time.Now()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", append(meta.logAttrs(), "worker_id", workerID, "error", err)...)

	if !meta.retry() {
		slog.Error("Task failed after maximum retries", append(meta.logAttrs(), "max_retries", meta.MaxRetries, "last_error", err)...)
		return
	}

	retryDelay := retryBackoff(meta.Retries)
	slog.Warn("Task retry scheduled", append(meta.logAttrs(), "delay", retryDelay.String())...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", meta.logAttrs()...)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", append(meta.logAttrs(), "error", retryErr)...)
			}
		}
	}()
}

// retryBackoff doubles from one second and is capped at maxRetryBackoff.
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxRetryBackoff
	}
	return min(time.Duration(1<<uint(retryCount-1))*time.Second, maxRetryBackoff)
}
