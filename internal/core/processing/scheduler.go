// Package processing provides the bounded-concurrency Task Scheduler used
// by the reconciliation pipeline's probe stages: a worker pool with a
// place/retrieve/shutdown contract where retrieve() yields each task's
// outcome exactly once, in completion order. Adapted from the teacher
// repo's AsyncWebhookProcessor worker-pool shape, repurposed from
// "queue of webhook jobs" to "queue of arbitrary tasks with a completion
// stream", matching the original's
// components/tasks/internal/concurrent_task_scheduler.py contract.
package processing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxSchedulerCapacity mirrors the AWS Lambda thread ceiling the original
// scheduler was bounded by (1024 - 1); Go doesn't share that constraint but
// the cap is kept so capacity math matches the specified formula exactly.
const maxSchedulerCapacity = 1023

// Task is one unit of work submitted to the scheduler. Run should respect
// ctx cancellation where practical.
type Task struct {
	ID  string
	Run func(ctx context.Context) (any, error)
}

// Result is one Task's outcome, delivered by Retrieve in completion order.
type Result struct {
	TaskID string
	Value  any
	Err    error
}

// TaskScheduler is a bounded worker pool. Capacity is enforced by a weighted
// semaphore; Place blocks until a slot frees or ctx is cancelled, matching
// §4.9's "place(task) blocks when the pool is full" contract. Shutdown does
// not release a Place that is already waiting for a slot.
type TaskScheduler struct {
	logger *slog.Logger

	sem     *semaphore.Weighted
	results chan Result

	mu       sync.Mutex
	inFlight int
	closed   bool

	wg sync.WaitGroup
}

// CapacityFromEnv computes min(env(THREAD_POOL_SIZE, default), 1023) per
// §4.9's capacity formula.
func CapacityFromEnv(defaultCapacity int) int {
	capacity := defaultCapacity
	if raw := os.Getenv("THREAD_POOL_SIZE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			capacity = parsed
		}
	}
	if capacity > maxSchedulerCapacity {
		capacity = maxSchedulerCapacity
	}
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// NewTaskScheduler builds a scheduler with the given capacity and a result
// buffer large enough to hold one outstanding result per slot without
// blocking workers.
func NewTaskScheduler(capacity int, logger *slog.Logger) *TaskScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity < 1 {
		capacity = 1
	}
	return &TaskScheduler{
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(capacity)),
		results: make(chan Result, capacity),
	}
}

// Place submits a task, blocking while the pool is at capacity until a slot
// frees or ctx is cancelled. It returns an error without blocking when
// Shutdown has already been called.
func (s *TaskScheduler) Place(ctx context.Context, task Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is shut down")
	}
	s.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.wg.Add(1)
	go s.run(ctx, task)
	return nil
}

func (s *TaskScheduler) run(ctx context.Context, task Task) {
	defer s.wg.Done()
	defer s.sem.Release(1)
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	value, err := task.Run(ctx)
	s.results <- Result{TaskID: task.ID, Value: value, Err: err}
}

// Retrieve returns the channel of completed task results. Consumers range
// over it; it closes once Shutdown has drained every in-flight task.
func (s *TaskScheduler) Retrieve() <-chan Result {
	return s.results
}

// Shutdown marks the scheduler closed, so later Place calls return an
// error; when wait is true, Shutdown blocks until every in-flight
// task has completed and its result delivered, then closes the results
// channel. When wait is false, the channel is closed in the background.
func (s *TaskScheduler) Shutdown(wait bool) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if wait {
		s.wg.Wait()
		close(s.results)
		return
	}

	go func() {
		s.wg.Wait()
		close(s.results)
	}()
}
