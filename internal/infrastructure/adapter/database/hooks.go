package database

import (
	"context"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// DefaultHookTimeout bounds one after-commit hook when nothing else is configured
const DefaultHookTimeout = 3 * time.Second

type hookJob struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// HookRunner executes after-commit hooks: live pushes and ledger events. A hook
// never sees the caller's cancellation, only its own deadline, so a slow broker
// cannot fail or stall an operation whose transaction already committed.
//
// An async runner hands hooks to a fixed pool of workers through a bounded queue
// and drops them with a warning when the queue is full. An inline runner calls
// them on the committing goroutine.
type HookRunner struct {
	logger  coreport.Logger
	timeout time.Duration

	jobs   chan hookJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewHookRunner starts an async runner with workers goroutines
func NewHookRunner(logger coreport.Logger, workers, queueSize int, timeout time.Duration) *HookRunner {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	r := newHookRunner(logger, timeout)
	r.jobs = make(chan hookJob, queueSize)

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer r.wg.Done()
			for job := range r.jobs {
				r.call(job)
			}
		}()
	}
	return r
}

// NewInlineHookRunner returns a runner that calls hooks before returning
func NewInlineHookRunner(logger coreport.Logger, timeout time.Duration) *HookRunner {
	return newHookRunner(logger, timeout)
}

func newHookRunner(logger coreport.Logger, timeout time.Duration) *HookRunner {
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	return &HookRunner{logger: logger, timeout: timeout}
}

// Run schedules fn. ctx only contributes its values, such as the request id.
func (r *HookRunner) Run(ctx context.Context, fn func(ctx context.Context)) {
	job := hookJob{ctx: context.WithoutCancel(ctx), fn: fn}
	if r.jobs == nil {
		r.call(job)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("After-commit hook dropped, runner is shut down", map[string]any{
			"request_id": coreport.RequestIDFromContext(ctx),
		})
		return
	}
	select {
	case r.jobs <- job:
	default:
		r.logger.Warn("After-commit hook dropped, queue is full", map[string]any{
			"request_id": coreport.RequestIDFromContext(ctx),
			"queue_size": cap(r.jobs),
		})
	}
}

func (r *HookRunner) call(job hookJob) {
	ctx, cancel := context.WithTimeout(job.ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("After-commit hook panicked", map[string]any{
				"panic":      rec,
				"request_id": coreport.RequestIDFromContext(job.ctx),
			})
		}
	}()
	job.fn(ctx)
}

// Shutdown stops accepting hooks and waits for the queued ones to finish
func (r *HookRunner) Shutdown() {
	if r.jobs == nil {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}
