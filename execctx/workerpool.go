package execctx

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Option configures a WorkerPool. Functional options keep construction
// chainable and self-documenting, matching the configuration idiom the
// teacher engine uses for its own tunables.
type Option func(*poolConfig)

type poolConfig struct {
	maxConcurrent int64
}

// WithMaxConcurrent bounds how many submitted tasks may run at once.
// Default: unbounded (every Submit spawns its own goroutine immediately).
func WithMaxConcurrent(n int) Option {
	return func(cfg *poolConfig) {
		cfg.maxConcurrent = int64(n)
	}
}

// workerPool dispatches each submitted task onto its own goroutine so that
// independent branches of a graph run in parallel. An optional weighted
// semaphore bounds how many tasks run at once; every Submit still starts a
// goroutine immediately, which waits for a free slot before running task.
type workerPool struct {
	sem *semaphore.Weighted
}

// NewWorkerPool returns an ExecutionContext that runs submitted tasks
// concurrently, each on its own goroutine, optionally bounded by
// WithMaxConcurrent.
func NewWorkerPool(opts ...Option) ExecutionContext {
	cfg := poolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	wp := &workerPool{}
	if cfg.maxConcurrent > 0 {
		wp.sem = semaphore.NewWeighted(cfg.maxConcurrent)
	}
	return wp
}

func (wp *workerPool) Submit(ctx context.Context, task func()) {
	if wp.sem == nil {
		go task()
		return
	}

	go func() {
		// A cancelled/expired ctx here would otherwise deadlock a bounded
		// pool forever; fall back to a background acquire so a caller that
		// passes a short-lived ctx for unrelated reasons never starves
		// scheduled work. The spec does not model cancellation mid-run.
		if err := wp.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer wp.sem.Release(1)
		task()
	}()
}
