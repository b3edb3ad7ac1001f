package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"appraisal/internal/platform/metrics"
)

// Runner executes fire-and-forget tasks outside the request lifecycle and
// lets shutdown wait for whatever is still in flight.
type Runner struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	timeout time.Duration
}

func New(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Go starts fn in its own goroutine. The context passed to fn is detached
// from ctx's cancellation but keeps its values.
func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		slog.Warn("background task dropped after shutdown", "task", name)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		metrics.BackgroundTasks.Inc()
		defer metrics.BackgroundTasks.Dec()
		if err := r.run(ctx, name, fn); err != nil {
			slog.Warn("background task failed", "task", name, "err", err)
		}
	}()
}

func (r *Runner) run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("background task panic", "task", name, "panic", rec)
			err = fmt.Errorf("task %s panicked: %v", name, rec)
		}
	}()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// Wait stops accepting tasks and blocks until running ones finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
