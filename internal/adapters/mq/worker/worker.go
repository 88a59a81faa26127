// Package worker runs resolution passes off the trigger queue, one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/setres/internal/adapters/mq/queue"
	"github.com/okian/setres/pkg/logger"
	"github.com/okian/setres/pkg/metrics"
)

// Runner executes one resolution pass.
type Runner interface {
	RunPass(ctx context.Context, t queue.Trigger) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, t queue.Trigger) error

// RunPass calls f.
func (f RunnerFunc) RunPass(ctx context.Context, t queue.Trigger) error { return f(ctx, t) }

// Queue defines how the worker receives triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Trigger
}

// Worker consumes triggers and runs passes until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker. A pass already running finishes
	// first.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. Passes never overlap: the next trigger is
// only read after the current pass returns.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string
	window time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			t, open := w.debounce(ctx, triggers, t)
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "pass failed", logger.String("reason", t.Reason), logger.Error(err))
			}
			if !open {
				return
			}
		}
	}
}

// debounce waits out the coalescing window, folding every trigger that
// arrives meanwhile into the latest one. It reports whether the trigger
// channel is still open.
func (w *InMemoryWorker) debounce(ctx context.Context, triggers <-chan queue.Trigger, t queue.Trigger) (queue.Trigger, bool) {
	if w.window <= 0 {
		return t, true
	}
	timer := time.NewTimer(w.window)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return t, true
		case <-ctx.Done():
			return t, true
		case <-w.shutdown:
			return t, true
		case next, ok := <-triggers:
			if !ok {
				return t, false
			}
			metrics.RecordTrigger("debounced")
			t = next
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, t queue.Trigger) error {
	metrics.UpdateWorkerBusy(true)
	defer metrics.UpdateWorkerBusy(false)

	if err := w.runner.RunPass(ctx, t); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "pass_error")
		return fmt.Errorf("run pass: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
