// Package queue carries resolution triggers from roster changes to the pass
// worker.
//
// The queue is bounded and coalescing: when the buffer is full a new trigger
// is folded into the pending one instead of being rejected, so a burst of
// changes becomes a single pass.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/setres/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultBufferSize = 1
)

// Trigger asks for one resolution pass.
type Trigger struct {
	// Reason names the roster change that caused the trigger, e.g. "reveal".
	Reason string
	// At is when the trigger was raised.
	At time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger. A trigger arriving while the buffer is full is
	// coalesced into the pending one. Returns false only when the queue is
	// closed or ctx is done.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns a channel that receives triggers as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the current number of pending triggers.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	triggers   chan Trigger
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.triggers = make(chan Trigger, q.bufferSize)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a trigger to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTrigger("closed")
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordTrigger("cancelled")
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}

	select {
	case q.triggers <- t:
		metrics.RecordTrigger("enqueued")
		metrics.UpdateQueueSize(len(q.triggers))
	default:
		// A pending trigger already covers this change.
		metrics.RecordTrigger("coalesced")
	}
	return true
}

// Dequeue returns a channel that will receive triggers as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Trigger {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.triggers:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.triggers))
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of pending triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.triggers)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.triggers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
