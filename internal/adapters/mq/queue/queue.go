// Package queue carries board change notifications from the mutating
// goroutine to the notification workers.
//
// Enqueue never blocks: when the buffer is full the change is dropped and
// counted, so a slow subscriber cannot stall a check-in.
package queue

import (
	"context"
	"sync"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Change is the payload flowing through the queue.
type Change = model.Change

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a change. It returns ErrFull or ErrClosed when the
	// change was not accepted.
	Enqueue(ctx context.Context, c Change) error

	// Dequeue returns a channel receiving changes in enqueue order. The
	// channel is closed once the queue is closed and drained.
	Dequeue() <-chan Change

	// Len returns the current number of pending changes.
	Len() int

	// Close stops accepting changes.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	changes  chan Change
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.changes = make(chan Change, q.capacity)
	metrics.UpdateNotifyQueueSize(0)
	return q
}

// Enqueue adds a change to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Change) error { //nolint:gocritic // hugeParam: Change is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNotifyDropped()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordNotifyDropped()
		return err
	}

	select {
	case q.changes <- c:
		metrics.UpdateNotifyQueueSize(len(q.changes))
		return nil
	default:
		metrics.RecordNotifyDropped()
		return ErrFull
	}
}

// Dequeue returns the receive side of the buffer.
func (q *InMemoryQueue) Dequeue() <-chan Change {
	return q.changes
}

// Len returns the current number of pending changes.
func (q *InMemoryQueue) Len() int {
	size := len(q.changes)
	metrics.UpdateNotifyQueueSize(size)
	return size
}

// Close stops accepting changes. Pending changes remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.changes)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
