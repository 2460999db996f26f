// Package worker dispatches board changes to subscribers off the
// mutation path.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/apex/internal/adapters/mq/queue"
	"github.com/okian/apex/pkg/logger"
	"github.com/okian/apex/pkg/metrics"
)

const defaultSubscriberTimeout = 2 * time.Minute

// Change abstracts what workers read off the queue.
type Change = queue.Change

// Subscriber reacts to a board change. Errors are logged and not retried.
type Subscriber interface {
	Name() string
	OnChange(ctx context.Context, c Change) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc struct {
	ID string
	Fn func(ctx context.Context, c Change) error
}

// Name implements Subscriber.
func (f SubscriberFunc) Name() string { return f.ID }

// OnChange implements Subscriber.
func (f SubscriberFunc) OnChange(ctx context.Context, c Change) error { //nolint:gocritic // hugeParam
	return f.Fn(ctx, c)
}

// Queue defines how workers receive changes.
type Queue interface {
	Dequeue() <-chan Change
}

// InMemoryWorker feeds every change to the subscribers, in registration order.
type InMemoryWorker struct {
	queue       Queue
	subscribers []Subscriber
	name        string
	timeout     time.Duration

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, subscribers []Subscriber, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		subscribers: subscribers,
		name:        "worker",
		timeout:     defaultSubscriberTimeout,
		done:        make(chan struct{}),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes changes until the queue is drained and closed or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	changes := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			w.dispatch(ctx, c)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) dispatch(ctx context.Context, c Change) { //nolint:gocritic // hugeParam
	ctx = logger.WithRequestID(ctx, c.ID)
	for _, s := range w.subscribers {
		start := time.Now()
		err := w.call(ctx, s, c)
		metrics.RecordSubscriber(s.Name(), float64(time.Since(start).Milliseconds()), err)
		if err != nil {
			w.logger.Error(ctx, "subscriber failed",
				logger.String("subscriber", s.Name()),
				logger.String("op", string(c.Op)),
				logger.String("name", c.Name),
				logger.Error(err),
			)
			continue
		}
		w.logger.Debug(ctx, "subscriber done",
			logger.String("subscriber", s.Name()),
			logger.Duration("took", time.Since(start)),
		)
	}
}

func (w *InMemoryWorker) call(ctx context.Context, s Subscriber, c Change) (err error) { //nolint:gocritic // hugeParam
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %s panicked: %v", s.Name(), r)
		}
	}()
	return s.OnChange(ctx, c)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Ordering between changes is
// only guaranteed with a single worker.
func NewPool(workerCount int, q Queue, subscribers []Subscriber, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	probe := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(probe)
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, subscribers, wopts...)
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
