package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/apex/internal/adapters/mq/queue"
	"github.com/okian/apex/internal/adapters/mq/worker"
	"github.com/okian/apex/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	name string
	err  error

	mu   sync.Mutex
	seen []string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnChange(_ context.Context, c worker.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, c.ID)
	return r.err
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a queue and two subscribers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		var order []string
		var mu sync.Mutex
		first := worker.SubscriberFunc{ID: "first", Fn: func(_ context.Context, c worker.Change) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, "first:"+c.ID)
			return errors.New("boom")
		}}
		second := worker.SubscriberFunc{ID: "second", Fn: func(_ context.Context, c worker.Change) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, "second:"+c.ID)
			return nil
		}}
		w := worker.NewInMemoryWorker(q, []worker.Subscriber{first, second}, worker.WithName("test"))

		convey.Convey("When changes are enqueued and the queue is closed", func() {
			ctx := context.Background()
			convey.So(q.Enqueue(ctx, worker.Change{ID: "1", Op: model.OpAddCollaborator}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, worker.Change{ID: "2", Op: model.OpRecordAction}), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			w.Run(ctx)

			convey.Convey("Then every subscriber sees every change in order despite errors", func() {
				convey.So(order, convey.ShouldResemble, []string{"first:1", "second:1", "first:2", "second:2"})
			})

			convey.Convey("Then shutdown returns immediately", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When shutdown times out", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			convey.Convey("Then an error is returned", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a panicking subscriber", t, func() {
		q := queue.NewInMemoryQueue()
		after := &recorder{name: "after"}
		bad := worker.SubscriberFunc{ID: "bad", Fn: func(context.Context, worker.Change) error { panic("oops") }}
		w := worker.NewInMemoryWorker(q, []worker.Subscriber{bad, after})

		convey.So(q.Enqueue(context.Background(), worker.Change{ID: "x"}), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)
		w.Run(context.Background())

		convey.Convey("Then later subscribers still run", func() {
			convey.So(after.ids(), convey.ShouldResemble, []string{"x"})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		rec := &recorder{name: "rec"}
		pool := worker.NewPool(3, q, []worker.Subscriber{rec})
		ctx := context.Background()
		pool.Start(ctx)

		for _, id := range []string{"a", "b", "c", "d", "e"} {
			convey.So(q.Enqueue(ctx, worker.Change{ID: id}), convey.ShouldBeNil)
		}

		convey.Convey("When shutting down", func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then pending changes are drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ids(), convey.ShouldHaveLength, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, nil)
		pool.Start(context.Background())

		convey.Convey("Then a single worker still drains the queue", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
