package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/apex/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func change(id string) Change {
	return Change{ID: id, Op: model.OpRecordAction, Name: "Anna Rossi"}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		Convey("Then it starts empty", func() {
			So(q.Len(), ShouldEqual, 0)
			So(q.IsClosed(), ShouldBeFalse)
		})

		Convey("When enqueuing two changes", func() {
			So(q.Enqueue(ctx, change("a")), ShouldBeNil)
			So(q.Enqueue(ctx, change("b")), ShouldBeNil)

			Convey("Then a third is dropped", func() {
				err := q.Enqueue(ctx, change("c"))
				So(errors.Is(err, ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then they are dequeued in order", func() {
				ch := q.Dequeue()
				So((<-ch).ID, ShouldEqual, "a")
				So((<-ch).ID, ShouldEqual, "b")
				So(q.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the change is rejected", func() {
				So(errors.Is(q.Enqueue(cctx, change("a")), context.Canceled), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 0)
			})
		})

		Convey("When closing with pending changes", func() {
			So(q.Enqueue(ctx, change("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new changes are rejected", func() {
				So(errors.Is(q.Enqueue(ctx, change("b")), ErrClosed), ShouldBeTrue)
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("Then pending changes drain and the channel closes", func() {
				var ids []string
				for c := range q.Dequeue() {
					ids = append(ids, c.ID)
				}
				So(ids, ShouldResemble, []string{"a"})
			})

			Convey("Then closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})

	Convey("Given concurrent producers", t, func() {
		q := NewInMemoryQueue(WithCapacity(1000))
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_ = q.Enqueue(ctx, change(fmt.Sprintf("%d-%d", p, j)))
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every change is accepted", func() {
			So(q.Len(), ShouldEqual, 500)
		})
	})
}
