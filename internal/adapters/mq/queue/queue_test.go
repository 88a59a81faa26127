package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with the default buffer", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue()

		Convey("When a burst of triggers arrives", func() {
			for i := 0; i < 5; i++ {
				So(q.Enqueue(ctx, Trigger{Reason: "reveal"}), ShouldBeTrue)
			}

			Convey("Then they coalesce into one pending trigger", func() {
				So(q.Len(ctx), ShouldEqual, 1)
			})

			Convey("Then the pending trigger carries a timestamp", func() {
				got := <-q.Dequeue(ctx)
				So(got.Reason, ShouldEqual, "reveal")
				So(got.At.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and dequeue drains to closed", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, Trigger{}), ShouldBeFalse)
				_, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(q.Enqueue(cctx, Trigger{}), ShouldBeFalse)
			So(q.Len(ctx), ShouldEqual, 0)
		})
	})

	Convey("Given a larger buffer", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithBufferSize(3), WithBufferSize(-1))
		for i := 0; i < 4; i++ {
			q.Enqueue(ctx, Trigger{Reason: "roster", At: time.Unix(int64(i), 0)})
		}

		Convey("Then triggers are delivered in order up to the buffer", func() {
			So(q.Len(ctx), ShouldEqual, 3)
			ch := q.Dequeue(ctx)
			So((<-ch).At.Unix(), ShouldEqual, 0)
			So((<-ch).At.Unix(), ShouldEqual, 1)
			So((<-ch).At.Unix(), ShouldEqual, 2)
		})
	})
}
