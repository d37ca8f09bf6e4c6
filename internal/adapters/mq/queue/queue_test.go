package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/adapters/mq/queue"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a bounded queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When events are enqueued within capacity", func() {
			So(q.Enqueue(ctx, queue.Event{PlayerID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Event{PlayerID: "b"}), ShouldBeTrue)

			Convey("Then Len tracks them and dequeue drains in order", func() {
				So(q.Len(ctx), ShouldEqual, 2)
				events := q.Dequeue(ctx)
				So((<-events).PlayerID, ShouldEqual, "a")
				So((<-events).PlayerID, ShouldEqual, "b")
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, queue.Event{PlayerID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Event{PlayerID: "b"}), ShouldBeTrue)

			Convey("Then further enqueues drop without blocking", func() {
				start := time.Now()
				So(q.Enqueue(ctx, queue.Event{PlayerID: "c"}), ShouldBeFalse)
				So(time.Since(start), ShouldBeLessThan, 100*time.Millisecond)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Event{PlayerID: "a"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues fail but buffered events still drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Event{PlayerID: "b"}), ShouldBeFalse)

				events := q.Dequeue(ctx)
				e, ok := <-events
				So(ok, ShouldBeTrue)
				So(e.PlayerID, ShouldEqual, "a")

				_, ok = <-events
				So(ok, ShouldBeFalse) // channel closes after the drain
			})

			Convey("And a second close is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
