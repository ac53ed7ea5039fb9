package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) model.ExportJob {
	return model.ExportJob{ID: id, EnqueuedAt: time.Unix(1700000000, 0)}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Len(ctx), ShouldEqual, 0)
		So(q.Cap(), ShouldEqual, 2)

		Convey("When enqueuing up to capacity", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)

			Convey("Then a third enqueue is refused without blocking", func() {
				So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then jobs come out in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).ID, ShouldEqual, "a")
				So((<-ch).ID, ShouldEqual, "b")
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue is refused", func() {
				So(q.Enqueue(cctx, job("a")), ShouldBeFalse)
			})
		})

		Convey("When closed with a pending job", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then new jobs are refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("b")), ShouldBeFalse)
			})

			Convey("Then the pending job drains and the channel closes", func() {
				ch := q.Dequeue(ctx)
				j, ok := <-ch
				So(ok, ShouldBeTrue)
				So(j.ID, ShouldEqual, "a")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})

			Convey("Then closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestInMemoryQueueConcurrentAccess(t *testing.T) {
	Convey("Given producers and consumers sharing a queue", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(8))
		const producers, perProducer = 4, 25

		var consumed sync.WaitGroup
		seen := make(chan string, producers*perProducer)
		for i := 0; i < 2; i++ {
			consumed.Add(1)
			go func() {
				defer consumed.Done()
				for j := range q.Dequeue(ctx) {
					seen <- j.ID
				}
			}()
		}

		var produced sync.WaitGroup
		for p := 0; p < producers; p++ {
			produced.Add(1)
			go func(p int) {
				defer produced.Done()
				for i := 0; i < perProducer; i++ {
					for !q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, i))) {
						time.Sleep(time.Millisecond)
					}
				}
			}(p)
		}
		produced.Wait()
		So(q.Close(), ShouldBeNil)
		consumed.Wait()
		close(seen)

		Convey("Then every job is delivered exactly once", func() {
			ids := map[string]int{}
			for id := range seen {
				ids[id]++
			}
			So(len(ids), ShouldEqual, producers*perProducer)
			for _, n := range ids {
				So(n, ShouldEqual, 1)
			}
		})
	})
}
