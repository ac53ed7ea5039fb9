package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/raffle/internal/adapters/mq/queue"
	worker "github.com/okian/raffle/internal/adapters/mq/worker"
	model "github.com/okian/raffle/internal/domain/model"
	logging "github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan model.ExportJob
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan model.ExportJob, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.ExportJob { return mq.jobs }
func (mq *mockQueue) Len(context.Context) int                        { return len(mq.jobs) }
func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type mockExporter struct {
	mu     sync.Mutex
	ran    []string
	errors map[string]error
	delay  time.Duration
}

func newMockExporter() *mockExporter {
	return &mockExporter{errors: make(map[string]error)}
}

func (me *mockExporter) RunExportJob(_ context.Context, job model.ExportJob) error {
	if me.delay > 0 {
		time.Sleep(me.delay)
	}
	me.mu.Lock()
	defer me.mu.Unlock()
	me.ran = append(me.ran, job.ID)
	return me.errors[job.ID]
}

func (me *mockExporter) runs() []string {
	me.mu.Lock()
	defer me.mu.Unlock()
	return append([]string(nil), me.ran...)
}

// gathered returns the first sample of the named family in the metrics
// registry, or nil when it has none yet.
func gathered(name string) *dto.Metric {
	families, err := metrics.GetRegistry().Gather()
	convey.So(err, convey.ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0]
		}
	}
	return nil
}

func histogramCount(name string) uint64 {
	if m := gathered(name); m != nil {
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		exp := newMockExporter()
		w := worker.NewInMemoryWorker(q, exp, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			q.jobs <- model.ExportJob{ID: "job-1", EnqueuedAt: time.Now()}

			convey.Convey("Then the exporter runs it", func() {
				convey.So(waitFor(func() bool { return len(exp.runs()) == 1 }), convey.ShouldBeTrue)
				convey.So(exp.runs(), convey.ShouldResemble, []string{"job-1"})
				convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a job finishes", func() {
			const (
				jobLatency    = "raffle_engine_export_job_latency_milliseconds"
				exportLatency = "raffle_engine_export_latency_milliseconds"
				queueSize     = "raffle_engine_export_queue_size"
			)
			jobsBefore := histogramCount(jobLatency)
			exportsBefore := histogramCount(exportLatency)
			metrics.UpdateExportQueueSize(7)

			q.jobs <- model.ExportJob{ID: "timed", EnqueuedAt: time.Now()}
			convey.So(waitFor(func() bool { return w.Processed() == 1 }), convey.ShouldBeTrue)

			convey.Convey("Then it is timed once as a job and not as an export", func() {
				convey.So(histogramCount(jobLatency), convey.ShouldEqual, jobsBefore+1)
				convey.So(histogramCount(exportLatency), convey.ShouldEqual, exportsBefore)
			})

			convey.Convey("Then the queue size gauge reflects the drained queue", func() {
				convey.So(gathered(queueSize).GetGauge().GetValue(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a job fails", func() {
			exp.errors["bad"] = errors.New("disk full")
			q.jobs <- model.ExportJob{ID: "bad"}
			q.jobs <- model.ExportJob{ID: "good"}

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return len(exp.runs()) == 2 }), convey.ShouldBeTrue)
				convey.So(exp.runs(), convey.ShouldResemble, []string{"bad", "good"})
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		exp := newMockExporter()
		exp.delay = 5 * time.Millisecond
		pool := worker.NewPool(3, q, exp, worker.WithShutdownTimeout(2*time.Second))
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				convey.So(q.Enqueue(ctx, model.ExportJob{ID: id}), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then pending jobs are drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(exp.runs(), convey.ShouldHaveLength, 5)
				convey.So(pool.Processed(), convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool created with no workers requested", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockExporter())

		convey.Convey("Then it falls back to one worker", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 1)
		})
	})
}
