// Package worker runs background export jobs pulled from the queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Exporter performs one export job. The engine service implements it.
type Exporter interface {
	RunExportJob(ctx context.Context, job model.ExportJob) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.ExportJob
	Len(ctx context.Context) int
}

// Worker processes export jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single goroutine.
type InMemoryWorker struct {
	queue    Queue
	exporter Exporter
	name     string

	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, exporter Exporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		exporter:  exporter,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
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

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.UpdateExportQueueSize(w.queue.Len(ctx))
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "export job failed",
					logger.String("job_id", job.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many jobs this worker has finished.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, job model.ExportJob) error {
	start := time.Now()
	defer func() {
		// Queue wait plus run time. The export itself is timed by the exporter.
		since := job.EnqueuedAt
		if since.IsZero() {
			since = start
		}
		metrics.RecordExportJobLatency(float64(time.Since(since).Nanoseconds()) / 1e6)
		w.processed.Add(1)
	}()

	w.logger.Debug(ctx, "running export job",
		logger.String("job_id", job.ID),
		logger.Float64("queued_ms", float64(start.Sub(job.EnqueuedAt).Milliseconds())),
	)
	if err := w.exporter.RunExportJob(ctx, job); err != nil {
		metrics.RecordErrorByComponent("worker", "export_error")
		return fmt.Errorf("export job %s: %w", job.ID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	shutdownTimeout time.Duration
	logger          logger.Logger
}

// NewPool creates a pool of workerCount workers. Counts below 1 use one worker.
func NewPool(workerCount int, queue Queue, exporter Exporter, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           queue,
		shutdownTimeout: poolShutdownTimeout,
		logger:          logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, exporter, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the total number of jobs finished by the pool.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain pending jobs and waits for
// them up to the shutdown timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
