// Package service is the raffle engine: it composes validation, the entry
// store, ranking and export into the operations the kiosk front end calls.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/raffle/internal/adapters/export"
	exportqueue "github.com/okian/raffle/internal/adapters/mq/queue"
	workerpool "github.com/okian/raffle/internal/adapters/mq/worker"
	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/dedupe"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/domain/ranking"
	"github.com/okian/raffle/internal/domain/validation"
	"github.com/okian/raffle/pkg/errs"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

const (
	opSubmit        = "app.submit_registration"
	opDisplayTable  = "app.display_table"
	opSelectWinners = "app.run_winner_selection"
	opExport        = "app.export_current_data"
	opEnqueueExport = "app.enqueue_export"
	opExportJob     = "app.export_job"
	opEntries       = "app.entries"

	defaultTarget = 100
)

// ExportResult describes a written export file.
type ExportResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Service implements the engine operations used by the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	guard       dedupe.Guard
	formatter   *export.Formatter
	writer      *export.FileWriter
	exportQueue *exportqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	jobs        *jobTable

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	exportDir     string
	defaultTarget int64
	now           func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New creates a service. Without WithStore it keeps entries in memory.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   1,
		queueSize:     16,
		dedupeSize:    1024,
		exportDir:     "exports",
		defaultTarget: defaultTarget,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.guard = dedupe.NewInMemoryGuard(dedupe.WithMaxSize(s.dedupeSize))
	s.formatter = export.NewFormatter()
	s.writer = export.NewFileWriter(s.exportDir, export.WithClock(s.now))
	s.jobs = newJobTable(maxJobHistory)
	return s
}

// Start launches the background export workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting raffle service...")

	s.exportQueue = exportqueue.NewInMemoryQueue(exportqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.exportQueue, s)

	// Workers outlive the Start caller's context; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "raffle service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("exportDir", s.exportDir),
	)
	return nil
}

// Stop drains pending export jobs, stops the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping raffle service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "export workers did not stop cleanly", logger.Error(err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "raffle service stopped")
}

// DefaultTarget returns the target used when a caller omits one.
func (s *Service) DefaultTarget() int64 { return s.defaultTarget }

// SubmitRegistration validates the raw form fields and stores a new entry
// with Winner=false.
func (s *Service) SubmitRegistration(ctx context.Context, firstName, surname, email, numberText string) (model.Entry, error) {
	reg, err := validation.Validate(firstName, surname, email, numberText)
	if err != nil {
		metrics.RecordRegistrationRejected(Code(err))
		return model.Entry{}, s.fail(ctx, opSubmit, err)
	}

	entry, err := s.store.Insert(ctx, reg)
	if err != nil {
		metrics.RecordRegistrationRejected(Code(err))
		return model.Entry{}, s.fail(ctx, opSubmit, err)
	}

	metrics.RecordRegistrationSubmitted()
	s.logger.Debug(ctx, "registration stored",
		logger.Int64("id", entry.ID),
		logger.Int64("number", entry.Number),
	)
	return entry, nil
}

// SubmitRegistrationOnce behaves like SubmitRegistration but remembers key.
// Repeating a completed key returns the entry it created with replayed set;
// repeating a key still in flight fails with ErrSubmissionPending. A failed
// submission releases its key so the form can be retried. An empty key
// always submits.
func (s *Service) SubmitRegistrationOnce(ctx context.Context, key, firstName, surname, email, numberText string) (entry model.Entry, replayed bool, err error) {
	if key == "" {
		entry, err = s.SubmitRegistration(ctx, firstName, surname, email, numberText)
		return entry, false, err
	}

	id, state := s.guard.Claim(ctx, key)
	switch state {
	case dedupe.Pending:
		return model.Entry{}, false, s.fail(ctx, opSubmit, ErrSubmissionPending)
	case dedupe.Done:
		entry, err = s.entryByID(ctx, id)
		if err != nil {
			return model.Entry{}, false, s.fail(ctx, opSubmit, err)
		}
		metrics.RecordRegistrationReplayed()
		return entry, true, nil
	}

	entry, err = s.SubmitRegistration(ctx, firstName, surname, email, numberText)
	if err != nil {
		s.guard.Release(ctx, key)
		return model.Entry{}, false, err
	}
	s.guard.Complete(ctx, key, entry.ID)
	return entry, false, nil
}

func (s *Service) entryByID(ctx context.Context, id int64) (model.Entry, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	for _, e := range list {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Entry{}, errs.WrapKind(repository.OpList, repository.ErrConstraintViolation, repository.UnknownID(id))
}

// Entries returns every stored entry in insertion order.
func (s *Service) Entries(ctx context.Context) ([]model.Entry, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, opEntries, err)
	}
	return list, nil
}

// DisplayTable ranks the current entries against target. Winner flags in
// the result reflect this ranking; nothing is persisted.
func (s *Service) DisplayTable(ctx context.Context, target int64) ([]ranking.Ranked, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, opDisplayTable, err)
	}

	start := time.Now()
	result := ranking.Rank(list, target)
	metrics.RecordRankingLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return result.Ordered, nil
}

// RunWinnerSelection ranks the current entries against target and persists
// the winner set, replacing any earlier one. It returns how many entries
// were marked: min(5, number of entries).
func (s *Service) RunWinnerSelection(ctx context.Context, target int64) (int, error) {
	// Ranking runs under the store write lock so a concurrent insert lands
	// either before the snapshot or after the new winner set.
	var (
		result  ranking.Result
		entries int
	)
	err := s.store.SelectWinners(ctx, func(list []model.Entry) []int64 {
		start := time.Now()
		result = ranking.Rank(list, target)
		metrics.RecordRankingLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
		entries = len(list)
		return result.Winners
	})
	if err != nil {
		return 0, s.fail(ctx, opSelectWinners, err)
	}

	metrics.RecordWinnerSelection(len(result.Winners))
	s.logger.Info(ctx, "winners selected",
		logger.Int64("target", target),
		logger.Int("winners", len(result.Winners)),
		logger.Int("entries", entries),
	)
	return len(result.Winners), nil
}

// ExportCurrentData writes a snapshot of all entries, in insertion order,
// to a new xlsx file in the export directory.
func (s *Service) ExportCurrentData(ctx context.Context) (ExportResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordExportLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	list, err := s.store.List(ctx)
	if err != nil {
		metrics.RecordExport(CodeIOFailure)
		return ExportResult{}, s.fail(ctx, opExport, err)
	}

	data, err := s.formatter.Format(list)
	if err != nil {
		metrics.RecordExport(Code(err))
		return ExportResult{}, s.fail(ctx, opExport, err)
	}

	path, err := s.writer.Write(ctx, data)
	if err != nil {
		metrics.RecordExport(Code(err))
		return ExportResult{}, s.fail(ctx, opExport, err)
	}

	metrics.RecordExport("ok")
	metrics.RecordExportRows(len(list))
	s.logger.Info(ctx, "exported registrations",
		logger.Int("rows", len(list)),
		logger.String("path", path),
	)
	return ExportResult{Path: path, Rows: len(list)}, nil
}

// EnqueueExport schedules a background export and returns its job record.
func (s *Service) EnqueueExport(ctx context.Context) (JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return JobStatus{}, s.fail(ctx, opEnqueueExport, ErrNotStarted)
	}

	job := model.ExportJob{ID: uuid.NewString(), EnqueuedAt: s.now()}
	status := s.jobs.add(job)
	if !s.exportQueue.Enqueue(ctx, job) {
		s.jobs.remove(job.ID)
		metrics.RecordExportJobRejected()
		return JobStatus{}, s.fail(ctx, opEnqueueExport, ErrQueueFull)
	}
	return status, nil
}

// ExportJob returns the status of a background export.
func (s *Service) ExportJob(_ context.Context, id string) (JobStatus, error) {
	status, ok := s.jobs.get(id)
	if !ok {
		return JobStatus{}, errs.NewKind(opExportJob, ErrJobNotFound)
	}
	return status, nil
}

// RunExportJob runs one queued export. Export workers call it.
func (s *Service) RunExportJob(ctx context.Context, job model.ExportJob) error {
	s.jobs.update(job.ID, func(st *JobStatus) { st.State = JobRunning })

	res, err := s.ExportCurrentData(ctx)
	finished := s.now()
	s.jobs.update(job.ID, func(st *JobStatus) {
		st.FinishedAt = &finished
		if err != nil {
			st.State = JobFailed
			st.Error = Message(err)
			return
		}
		st.State = JobDone
		st.Path = res.Path
		st.Rows = res.Rows
	})
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"dedupeKeys":    s.guard.Size(),
		"exportDir":     s.exportDir,
		"defaultTarget": s.defaultTarget,
		"exportJobs":    s.jobs.len(),
	}

	if s.started {
		stats["queueLength"] = s.exportQueue.Len(ctx)
		stats["exportsProcessed"] = s.workerPool.Processed()
		if n, err := s.store.Count(ctx); err == nil {
			stats["totalEntries"] = n
			metrics.UpdateEntriesTotal(n)
		}
	}
	return stats
}

// fail logs err once with its operation, counts it and returns it wrapped
// with op.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	code := Code(err)
	metrics.RecordErrorByComponent("app", code)
	if IsClientError(err) {
		metrics.RecordErrorByType("client_error", "low")
		s.logger.Debug(ctx, "request rejected", logger.String("op", op), logger.String("code", code), logger.Error(err))
	} else {
		metrics.RecordErrorByType("server_error", "high")
		s.logger.Error(ctx, "operation failed", logger.String("op", op), logger.String("code", code), logger.Error(err))
	}
	return errs.Wrap(op, err)
}
