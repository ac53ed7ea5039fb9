package service

import (
	"sync"
	"time"

	"github.com/okian/raffle/internal/domain/model"
)

// maxJobHistory bounds how many finished export jobs stay queryable.
const maxJobHistory = 256

// JobState is the lifecycle of a background export.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobStatus is the queryable record of a background export.
type JobStatus struct {
	ID         string     `json:"job_id"`
	State      JobState   `json:"status"`
	Path       string     `json:"path,omitempty"`
	Rows       int        `json:"rows,omitempty"`
	Error      string     `json:"error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j JobStatus) Finished() bool { return j.State == JobDone || j.State == JobFailed }

type jobTable struct {
	mu    sync.RWMutex
	byID  map[string]*JobStatus
	order []string // insertion order, oldest first
	limit int
}

func newJobTable(limit int) *jobTable {
	return &jobTable{byID: make(map[string]*JobStatus), limit: limit}
}

func (t *jobTable) add(job model.ExportJob) JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := &JobStatus{ID: job.ID, State: JobQueued, EnqueuedAt: job.EnqueuedAt}
	t.byID[job.ID] = st
	t.order = append(t.order, job.ID)
	t.trim()
	return *st
}

func (t *jobTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.byID, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *jobTable) update(id string, fn func(*JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.byID[id]; ok {
		fn(st)
	}
}

func (t *jobTable) get(id string) (JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.byID[id]
	if !ok {
		return JobStatus{}, false
	}
	return *st, true
}

func (t *jobTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// trim drops the oldest finished jobs past the limit. Unfinished jobs are
// never dropped. Must be called with t.mu held.
func (t *jobTable) trim() {
	if len(t.order) <= t.limit {
		return
	}
	kept := t.order[:0]
	excess := len(t.order) - t.limit
	for _, id := range t.order {
		if excess > 0 && t.byID[id].Finished() {
			delete(t.byID, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}
