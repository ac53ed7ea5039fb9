package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/errs"
	"github.com/okian/raffle/pkg/metrics"
)

const memoryBackend = "memory"

// MemoryStore keeps entries in a slice ordered by id for the process
// lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []model.Entry
	byID    map[int64]int // id -> index in entries
	nextID  int64
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:   make(map[int64]int),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Insert(_ context.Context, reg model.Registration) (model.Entry, error) {
	start := time.Now()
	defer observe(OpInsert, start)

	if blank(reg.FirstName) || blank(reg.Surname) || blank(reg.Email) {
		return model.Entry{}, errs.NewKind(OpInsert, ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Entry{}, errs.WrapKind(OpInsert, ErrIOFailure, ErrClosed)
	}

	e := model.Entry{
		ID:        s.nextID,
		FirstName: reg.FirstName,
		Surname:   reg.Surname,
		Email:     reg.Email,
		Number:    reg.Number,
	}
	s.nextID++
	s.byID[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)

	metrics.UpdateEntriesTotal(len(s.entries))
	return e, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Entry, error) {
	start := time.Now()
	defer observe(OpList, start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errs.WrapKind(OpList, ErrIOFailure, ErrClosed)
	}

	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) ReplaceWinners(_ context.Context, ids []int64) error {
	start := time.Now()
	defer observe(OpReplaceWinners, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.WrapKind(OpReplaceWinners, ErrIOFailure, ErrClosed)
	}
	return s.replaceWinners(OpReplaceWinners, ids)
}

func (s *MemoryStore) SelectWinners(_ context.Context, pick PickFunc) error {
	start := time.Now()
	defer observe(OpSelectWinners, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.WrapKind(OpSelectWinners, ErrIOFailure, ErrClosed)
	}

	snapshot := make([]model.Entry, len(s.entries))
	copy(snapshot, s.entries)
	return s.replaceWinners(OpSelectWinners, pick(snapshot))
}

// replaceWinners validates every id before touching a flag. Must be called
// with s.mu held.
func (s *MemoryStore) replaceWinners(op string, ids []int64) error {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			return errs.WrapKind(op, ErrConstraintViolation, UnknownID(id))
		}
		want[id] = struct{}{}
	}

	for i := range s.entries {
		_, ok := want[s.entries[i].ID]
		s.entries[i].Winner = ok
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	start := time.Now()
	defer observe(OpCount, start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errs.WrapKind(OpCount, ErrIOFailure, ErrClosed)
	}
	return len(s.entries), nil
}

// Close marks the store unusable. Entries are dropped.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	s.byID = nil
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func observe(op string, start time.Time) { ObserveLatency(memoryBackend, op, start) }

// ObserveLatency records how long op took on backend, in milliseconds.
func ObserveLatency(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, strings.TrimPrefix(op, "repository."),
		float64(time.Since(start).Nanoseconds())/1e6)
}
