// Package repository holds the entry store interface, its error kinds and
// the in-memory backend.
package repository

import (
	"context"

	"github.com/okian/raffle/internal/domain/model"
)

// Store persists raffle entries.
//
// Every read-modify-write sequence behaves as if under a single mutex:
// concurrent readers observe either the state before or after a write,
// never a partial one.
type Store interface {
	// Insert appends reg with Winner=false and the next unused id.
	// Empty text fields fail with ErrConstraintViolation. The number range
	// is the caller's responsibility.
	Insert(ctx context.Context, reg model.Registration) (model.Entry, error)

	// List returns copies of all entries in ascending id order.
	List(ctx context.Context) ([]model.Entry, error)

	// ReplaceWinners clears every winner flag and sets it on exactly ids.
	// An id that is not stored fails the whole call with
	// ErrConstraintViolation and leaves all flags as they were.
	ReplaceWinners(ctx context.Context, ids []int64) error

	// SelectWinners hands pick a snapshot of all entries and replaces the
	// winner set with the ids it returns, as one write. No insert can land
	// between the snapshot and the replacement. Unknown ids behave as in
	// ReplaceWinners.
	SelectWinners(ctx context.Context, pick PickFunc) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	Close() error
}

// PickFunc chooses winner ids from entries. It runs with the store locked
// and must not call back into the store.
type PickFunc func(entries []model.Entry) []int64

// Operation names used in errors and metrics.
const (
	OpInsert         = "repository.insert"
	OpList           = "repository.list"
	OpReplaceWinners = "repository.replace_winners"
	OpSelectWinners  = "repository.select_winners"
	OpCount          = "repository.count"
)
