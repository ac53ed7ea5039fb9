// Package sqlite provides a SQLite-backed entry store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/errs"
	"github.com/okian/raffle/pkg/metrics"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	backend = "sqlite"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// Store persists entries in SQLite. A single connection is used and every
// operation holds mu, so reads never interleave with a winner replacement.
type Store struct {
	mu     sync.Mutex
	sqlDB  *sql.DB
	closed bool
}

var _ repository.Store = (*Store)(nil)

// Open opens a SQLite entry store at path and applies embedded migrations.
// Use MemoryPath for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// ":memory:" databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle. Calling it twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sqlDB.Close()
}

func (s *Store) Insert(ctx context.Context, reg model.Registration) (model.Entry, error) {
	start := time.Now()
	defer repository.ObserveLatency(backend, repository.OpInsert, start)

	if blank(reg.FirstName) || blank(reg.Surname) || blank(reg.Email) {
		return model.Entry{}, errs.NewKind(repository.OpInsert, repository.ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Entry{}, errs.WrapKind(repository.OpInsert, repository.ErrIOFailure, repository.ErrClosed)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO entries (first_name, surname, email, number, winner) VALUES (?, ?, ?, ?, 0)`,
		reg.FirstName, reg.Surname, reg.Email, reg.Number,
	)
	if err != nil {
		return model.Entry{}, classify(repository.OpInsert, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Entry{}, classify(repository.OpInsert, err)
	}

	s.updateCount(ctx)
	return model.Entry{
		ID:        id,
		FirstName: reg.FirstName,
		Surname:   reg.Surname,
		Email:     reg.Email,
		Number:    reg.Number,
	}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Entry, error) {
	start := time.Now()
	defer repository.ObserveLatency(backend, repository.OpList, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errs.WrapKind(repository.OpList, repository.ErrIOFailure, repository.ErrClosed)
	}

	return listEntries(ctx, s.sqlDB, repository.OpList)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEntries(ctx context.Context, q querier, op string) ([]model.Entry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, first_name, surname, email, number, winner FROM entries ORDER BY id`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var (
			e      model.Entry
			winner int
		)
		if err := rows.Scan(&e.ID, &e.FirstName, &e.Surname, &e.Email, &e.Number, &winner); err != nil {
			return nil, classify(op, err)
		}
		e.Winner = winner != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *Store) ReplaceWinners(ctx context.Context, ids []int64) error {
	start := time.Now()
	defer repository.ObserveLatency(backend, repository.OpReplaceWinners, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.WrapKind(repository.OpReplaceWinners, repository.ErrIOFailure, repository.ErrClosed)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return classify(repository.OpReplaceWinners, err)
	}
	if err := replaceWinners(ctx, tx, repository.OpReplaceWinners, ids); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(repository.OpReplaceWinners, err)
	}
	return nil
}

func (s *Store) SelectWinners(ctx context.Context, pick repository.PickFunc) error {
	const op = repository.OpSelectWinners
	start := time.Now()
	defer repository.ObserveLatency(backend, op, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.WrapKind(op, repository.ErrIOFailure, repository.ErrClosed)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	entries, err := listEntries(ctx, tx, op)
	if err == nil {
		err = replaceWinners(ctx, tx, op, pick(entries))
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

func replaceWinners(ctx context.Context, tx *sql.Tx, op string, ids []int64) error {
	for _, id := range ids {
		var found int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM entries WHERE id = ?`, id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.WrapKind(op, repository.ErrConstraintViolation, repository.UnknownID(id))
		}
		if err != nil {
			return classify(op, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE entries SET winner = 0 WHERE winner <> 0`); err != nil {
		return classify(op, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE entries SET winner = 1 WHERE id = ?`, id); err != nil {
			return classify(op, err)
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	start := time.Now()
	defer repository.ObserveLatency(backend, repository.OpCount, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errs.WrapKind(repository.OpCount, repository.ErrIOFailure, repository.ErrClosed)
	}
	return s.count(ctx)
}

func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, classify(repository.OpCount, err)
	}
	return n, nil
}

// updateCount refreshes the entries gauge. Must be called with s.mu held.
func (s *Store) updateCount(ctx context.Context) {
	if n, err := s.count(ctx); err == nil {
		metrics.UpdateEntriesTotal(n)
	}
}

// classify maps driver errors onto the repository kinds.
func classify(op string, err error) error {
	if isConstraintViolation(err) {
		return errs.WrapKind(op, repository.ErrConstraintViolation, err)
	}
	return errs.WrapKind(op, repository.ErrIOFailure, err)
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended codes keep the primary code in the low byte.
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
