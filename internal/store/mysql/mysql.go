// Package mysql is the production store.Store on top of database/sql and
// go-sql-driver/mysql. Units of work run at REPEATABLE READ; every row a
// unit of work is about to change is read with SELECT ... FOR UPDATE first.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/store"
	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// querier is implemented by both *sql.DB and *sql.Tx so the same query
// helpers serve the Reader and the Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a store.Store backed by a MySQL connection pool.
type Store struct {
	db         *sql.DB
	q          queries
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

var _ store.Store = (*Store)(nil)

// New wraps db. maxRetries bounds how often a unit of work that lost a
// deadlock or lock-wait race is re-run from the start.
func New(db *sql.DB, maxRetries int, log *zap.Logger) *Store {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, q: queries{db}, maxRetries: maxRetries, backoff: 20 * time.Millisecond, log: log}
}

// WithTx runs fn in a database transaction. fn may be invoked more than once
// when MySQL reports a deadlock or a lock wait timeout, so it must not have
// side effects outside tx.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || attempt >= s.maxRetries {
			return err
		}
		s.log.Warn("retrying unit of work",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt+1)):
		}
	}
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	// 1. --- Begin ---
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback() // no-op after Commit

	// 2. --- Run the unit of work ---
	if err := fn(ctx, &tx{queries{sqlTx}}); err != nil {
		return err
	}

	// 3. --- Commit ---
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
	}
	return false
}

func isDuplicate(err error) bool {
	var myErr *driver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

// notFound maps sql.ErrNoRows to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
