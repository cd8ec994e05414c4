// Package store wraps the db query layer with transaction support and groups
// the multi-step writes that must execute atomically.
//
// Single-query reads that need no error translation should be made directly
// on db.Querier via Q().
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
)

// Store holds a *sql.DB for starting transactions and a *db.Queries for
// executing queries outside of them. Operation files attach methods to it.
type Store struct {
	pool *sql.DB
	q    *db.Queries
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via PingContext) before calling New.
func New(pool *sql.DB) *Store {
	return &Store{pool: pool, q: db.New(pool)}
}

// Q exposes the underlying Querier for single-query reads.
func (s *Store) Q() db.Querier {
	return s.q
}

// txQuerier receives a Querier scoped to a transaction. Returning a non-nil
// error rolls the transaction back.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a serializable transaction, passes a Querier bound to it to
// fn, and commits on success or rolls back on any error (including panics).
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, s.q.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
