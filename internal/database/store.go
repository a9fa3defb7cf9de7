// Package database is the Postgres implementation of store.Store, built on
// bun over lib/pq.
package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/places-api/internal/store"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// Store is a store.Store backed by Postgres.
type Store struct {
	db *bun.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() store.UserRepository {
	return &userRepository{db: s.db}
}

func (s *Store) Places() store.PlaceRepository {
	return &placeRepository{db: s.db}
}

// RunInTx runs fn in a database transaction that commits when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

// txStore binds the repositories to an open transaction. Users read through
// it are locked with SELECT ... FOR UPDATE.
type txStore struct {
	tx bun.Tx
}

func (t *txStore) Users() store.UserRepository {
	return &userRepository{db: t.tx, lockRows: true}
}

func (t *txStore) Places() store.PlaceRepository {
	return &placeRepository{db: t.tx}
}

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// affectedOne turns a write that touched no rows into store.ErrNotFound.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
