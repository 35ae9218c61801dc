// Package db is the hand-written, sqlc-shaped repository layer backing the
// sync engine: a Querier interface over the identity, event, and replica
// tables described in the data model, implemented against jackc/pgx/v5.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting Queries run
// either against the pool directly or inside a caller-managed transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries is the concrete Querier implementation. It holds no state beyond
// the handle it was constructed with, so the same struct shape works for
// both the long-lived pool and a short-lived transaction.
type Queries struct {
	db DBTX
}

// New wraps db (a *pgxpool.Pool or a pgx.Tx) in a Queries.
func New(dbtx DBTX) *Queries {
	return &Queries{db: dbtx}
}

// WithTx returns a Queries bound to tx, for callers that need several
// statements to commit atomically.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Pool is the narrow subset of *pgxpool.Pool the rest of the service needs
// directly (for Begin), kept separate from DBTX so callers don't have to
// type-assert.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)
