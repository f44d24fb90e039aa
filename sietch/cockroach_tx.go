package sietch

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryable interface abstracts both pgxpool.Pool and pgx.Tx
type Queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx implements Transactional. The transaction is shared with every
// connector and TransactionManager built on the same pool.
func (r *CockroachDBConnector[T, ID]) WithTx(ctx context.Context, fn TxFunc) error {
	return r.tm.WithTx(ctx, fn)
}

func (r *CockroachDBConnector[T, ID]) queryable(ctx context.Context) Queryable {
	if tx, ok := getTxFromContext(ctx, r.pool); ok {
		return tx
	}
	return r.pool
}
