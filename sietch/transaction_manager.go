package sietch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txKey is the context key type for transaction injection
type txKey struct{}

// txState is what a running transaction leaves in its context.
// owner identifies the pool/db/connector the transaction belongs to so that a
// connector never joins a transaction opened on another store.
type txState struct {
	owner    any
	tx       any
	onCommit []func()
}

func withTxState(ctx context.Context, state *txState) context.Context {
	return context.WithValue(ctx, txKey{}, state)
}

// txFromContext returns the active transaction state for owner, if present
func txFromContext(ctx context.Context, owner any) (*txState, bool) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok || state.owner != owner {
		return nil, false
	}
	return state, true
}

// InTx reports whether ctx carries any active transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// AfterCommit schedules fn to run once the transaction carried by ctx commits.
// Outside a transaction fn runs immediately. Callbacks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func()) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		fn()
		return
	}
	state.onCommit = append(state.onCommit, fn)
}

func (s *txState) committed() {
	for _, fn := range s.onCommit {
		fn()
	}
}

// getTxFromContext extracts the pgx transaction opened on pool, if present
func getTxFromContext(ctx context.Context, pool *pgxpool.Pool) (pgx.Tx, bool) {
	state, ok := txFromContext(ctx, pool)
	if !ok {
		return nil, false
	}
	tx, ok := state.tx.(pgx.Tx)
	return tx, ok
}

// getSQLTxFromContext extracts the database/sql transaction opened on db, if present
func getSQLTxFromContext(ctx context.Context, db *sql.DB) (*sql.Tx, bool) {
	state, ok := txFromContext(ctx, db)
	if !ok {
		return nil, false
	}
	tx, ok := state.tx.(*sql.Tx)
	return tx, ok
}

// TransactionManager manages database transactions across multiple repositories
// sharing one pgx pool. Every CockroachDBConnector built on the same pool joins
// the transaction found in ctx.
type TransactionManager struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &TransactionManager{pool: pool}
}

// WithIsoLevel returns a copy of the manager that begins transactions with the given isolation level
func (tm *TransactionManager) WithIsoLevel(level pgx.TxIsoLevel) *TransactionManager {
	return &TransactionManager{pool: tm.pool, opts: pgx.TxOptions{IsoLevel: level}}
}

// WithTx executes the provided function within a transaction
// If the function returns an error, the transaction is rolled back
// If the function completes successfully, the transaction is committed
// The transaction is also rolled back if a panic occurs
func (tm *TransactionManager) WithTx(ctx context.Context, fn TxFunc) error {
	if _, ok := txFromContext(ctx, tm.pool); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.BeginTx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	state := &txState{owner: tm.pool, tx: tx}
	if err := fn(withTxState(ctx, state)); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	state.committed()
	return nil
}

// SQLTransactionManager is the database/sql counterpart of TransactionManager
type SQLTransactionManager struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLTransactionManager creates a transaction manager over a *sql.DB
func NewSQLTransactionManager(db *sql.DB) *SQLTransactionManager {
	if db == nil {
		panic("db cannot be nil")
	}
	return &SQLTransactionManager{db: db}
}

// WithTx executes fn within a database/sql transaction, joining one already in ctx
func (tm *SQLTransactionManager) WithTx(ctx context.Context, fn TxFunc) error {
	if _, ok := txFromContext(ctx, tm.db); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	state := &txState{owner: tm.db, tx: tx}
	if err := fn(withTxState(ctx, state)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	state.committed()
	return nil
}
