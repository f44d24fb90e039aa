package sietch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CockroachDBConnector implements Store on a pgx pool (CockroachDB or PostgreSQL).
// Calls made with a ctx carrying a transaction of the same pool run inside it.
type CockroachDBConnector[T any, ID comparable] struct {
	pool    *pgxpool.Pool
	tm      *TransactionManager
	builder *sqlBuilder
	meta    *entityMeta
	getID   func(*T) ID
	hooks   *HookRegistry[T, ID]
	logger  QueryLogger
}

func NewCockroachDBConnPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}

// NewCockroachDBConnector CockroachDB implementation of the Store interface
func NewCockroachDBConnector[T any, ID comparable](pool *pgxpool.Pool, tableName string, getID func(*T) ID) (*CockroachDBConnector[T, ID], error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if getID == nil {
		return nil, fmt.Errorf("getID function cannot be nil")
	}

	builder, err := newSQLBuilder[T](tableName, dollarPlaceholders)
	if err != nil {
		return nil, err
	}
	meta, err := getEntityMeta[T]()
	if err != nil {
		return nil, err
	}

	return &CockroachDBConnector[T, ID]{
		pool:    pool,
		tm:      NewTransactionManager(pool),
		builder: builder,
		meta:    meta,
		getID:   getID,
		hooks:   NewHookRegistry[T, ID](),
		logger:  NewNoOpLogger(),
	}, nil
}

// AddHook implements Hookable
func (r *CockroachDBConnector[T, ID]) AddHook(hook Hook[T, ID]) {
	r.hooks.AddHook(hook)
}

// RemoveAllHooks implements Hookable
func (r *CockroachDBConnector[T, ID]) RemoveAllHooks() {
	r.hooks.RemoveAllHooks()
}

// SetLogger implements LoggableRepository
func (r *CockroachDBConnector[T, ID]) SetLogger(logger QueryLogger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	r.logger = logger
}

// GetLogger implements LoggableRepository
func (r *CockroachDBConnector[T, ID]) GetLogger() QueryLogger {
	return r.logger
}

func (r *CockroachDBConnector[T, ID]) exec(ctx context.Context, op, query string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := r.queryable(ctx).Exec(ctx, query, args...)
	logQuery(ctx, r.logger, op, query, args, start, err)
	return tag, err
}

func (r *CockroachDBConnector[T, ID]) Create(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	err := r.WithTx(ctx, func(ctx context.Context) error {
		if err := r.hooks.ExecuteBeforeCreate(ctx, item); err != nil {
			return err
		}
		_, err := r.exec(ctx, "Create", r.builder.insertQuery(), r.meta.getValues(item)...)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrItemAlreadyExists, err)
		}
		return err
	})
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterCreate(ctx, item); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterCreate", r.meta.typ.Name(), 0, hookErr)
	}
	return nil
}

func (r *CockroachDBConnector[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	var item T
	query := r.builder.getQuery()
	start := time.Now()
	err := r.queryable(ctx).QueryRow(ctx, query, id).Scan(r.meta.getScanDestinations(&item)...)
	logQuery(ctx, r.logger, "Get", query, []any{id}, start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CockroachDBConnector[T, ID]) BatchCreate(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(ctx context.Context) error {
		for i := range items {
			if err := r.Create(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CockroachDBConnector[T, ID]) queryBuilder(filter *Filter) (string, []any, error) {
	return r.builder.queryBuilder(filter)
}

func (r *CockroachDBConnector[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	if err := r.hooks.ExecuteBeforeQuery(ctx, filter); err != nil {
		return nil, err
	}
	query, args, err := r.queryBuilder(filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := r.queryable(ctx).Query(ctx, query, args...)
	if err != nil {
		logQuery(ctx, r.logger, "Query", query, args, start, err)
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := rows.Scan(r.meta.getScanDestinations(&item)...); err != nil {
			logQuery(ctx, r.logger, "Query", query, args, start, err)
			return nil, err
		}
		results = append(results, item)
	}
	err = rows.Err()
	logQuery(ctx, r.logger, "Query", query, args, start, err)
	if err != nil {
		return nil, err
	}

	if hookErr := r.hooks.ExecuteAfterQuery(ctx, results); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterQuery", r.meta.typ.Name(), 0, hookErr)
	}
	return results, nil
}

// Update writes every column of item. BeforeUpdate hooks run in the same
// transaction as the write.
func (r *CockroachDBConnector[T, ID]) Update(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	err := r.WithTx(ctx, func(ctx context.Context) error {
		if err := r.hooks.ExecuteBeforeUpdate(ctx, item); err != nil {
			return err
		}
		return r.update(ctx, item)
	})
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterUpdate(ctx, item); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterUpdate", r.meta.typ.Name(), 0, hookErr)
	}
	return nil
}

func (r *CockroachDBConnector[T, ID]) update(ctx context.Context, item *T) error {
	values := r.meta.getValues(item)
	args := append(values[1:], r.getID(item))
	ct, err := r.exec(ctx, "Update", r.builder.updateQuery(), args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoUpdateItem
	}
	return nil
}

// UpdateField implements FieldUpdater
func (r *CockroachDBConnector[T, ID]) UpdateField(ctx context.Context, id ID, field string, value any) error {
	query, err := r.builder.updateFieldQuery(field)
	if err != nil {
		return err
	}
	ct, err := r.exec(ctx, "UpdateField", query, value, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNoUpdateItem
	}
	return nil
}

// Shift implements Shifter with a single UPDATE statement
func (r *CockroachDBConnector[T, ID]) Shift(ctx context.Context, filter *Filter, field string, delta int) (int64, error) {
	query, args, err := r.builder.shiftQuery(filter, field, delta)
	if err != nil {
		return 0, err
	}
	ct, err := r.exec(ctx, "Shift", query, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Delete removes the row, or marks it deleted when T is SoftDeletable.
// BeforeDelete hooks run in the same transaction as the delete.
func (r *CockroachDBConnector[T, ID]) Delete(ctx context.Context, id ID) error {
	err := r.WithTx(ctx, func(ctx context.Context) error {
		item, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if isEntityDeleted(item) {
			return ErrItemNotFound
		}
		if err := r.hooks.ExecuteBeforeDelete(ctx, item); err != nil {
			return err
		}

		if isSoftDeletable[T]() {
			markAsDeleted(item)
			return r.update(ctx, item)
		}

		ct, err := r.exec(ctx, "Delete", r.builder.deleteQuery(), id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNoDeleteItem
		}
		return nil
	})
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterDelete(ctx, id); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterDelete", r.meta.typ.Name(), 0, hookErr)
	}
	return nil
}

func (r *CockroachDBConnector[T, ID]) BatchDelete(ctx context.Context, ids []ID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := r.Delete(ctx, id); err != nil {
				return fmt.Errorf("%v row not deleted: %w", id, err)
			}
		}
		return nil
	})
}

func (r *CockroachDBConnector[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	query, args, err := r.builder.countQuery(filter)
	if err != nil {
		return 0, err
	}
	var count int64
	start := time.Now()
	err = r.queryable(ctx).QueryRow(ctx, query, args...).Scan(&count)
	logQuery(ctx, r.logger, "Count", query, args, start, err)
	return count, err
}

// Exists checks if an entity with the given ID exists
func (r *CockroachDBConnector[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	query := r.builder.existsQuery()
	var exists bool
	start := time.Now()
	err := r.queryable(ctx).QueryRow(ctx, query, id).Scan(&exists)
	logQuery(ctx, r.logger, "Exists", query, []any{id}, start, err)
	return exists, err
}

// CreateTable creates def and its indexes if they don't exist yet
func (r *CockroachDBConnector[T, ID]) CreateTable(ctx context.Context, def *TableDef) error {
	for _, stmt := range def.Statements() {
		if _, err := r.exec(ctx, "CreateTable", stmt); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops the connector's table if it exists
func (r *CockroachDBConnector[T, ID]) DropTable(ctx context.Context) error {
	_, err := r.exec(ctx, "DropTable", GenerateDropTableSQL(r.builder.table))
	return err
}
