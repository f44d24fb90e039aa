package sietch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLExecutor is implemented by both *sql.DB and *sql.Tx
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens a SQLite database with the pure Go driver and applies the
// pragmas the connector relies on. The pool is limited to one connection, so
// ":memory:" databases are shared by every caller and writes never see SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

// SQLConnector implements Store on database/sql with "?" placeholders (SQLite).
// Calls made with a ctx carrying a transaction of the same *sql.DB run inside it.
type SQLConnector[T any, ID comparable] struct {
	db      *sql.DB
	tm      *SQLTransactionManager
	builder *sqlBuilder
	meta    *entityMeta
	getID   func(*T) ID
	hooks   *HookRegistry[T, ID]
	logger  QueryLogger
}

// NewSQLConnector creates a connector for tableName on db
func NewSQLConnector[T any, ID comparable](db *sql.DB, tableName string, getID func(*T) ID) (*SQLConnector[T, ID], error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if getID == nil {
		return nil, fmt.Errorf("getID function cannot be nil")
	}

	builder, err := newSQLBuilder[T](tableName, questionPlaceholders)
	if err != nil {
		return nil, err
	}
	meta, err := getEntityMeta[T]()
	if err != nil {
		return nil, err
	}

	return &SQLConnector[T, ID]{
		db:      db,
		tm:      NewSQLTransactionManager(db),
		builder: builder,
		meta:    meta,
		getID:   getID,
		hooks:   NewHookRegistry[T, ID](),
		logger:  NewNoOpLogger(),
	}, nil
}

// AddHook implements Hookable
func (r *SQLConnector[T, ID]) AddHook(hook Hook[T, ID]) {
	r.hooks.AddHook(hook)
}

// RemoveAllHooks implements Hookable
func (r *SQLConnector[T, ID]) RemoveAllHooks() {
	r.hooks.RemoveAllHooks()
}

// SetLogger implements LoggableRepository
func (r *SQLConnector[T, ID]) SetLogger(logger QueryLogger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	r.logger = logger
}

// GetLogger implements LoggableRepository
func (r *SQLConnector[T, ID]) GetLogger() QueryLogger {
	return r.logger
}

// WithTx implements Transactional
func (r *SQLConnector[T, ID]) WithTx(ctx context.Context, fn TxFunc) error {
	return r.tm.WithTx(ctx, fn)
}

func (r *SQLConnector[T, ID]) executor(ctx context.Context) SQLExecutor {
	if tx, ok := getSQLTxFromContext(ctx, r.db); ok {
		return tx
	}
	return r.db
}

func (r *SQLConnector[T, ID]) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	start := time.Now()
	res, err := r.executor(ctx).ExecContext(ctx, query, args...)
	logQuery(ctx, r.logger, op, query, args, start, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLConnector[T, ID]) Create(ctx context.Context, item *T) error {
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

func (r *SQLConnector[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	var item T
	query := r.builder.getQuery()
	start := time.Now()
	err := r.executor(ctx).QueryRowContext(ctx, query, id).Scan(r.meta.getScanDestinations(&item)...)
	logQuery(ctx, r.logger, "Get", query, []any{id}, start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SQLConnector[T, ID]) BatchCreate(ctx context.Context, items []T) error {
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

func (r *SQLConnector[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	if err := r.hooks.ExecuteBeforeQuery(ctx, filter); err != nil {
		return nil, err
	}
	query, args, err := r.builder.queryBuilder(filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
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
func (r *SQLConnector[T, ID]) Update(ctx context.Context, item *T) error {
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

func (r *SQLConnector[T, ID]) update(ctx context.Context, item *T) error {
	values := r.meta.getValues(item)
	args := append(values[1:], r.getID(item))
	n, err := r.exec(ctx, "Update", r.builder.updateQuery(), args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoUpdateItem
	}
	return nil
}

// UpdateField implements FieldUpdater
func (r *SQLConnector[T, ID]) UpdateField(ctx context.Context, id ID, field string, value any) error {
	query, err := r.builder.updateFieldQuery(field)
	if err != nil {
		return err
	}
	n, err := r.exec(ctx, "UpdateField", query, value, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoUpdateItem
	}
	return nil
}

// Shift implements Shifter with a single UPDATE statement
func (r *SQLConnector[T, ID]) Shift(ctx context.Context, filter *Filter, field string, delta int) (int64, error) {
	query, args, err := r.builder.shiftQuery(filter, field, delta)
	if err != nil {
		return 0, err
	}
	return r.exec(ctx, "Shift", query, args...)
}

// Delete removes the row, or marks it deleted when T is SoftDeletable.
// BeforeDelete hooks run in the same transaction as the delete.
func (r *SQLConnector[T, ID]) Delete(ctx context.Context, id ID) error {
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

		n, err := r.exec(ctx, "Delete", r.builder.deleteQuery(), id)
		if err != nil {
			return err
		}
		if n == 0 {
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

func (r *SQLConnector[T, ID]) BatchDelete(ctx context.Context, ids []ID) error {
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

func (r *SQLConnector[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	query, args, err := r.builder.countQuery(filter)
	if err != nil {
		return 0, err
	}
	var count int64
	start := time.Now()
	err = r.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count)
	logQuery(ctx, r.logger, "Count", query, args, start, err)
	return count, err
}

func (r *SQLConnector[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	query := r.builder.existsQuery()
	var exists bool
	start := time.Now()
	err := r.executor(ctx).QueryRowContext(ctx, query, id).Scan(&exists)
	logQuery(ctx, r.logger, "Exists", query, []any{id}, start, err)
	return exists, err
}

// CreateTable creates def and its indexes if they don't exist yet
func (r *SQLConnector[T, ID]) CreateTable(ctx context.Context, def *TableDef) error {
	for _, stmt := range def.Statements() {
		if _, err := r.exec(ctx, "CreateTable", stmt); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops the connector's table if it exists
func (r *SQLConnector[T, ID]) DropTable(ctx context.Context) error {
	_, err := r.exec(ctx, "DropTable", GenerateDropTableSQL(r.builder.table))
	return err
}
