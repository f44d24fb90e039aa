package sietch

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrItemAlreadyExists    = errors.New("item already exists")
	ErrNoUpdateItem         = errors.New("no item has been updated")
	ErrNoDeleteItem         = errors.New("no item has been deleted")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidFilter        = errors.New("invalid filter")
	ErrUnknownField         = errors.New("unknown field")
)

// sqlStateSerializationFailure is returned by CockroachDB and Postgres when a
// serializable transaction lost a conflict and must be retried by the caller.
const sqlStateSerializationFailure = "40001"

// IsSerializationFailure reports whether err is a retryable transaction conflict.
// Connectors never retry on their own.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure
	}
	return false
}

// isUniqueViolation reports duplicate key errors from pgx or database/sql drivers
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
