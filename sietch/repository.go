package sietch

import "context"

// Repository defines a generic contract for CRUD operations
// T represents the entity type and ID the identifier type
type Repository[T any, ID comparable] interface {
	Create(ctx context.Context, item *T) error
	Get(ctx context.Context, id ID) (*T, error)
	BatchCreate(ctx context.Context, items []T) error
	Query(ctx context.Context, filter *Filter) ([]T, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id ID) error
	BatchDelete(ctx context.Context, ids []ID) error
	Count(ctx context.Context, filter *Filter) (int64, error)

	// Exists checks if an entity with the given ID exists
	Exists(ctx context.Context, id ID) (bool, error)
}

// FieldUpdater writes a single column of one row, persisted immediately
// (or at commit when ctx carries a transaction).
type FieldUpdater[ID comparable] interface {
	UpdateField(ctx context.Context, id ID, field string, value any) error
}

// Shifter adds delta to an integer column of every row matching filter with one
// set-based update and returns the number of affected rows.
// Sort, Limit and Offset of the filter are ignored.
type Shifter interface {
	Shift(ctx context.Context, filter *Filter, field string, delta int) (int64, error)
}

// TxFunc is a function that operates within a transaction context.
// Repository calls made with the given ctx run inside the transaction.
type TxFunc func(ctx context.Context) error

// Transactional defines an optional interface for transaction support
// Implementations can use type assertion to check if a repository supports transactions:
//
//	if txRepo, ok := repo.(Transactional); ok { ... }
type Transactional interface {
	// WithTx executes the given function within a transaction.
	// If ctx already carries a transaction of the same store, fn joins it.
	// If the function returns an error, the transaction is rolled back.
	// If the function returns nil, the transaction is committed.
	// If the function panics, the transaction is rolled back and the panic is re-raised.
	WithTx(ctx context.Context, fn TxFunc) error
}

// Store is the full capability set implemented by the SQL and in-memory connectors
type Store[T any, ID comparable] interface {
	Repository[T, ID]
	FieldUpdater[ID]
	Shifter
	Transactional
	Hookable[T, ID]
}
