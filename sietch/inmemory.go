package sietch

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// InMemoryConnector in-memory implementation of the Store interface.
// It keeps shallow copies of the items it is given, so callers can't change
// stored rows behind its back. Transactions are serializable: one runs at a
// time and every call outside of it waits for it to finish.
type InMemoryConnector[T any, ID comparable] struct {
	data    map[ID]*T
	mu      sync.RWMutex // guards data
	txMu    sync.Mutex   // held by the running transaction
	getID   func(t *T) ID
	meta    *entityMeta
	metaErr error
	hooks   *HookRegistry[T, ID]
	logger  QueryLogger
}

func NewInMemoryConnector[T any, ID comparable](getID func(t *T) ID) *InMemoryConnector[T, ID] {
	meta, err := getEntityMeta[T]()
	return &InMemoryConnector[T, ID]{
		data:    make(map[ID]*T),
		getID:   getID,
		meta:    meta,
		metaErr: err,
		hooks:   NewHookRegistry[T, ID](),
		logger:  NewNoOpLogger(),
	}
}

// AddHook implements Hookable
func (r *InMemoryConnector[T, ID]) AddHook(hook Hook[T, ID]) {
	r.hooks.AddHook(hook)
}

// RemoveAllHooks implements Hookable
func (r *InMemoryConnector[T, ID]) RemoveAllHooks() {
	r.hooks.RemoveAllHooks()
}

// SetLogger implements LoggableRepository
func (r *InMemoryConnector[T, ID]) SetLogger(logger QueryLogger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	r.logger = logger
}

// GetLogger implements LoggableRepository
func (r *InMemoryConnector[T, ID]) GetLogger() QueryLogger {
	return r.logger
}

func (r *InMemoryConnector[T, ID]) entityName() string {
	if r.meta == nil {
		return "unknown"
	}
	return r.meta.typ.Name()
}

// acquire waits for a running transaction unless ctx belongs to it
func (r *InMemoryConnector[T, ID]) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := txFromContext(ctx, r); ok {
		return func() {}, nil
	}
	r.txMu.Lock()
	return r.txMu.Unlock, nil
}

func clone[T any](item *T) *T {
	c := *item
	return &c
}

func (r *InMemoryConnector[T, ID]) Create(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	start := time.Now()
	err := r.WithTx(ctx, func(ctx context.Context) error {
		if err := r.hooks.ExecuteBeforeCreate(ctx, item); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		id := r.getID(item)
		if _, exists := r.data[id]; exists {
			return ErrItemAlreadyExists
		}
		r.data[id] = clone(item)
		return nil
	})
	logOperation(ctx, r.logger, "Create", r.entityName(), start, err)
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterCreate(ctx, item); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterCreate", r.entityName(), 0, hookErr)
	}
	return nil
}

func (r *InMemoryConnector[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.data[id]
	if !exists {
		return nil, ErrItemNotFound
	}

	return clone(item), nil
}

func (r *InMemoryConnector[T, ID]) BatchCreate(ctx context.Context, items []T) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		for i := range items {
			if err := r.Create(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InMemoryConnector[T, ID]) validateFilter(filter *Filter) error {
	if r.metaErr != nil {
		return r.metaErr
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	if filter == nil {
		return nil
	}
	for _, c := range filter.Conditions {
		if _, ok := r.meta.fieldIndex(c.Field); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
		}
	}
	for _, s := range filter.Sort {
		if _, ok := r.meta.fieldIndex(s.Field); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, s.Field)
		}
	}
	return nil
}

// Query returns copies of the matching items. Without a sort the result is
// ordered by id so that Limit and Offset are deterministic.
func (r *InMemoryConnector[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	if err := r.hooks.ExecuteBeforeQuery(ctx, filter); err != nil {
		return nil, err
	}
	if err := r.validateFilter(filter); err != nil {
		return nil, err
	}

	start := time.Now()
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	var results []T
	for _, item := range r.data {
		if matchesCondition(r.meta, item, filter) {
			results = append(results, *item)
		}
	}
	r.mu.RUnlock()
	release()

	var sortFields []SortField
	if filter != nil {
		sortFields = filter.Sort
	}
	r.sortItems(results, sortFields)
	results = page(results, filter)
	logOperation(ctx, r.logger, "Query", r.entityName(), start, nil)

	if hookErr := r.hooks.ExecuteAfterQuery(ctx, results); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterQuery", r.entityName(), 0, hookErr)
	}
	return results, nil
}

// sortItems orders items by sortFields, then by id. NULL sorts first.
func (r *InMemoryConnector[T, ID]) sortItems(items []T, sortFields []SortField) {
	keys := append(append([]SortField(nil), sortFields...), SortField{Field: r.meta.idColumn(), Direction: SortAsc})
	slices.SortStableFunc(items, func(a, b T) int {
		for _, key := range keys {
			va, _ := r.meta.fieldValue(&a, key.Field)
			vb, _ := r.meta.fieldValue(&b, key.Field)
			c := compareNullable(va, vb)
			if key.Direction == SortDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareNullable(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, _ := compare(a, b)
	return c
}

func page[T any](items []T, filter *Filter) []T {
	if filter == nil {
		return items
	}
	if filter.Offset != nil {
		if *filter.Offset >= len(items) {
			return nil
		}
		items = items[*filter.Offset:]
	}
	if filter.Limit != nil && *filter.Limit < len(items) {
		items = items[:*filter.Limit]
	}
	return items
}

// Update replaces the stored row. BeforeUpdate hooks run in the same
// transaction as the write.
func (r *InMemoryConnector[T, ID]) Update(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	start := time.Now()
	err := r.WithTx(ctx, func(ctx context.Context) error {
		if err := r.hooks.ExecuteBeforeUpdate(ctx, item); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		id := r.getID(item)
		if _, exists := r.data[id]; !exists {
			return ErrNoUpdateItem
		}
		r.data[id] = clone(item)
		return nil
	})
	logOperation(ctx, r.logger, "Update", r.entityName(), start, err)
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterUpdate(ctx, item); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterUpdate", r.entityName(), 0, hookErr)
	}
	return nil
}

// UpdateField implements FieldUpdater
func (r *InMemoryConnector[T, ID]) UpdateField(ctx context.Context, id ID, field string, value any) error {
	if r.metaErr != nil {
		return r.metaErr
	}
	release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.data[id]
	if !exists {
		return ErrNoUpdateItem
	}
	updated := clone(stored)
	if err := r.meta.setField(updated, field, value); err != nil {
		return err
	}
	r.data[id] = updated
	return nil
}

// Shift implements Shifter
func (r *InMemoryConnector[T, ID]) Shift(ctx context.Context, filter *Filter, field string, delta int) (int64, error) {
	if err := r.validateFilter(filter); err != nil {
		return 0, err
	}
	if _, ok := r.meta.fieldIndex(field); !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	start := time.Now()
	release, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	r.mu.Lock()
	defer r.mu.Unlock()

	// changes are collected first so a failure leaves data untouched
	changed := make(map[ID]*T)
	for id, item := range r.data {
		if !matchesCondition(r.meta, item, filter) {
			continue
		}
		updated := clone(item)
		if err := r.meta.addInt(updated, field, delta); err != nil {
			return 0, err
		}
		changed[id] = updated
	}
	for id, item := range changed {
		r.data[id] = item
	}
	logOperation(ctx, r.logger, "Shift", r.entityName(), start, nil)
	return int64(len(changed)), nil
}

// Delete removes the item, or marks it deleted when T is SoftDeletable.
// BeforeDelete hooks see the stored row and run in the same transaction.
func (r *InMemoryConnector[T, ID]) Delete(ctx context.Context, id ID) error {
	start := time.Now()
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
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if isSoftDeletable[T]() {
			markAsDeleted(item)
			r.data[id] = item
			return nil
		}
		delete(r.data, id)
		return nil
	})
	logOperation(ctx, r.logger, "Delete", r.entityName(), start, err)
	if err != nil {
		return err
	}

	if hookErr := r.hooks.ExecuteAfterDelete(ctx, id); hookErr != nil {
		r.logger.LogOperation(ctx, "AfterDelete", r.entityName(), 0, hookErr)
	}
	return nil
}

func (r *InMemoryConnector[T, ID]) BatchDelete(ctx context.Context, ids []ID) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := r.Delete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InMemoryConnector[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	if err := r.validateFilter(filter); err != nil {
		return 0, err
	}
	release, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, item := range r.data {
		if matchesCondition(r.meta, item, filter) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryConnector[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.data[id]
	return exists, nil
}
