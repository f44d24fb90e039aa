package sietch

import (
	"context"
)

// CacheStrategy defines how caching should behave
type CacheStrategy string

const (
	// CacheStrategyWriteThrough writes to both cache and base storage
	CacheStrategyWriteThrough CacheStrategy = "write_through"

	// CacheStrategyWriteAround writes only to base storage, invalidates cache
	CacheStrategyWriteAround CacheStrategy = "write_around"
)

// CachedRepository wraps a base store with a read-through cache.
// Reads made inside a transaction always go to the base store. Every write
// drops the touched rows from the cache right away and once more after the
// transaction commits, so a concurrent reader can't leave a stale copy behind.
type CachedRepository[T any, ID comparable] struct {
	base     Store[T, ID]
	cache    Cache[T, ID]
	getID    func(*T) ID
	strategy CacheStrategy
}

// NewCachedRepository creates a write-through cached repository
func NewCachedRepository[T any, ID comparable](base Store[T, ID], cache Cache[T, ID], getID func(*T) ID) *CachedRepository[T, ID] {
	return NewCachedRepositoryWithStrategy(base, cache, getID, CacheStrategyWriteThrough)
}

// NewCachedRepositoryWithStrategy creates a cached repository with a specific strategy
func NewCachedRepositoryWithStrategy[T any, ID comparable](base Store[T, ID], cache Cache[T, ID], getID func(*T) ID, strategy CacheStrategy) *CachedRepository[T, ID] {
	return &CachedRepository[T, ID]{
		base:     base,
		cache:    cache,
		getID:    getID,
		strategy: strategy,
	}
}

func (r *CachedRepository[T, ID]) invalidate(ctx context.Context, ids ...ID) {
	if len(ids) == 0 {
		return
	}
	_ = r.cache.Invalidate(ctx, ids...)
	AfterCommit(ctx, func() {
		_ = r.cache.Invalidate(context.WithoutCancel(ctx), ids...)
	})
}

func (r *CachedRepository[T, ID]) written(ctx context.Context, item *T) {
	id := r.getID(item)
	if r.strategy != CacheStrategyWriteThrough {
		r.invalidate(ctx, id)
		return
	}
	_ = r.cache.Invalidate(ctx, id)
	snapshot := *item
	AfterCommit(ctx, func() {
		_ = r.cache.Set(context.WithoutCancel(ctx), &snapshot)
	})
}

// Get tries cache first, falls back to base on cache miss
func (r *CachedRepository[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	if InTx(ctx) {
		return r.base.Get(ctx, id)
	}

	item, err := r.cache.Get(ctx, id)
	if err == nil {
		return item, nil
	}

	// Cache miss or error - get from base
	item, err = r.base.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, item)

	return item, nil
}

// Create creates in base and manages cache based on strategy
func (r *CachedRepository[T, ID]) Create(ctx context.Context, item *T) error {
	if err := r.base.Create(ctx, item); err != nil {
		return err
	}
	r.written(ctx, item)
	return nil
}

// Update updates in base and refreshes or invalidates the cached copy
func (r *CachedRepository[T, ID]) Update(ctx context.Context, item *T) error {
	if err := r.base.Update(ctx, item); err != nil {
		return err
	}
	r.written(ctx, item)
	return nil
}

// UpdateField implements FieldUpdater
func (r *CachedRepository[T, ID]) UpdateField(ctx context.Context, id ID, field string, value any) error {
	if err := r.base.UpdateField(ctx, id, field, value); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Shift implements Shifter. The affected ids are read first so their cached
// copies can be dropped.
func (r *CachedRepository[T, ID]) Shift(ctx context.Context, filter *Filter, field string, delta int) (int64, error) {
	var n int64
	err := r.base.WithTx(ctx, func(ctx context.Context) error {
		var conditions []Condition
		if filter != nil {
			conditions = filter.Conditions
		}
		rows, err := r.base.Query(ctx, &Filter{Conditions: conditions})
		if err != nil {
			return err
		}

		n, err = r.base.Shift(ctx, filter, field, delta)
		if err != nil {
			return err
		}

		ids := make([]ID, len(rows))
		for i := range rows {
			ids[i] = r.getID(&rows[i])
		}
		r.invalidate(ctx, ids...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Delete deletes from base and invalidates cache
func (r *CachedRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	if err := r.base.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Query delegates to base (caching queries is complex and often not worthwhile)
func (r *CachedRepository[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	return r.base.Query(ctx, filter)
}

// Count delegates to base
func (r *CachedRepository[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	return r.base.Count(ctx, filter)
}

// BatchCreate creates in base and manages cache
func (r *CachedRepository[T, ID]) BatchCreate(ctx context.Context, items []T) error {
	if err := r.base.BatchCreate(ctx, items); err != nil {
		return err
	}
	for i := range items {
		r.written(ctx, &items[i])
	}
	return nil
}

// BatchDelete deletes from base and invalidates cache entries
func (r *CachedRepository[T, ID]) BatchDelete(ctx context.Context, ids []ID) error {
	if err := r.base.BatchDelete(ctx, ids); err != nil {
		return err
	}
	r.invalidate(ctx, ids...)
	return nil
}

// Exists checks base (cache might have stale data)
func (r *CachedRepository[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	return r.base.Exists(ctx, id)
}

// WithTx implements Transactional
func (r *CachedRepository[T, ID]) WithTx(ctx context.Context, fn TxFunc) error {
	return r.base.WithTx(ctx, fn)
}

// AddHook implements Hookable
func (r *CachedRepository[T, ID]) AddHook(hook Hook[T, ID]) {
	r.base.AddHook(hook)
}

// RemoveAllHooks implements Hookable
func (r *CachedRepository[T, ID]) RemoveAllHooks() {
	r.base.RemoveAllHooks()
}
