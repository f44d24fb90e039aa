package sietch

import (
	"context"
)

// WithTx executes the given function within a transaction simulation.
// For InMemory connector, this creates a snapshot of the data, executes the function,
// and either commits (keeps changes) or rollbacks (restores snapshot) based on the result.
// Calls made with a ctx that already carries this connector's transaction join it.
func (r *InMemoryConnector[T, ID]) WithTx(ctx context.Context, fn TxFunc) error {
	if _, ok := txFromContext(ctx, r); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.txMu.Lock()

	r.mu.RLock()
	snapshot := make(map[ID]*T, len(r.data))
	for k, v := range r.data {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	rollback := func() {
		r.mu.Lock()
		r.data = snapshot
		r.mu.Unlock()
		r.txMu.Unlock()
	}

	finished := false
	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			if !finished {
				rollback()
			}
			panic(p)
		}
	}()

	state := &txState{owner: r}
	err := fn(withTxState(ctx, state))
	if err == nil {
		// a cancelled context aborts the transaction like a failed commit would
		err = ctx.Err()
	}
	finished = true
	if err != nil {
		rollback()
		return err
	}

	r.txMu.Unlock()
	state.committed()
	return nil
}
