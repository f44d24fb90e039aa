package ordering

import (
	"context"

	"github.com/seb7887/listkit/sietch"
	"github.com/seb7887/listkit/wp"
)

type serialKey struct{}

// Serializer runs list operations of the same scope one after another on a
// shared worker. It cuts down conflicts on stores that abort concurrent
// transactions (serializable isolation) without changing results.
//
// Calls made while ctx already carries a transaction, or from inside a
// serialized operation, run inline on the caller's goroutine.
type Serializer struct {
	pool *wp.Pool
}

func NewSerializer(workers, queue int) *Serializer {
	return &Serializer{pool: wp.NewPool(workers, queue)}
}

// Do runs fn on the worker owning key and waits for it. It gives up with
// ctx's error while the worker's queue stays full.
func (s *Serializer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s == nil || sietch.InTx(ctx) || ctx.Value(serialKey{}) != nil {
		return fn(ctx)
	}

	type outcome struct {
		err       error
		recovered any
	}
	done := make(chan outcome, 1)
	err := s.pool.SubmitContext(ctx, key, func() {
		defer func() {
			// hand panics back to the caller instead of killing the worker
			if r := recover(); r != nil {
				done <- outcome{recovered: r}
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{err: fn(context.WithValue(ctx, serialKey{}, key))}
	})
	if err != nil {
		return err
	}
	out := <-done
	if out.recovered != nil {
		panic(out.recovered)
	}
	return out.err
}

// Close waits for queued operations and stops the workers.
func (s *Serializer) Close() {
	s.pool.Stop()
}
