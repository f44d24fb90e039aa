package ordering

import (
	"context"
	"fmt"
)

// Verify checks that the positions of item's list are exactly 1..n.
// Duplicates fail with ErrDuplicatePosition, gaps with ErrNotContiguous.
func (l *List[T, ID]) Verify(ctx context.Context, item *T) error {
	rows, err := l.Items(ctx, item)
	if err != nil {
		return err
	}

	for i := 1; i < len(rows) && err == nil; i++ {
		if p := *l.acc.Position(&rows[i]); p == *l.acc.Position(&rows[i-1]) {
			err = fmt.Errorf("%w: %d held by %v and %v", ErrDuplicatePosition, p, l.acc.ID(&rows[i-1]), l.acc.ID(&rows[i]))
		}
	}
	for i := 0; i < len(rows) && err == nil; i++ {
		if p := *l.acc.Position(&rows[i]); p != i+1 {
			err = fmt.Errorf("%w: expected %d, %v is at %d", ErrNotContiguous, i+1, l.acc.ID(&rows[i]), p)
		}
	}
	if err != nil {
		l.opts.logger.WarnContext(ctx, "list integrity", "scope", l.ScopeKey(item), "rows", len(rows), "error", err)
	}
	return err
}
