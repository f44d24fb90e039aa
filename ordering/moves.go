package ordering

import (
	"context"
	"fmt"

	"github.com/seb7887/listkit/sietch"
)

// move reloads item inside the operation's transaction and hands the stored
// row to fn. Only the id of item is read, so a row holding just its id is
// enough. On success item gets the resulting position, or the stored one
// when nothing moved.
func (l *List[T, ID]) move(ctx context.Context, op string, item *T, fn func(ctx context.Context, cur *T) (*change, error)) error {
	if item == nil {
		return ErrNoID
	}
	var zero ID
	id := l.acc.ID(item)
	if id == zero {
		return ErrNoID
	}

	// item may carry only its id, route by the stored scope
	keyItem := item
	if l.opts.serializer != nil && !sietch.InTx(ctx) {
		if cur, err := l.store.Get(ctx, id); err == nil {
			keyItem = cur
		}
	}

	var stored *int
	ch, err := l.run(ctx, op, keyItem, func(ctx context.Context) (*change, error) {
		cur, err := l.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load %v: %w", id, err)
		}
		if p := l.acc.Position(cur); p != nil {
			stored = intPtr(*p)
		}
		ch, err := fn(ctx, cur)
		if ch != nil {
			ch.scope = l.ScopeKey(cur)
		}
		return ch, err
	})
	if err != nil {
		return err
	}
	if ch != nil {
		stored = ch.to
	}
	if stored != nil {
		stored = intPtr(*stored)
	}
	l.acc.SetPosition(item, stored)
	return nil
}

// MoveLower swaps item with the row below it. No-op at the bottom.
func (l *List[T, ID]) MoveLower(ctx context.Context, item *T) error {
	return l.move(ctx, "move_lower", item, func(ctx context.Context, cur *T) (*change, error) {
		lower, err := l.Lower(ctx, cur)
		if err != nil || lower == nil {
			return nil, err
		}
		pos := *l.acc.Position(cur)
		if err := l.setPosition(ctx, lower, pos); err != nil {
			return nil, err
		}
		if err := l.setPosition(ctx, cur, pos+1); err != nil {
			return nil, err
		}
		return &change{kind: EventMoved, from: intPtr(pos), to: intPtr(pos + 1), shifted: 1}, nil
	})
}

// MoveHigher swaps item with the row above it. No-op at the top.
func (l *List[T, ID]) MoveHigher(ctx context.Context, item *T) error {
	return l.move(ctx, "move_higher", item, func(ctx context.Context, cur *T) (*change, error) {
		higher, err := l.Higher(ctx, cur)
		if err != nil || higher == nil {
			return nil, err
		}
		pos := *l.acc.Position(cur)
		if err := l.setPosition(ctx, higher, pos); err != nil {
			return nil, err
		}
		if err := l.setPosition(ctx, cur, pos-1); err != nil {
			return nil, err
		}
		return &change{kind: EventMoved, from: intPtr(pos), to: intPtr(pos - 1), shifted: 1}, nil
	})
}

// MoveToBottom closes the gap below item and puts it after the last row.
func (l *List[T, ID]) MoveToBottom(ctx context.Context, item *T) error {
	return l.move(ctx, "move_to_bottom", item, func(ctx context.Context, cur *T) (*change, error) {
		if !l.InList(cur) {
			return nil, nil
		}
		pos := *l.acc.Position(cur)

		n, err := l.shift(ctx, cur, sietch.OpGreaterThan, pos, -1)
		if err != nil {
			return nil, err
		}
		bottom, err := l.BottomPosition(ctx, cur, cur)
		if err != nil {
			return nil, err
		}
		to := bottom + 1
		if to == pos {
			return nil, nil
		}
		if err := l.setPosition(ctx, cur, to); err != nil {
			return nil, err
		}
		return &change{kind: EventMoved, from: intPtr(pos), to: intPtr(to), shifted: n}, nil
	})
}

// MoveToTop pushes every row above item down by one and puts item at 1.
func (l *List[T, ID]) MoveToTop(ctx context.Context, item *T) error {
	return l.move(ctx, "move_to_top", item, func(ctx context.Context, cur *T) (*change, error) {
		if !l.InList(cur) {
			return nil, nil
		}
		pos := *l.acc.Position(cur)
		if pos == 1 {
			return nil, nil
		}

		n, err := l.shift(ctx, cur, sietch.OpLessThan, pos, 1)
		if err != nil {
			return nil, err
		}
		if err := l.setPosition(ctx, cur, 1); err != nil {
			return nil, err
		}
		return &change{kind: EventMoved, from: intPtr(pos), to: intPtr(1), shifted: n}, nil
	})
}

// IncrementPosition adds one to item's position and touches no other row,
// so on its own it leaves a duplicate behind. Pair it with a compensating
// write in the same transaction.
func (l *List[T, ID]) IncrementPosition(ctx context.Context, item *T) error {
	return l.move(ctx, "increment_position", item, func(ctx context.Context, cur *T) (*change, error) {
		if !l.InList(cur) {
			return nil, nil
		}
		pos := *l.acc.Position(cur)
		if l.opts.policy == IncrementSkipTop && pos == 1 {
			return nil, nil
		}
		if err := l.setPosition(ctx, cur, pos+1); err != nil {
			return nil, err
		}
		return &change{from: intPtr(pos), to: intPtr(pos + 1)}, nil
	})
}

// DecrementPosition subtracts one from item's position with the same caveat
// as IncrementPosition. Unlike a bare decrement it refuses to leave the list:
// at position 1 it fails with ErrPositionOutOfRange and writes nothing.
func (l *List[T, ID]) DecrementPosition(ctx context.Context, item *T) error {
	return l.move(ctx, "decrement_position", item, func(ctx context.Context, cur *T) (*change, error) {
		if !l.InList(cur) {
			return nil, nil
		}
		pos := *l.acc.Position(cur)
		if pos <= 1 {
			return nil, fmt.Errorf("%w: cannot decrement position %d", ErrPositionOutOfRange, pos)
		}
		if err := l.setPosition(ctx, cur, pos-1); err != nil {
			return nil, err
		}
		return &change{from: intPtr(pos), to: intPtr(pos - 1)}, nil
	})
}
