package ordering

import (
	"context"
	"errors"

	"github.com/seb7887/listkit/sietch"
)

// AddToListBottom gives item the position after the current bottom of its
// list. It does not write item; call it inside the transaction that inserts
// it, which is what the BeforeCreate hook does. Outside a transaction the
// position is only planned and no event is published.
func (l *List[T, ID]) AddToListBottom(ctx context.Context, item *T) error {
	planned := !sietch.InTx(ctx)
	ch, err := l.run(ctx, "add_to_list_bottom", item, func(ctx context.Context) (*change, error) {
		bottom, err := l.BottomPosition(ctx, item, nil)
		if err != nil {
			return nil, err
		}
		ch := &change{to: intPtr(bottom + 1), planned: planned}
		if !planned {
			ch.kind = EventAdded
		}
		return ch, nil
	})
	if err != nil {
		return err
	}
	l.acc.SetPosition(item, intPtr(*ch.to))
	return nil
}

// DecrementPositionsOnLowerItems moves every row below item up by one. It
// must run in the transaction that removes item, while item still carries
// its position.
func (l *List[T, ID]) DecrementPositionsOnLowerItems(ctx context.Context, item *T) error {
	_, err := l.run(ctx, "decrement_lower", item, func(ctx context.Context) (*change, error) {
		if !l.InList(item) {
			return nil, nil
		}
		pos := *l.acc.Position(item)
		n, err := l.shift(ctx, item, sietch.OpGreaterThan, pos, -1)
		if err != nil {
			return nil, err
		}
		return &change{kind: EventRemoved, from: intPtr(pos), shifted: n}, nil
	})
	return err
}

// IncrementPositionsOnHigherItems moves every row above item down by one.
func (l *List[T, ID]) IncrementPositionsOnHigherItems(ctx context.Context, item *T) error {
	_, err := l.run(ctx, "increment_higher", item, func(ctx context.Context) (*change, error) {
		if !l.InList(item) {
			return nil, nil
		}
		n, err := l.shift(ctx, item, sietch.OpLessThan, *l.acc.Position(item), 1)
		if err != nil {
			return nil, err
		}
		return &change{shifted: n}, nil
	})
	return err
}

// keepPosition copies the stored position onto item before a full-row
// update, so only moves change positions. When the scope of item differs from
// the stored one the row leaves its old list and joins the bottom of the new
// one. Rows outside any list stay outside.
func (l *List[T, ID]) keepPosition(ctx context.Context, item *T) error {
	cur, err := l.store.Get(ctx, l.acc.ID(item))
	if errors.Is(err, sietch.ErrItemNotFound) {
		// the update itself reports the missing row
		return nil
	}
	if err != nil {
		return err
	}

	if !l.InList(cur) || l.ScopeKey(cur) == l.ScopeKey(item) {
		var pos *int
		if p := l.acc.Position(cur); p != nil {
			pos = intPtr(*p)
		}
		l.acc.SetPosition(item, pos)
		return nil
	}

	if err := l.DecrementPositionsOnLowerItems(ctx, cur); err != nil {
		return err
	}
	return l.AddToListBottom(ctx, item)
}

type listHook[T any, ID comparable] struct {
	sietch.BaseHook[T, ID]
	list *List[T, ID]
}

func (h *listHook[T, ID]) BeforeCreate(ctx context.Context, item *T) error {
	return h.list.AddToListBottom(ctx, item)
}

func (h *listHook[T, ID]) BeforeUpdate(ctx context.Context, item *T) error {
	return h.list.keepPosition(ctx, item)
}

// BeforeDelete closes the gap and clears the position, so a soft-deleted row
// is stored outside the list.
func (h *listHook[T, ID]) BeforeDelete(ctx context.Context, item *T) error {
	if err := h.list.DecrementPositionsOnLowerItems(ctx, item); err != nil {
		return err
	}
	h.list.acc.SetPosition(item, nil)
	return nil
}

// Hook returns the lifecycle hook appending created rows, keeping positions
// across full-row updates and closing the gap left by deleted ones.
func (l *List[T, ID]) Hook() sietch.Hook[T, ID] {
	return &listHook[T, ID]{list: l}
}

// Attach registers Hook on store
func (l *List[T, ID]) Attach(store sietch.Hookable[T, ID]) {
	store.AddHook(l.Hook())
}
