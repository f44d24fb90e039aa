// Package ordering keeps rows of a table in dense, 1-based ordered lists.
//
// A List is bound to one sietch.Store and reads and writes a nullable integer
// position column. Rows whose scope conditions select the same partition form
// one list. Every multi-row change runs in a single store transaction, with the
// other rows shifted before the moved row is written, so positions stay
// exactly 1..n after each operation.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seb7887/listkit/idgen"
	"github.com/seb7887/listkit/logging"
	"github.com/seb7887/listkit/sietch"
)

const tracerName = "github.com/seb7887/listkit/ordering"

// Accessors tell a List how to reach the fields it manages on T.
type Accessors[T any, ID comparable] struct {
	ID          func(*T) ID
	Position    func(*T) *int
	SetPosition func(*T, *int)

	// Scope returns the conditions selecting the list a row belongs to.
	// nil means a single list over the whole table.
	Scope func(*T) []sietch.Condition
}

// List maintains positions for the rows of one store.
type List[T any, ID comparable] struct {
	store  sietch.Store[T, ID]
	acc    Accessors[T, ID]
	opts   options
	tracer trace.Tracer
}

func New[T any, ID comparable](store sietch.Store[T, ID], acc Accessors[T, ID], opts ...Option) (*List[T, ID], error) {
	if store == nil {
		return nil, errors.New("ordering: store cannot be nil")
	}
	if acc.ID == nil || acc.Position == nil || acc.SetPosition == nil {
		return nil, errors.New("ordering: ID, Position and SetPosition accessors are required")
	}

	o := options{column: "position", idColumn: "id"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.column == "" || o.idColumn == "" {
		return nil, errors.New("ordering: column names cannot be empty")
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider()
	}

	return &List[T, ID]{
		store:  store,
		acc:    acc,
		opts:   o,
		tracer: o.tracer.Tracer(tracerName),
	}, nil
}

// Column returns the position column name
func (l *List[T, ID]) Column() string {
	return l.opts.column
}

// Policy returns the configured IncrementPolicy
func (l *List[T, ID]) Policy() IncrementPolicy {
	return l.opts.policy
}

func (l *List[T, ID]) scope(item *T) []sietch.Condition {
	if l.acc.Scope == nil {
		return nil
	}
	return l.acc.Scope(item)
}

// ScopeKey renders the scope of item, "" for the global list.
func (l *List[T, ID]) ScopeKey(item *T) string {
	conditions := l.scope(item)
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
	}
	return strings.Join(parts, " AND ")
}

func (l *List[T, ID]) inScope(item *T) *sietch.FilterBuilder {
	return sietch.NewFilter().And(l.scope(item)...)
}

// InList reports whether item holds a position
func (l *List[T, ID]) InList(item *T) bool {
	return item != nil && l.acc.Position(item) != nil
}

// Higher returns the row right above item, nil when item is first or not in the list.
func (l *List[T, ID]) Higher(ctx context.Context, item *T) (*T, error) {
	if !l.InList(item) {
		return nil, nil
	}
	return l.neighbor(ctx, item, *l.acc.Position(item)-1)
}

// Lower returns the row right below item, nil when item is last or not in the list.
func (l *List[T, ID]) Lower(ctx context.Context, item *T) (*T, error) {
	if !l.InList(item) {
		return nil, nil
	}
	return l.neighbor(ctx, item, *l.acc.Position(item)+1)
}

func (l *List[T, ID]) neighbor(ctx context.Context, item *T, target int) (*T, error) {
	if target < 1 {
		return nil, nil
	}
	rows, err := l.store.Query(ctx, l.inScope(item).
		Where(l.opts.column, sietch.OpEqual, target).
		Limit(2).
		Build())
	if err != nil {
		return nil, fmt.Errorf("find row at position %d: %w", target, err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	}
	l.opts.logger.WarnContext(ctx, "duplicate position",
		"scope", l.ScopeKey(item), "position", target,
		"ids", []ID{l.acc.ID(&rows[0]), l.acc.ID(&rows[1])})
	return nil, fmt.Errorf("%w: %d in scope %q", ErrDuplicatePosition, target, l.ScopeKey(item))
}

// BottomItem returns the row with the highest position in item's list,
// leaving out except when it is not nil.
func (l *List[T, ID]) BottomItem(ctx context.Context, item *T, except *T) (*T, error) {
	b := l.inScope(item).Where(l.opts.column, sietch.OpIsNotNull, nil)
	if except != nil {
		b = b.Where(l.opts.idColumn, sietch.OpNotEqual, l.acc.ID(except))
	}
	rows, err := l.store.Query(ctx, b.
		OrderBy(l.opts.column, sietch.SortDesc).
		Limit(1).
		Build())
	if err != nil {
		return nil, fmt.Errorf("find bottom row: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// BottomPosition is the position of BottomItem, 0 for an empty list.
func (l *List[T, ID]) BottomPosition(ctx context.Context, item *T, except *T) (int, error) {
	bottom, err := l.BottomItem(ctx, item, except)
	if err != nil || bottom == nil {
		return 0, err
	}
	return *l.acc.Position(bottom), nil
}

func (l *List[T, ID]) IsFirst(item *T) bool {
	return l.InList(item) && *l.acc.Position(item) == 1
}

func (l *List[T, ID]) IsLast(ctx context.Context, item *T) (bool, error) {
	if !l.InList(item) {
		return false, nil
	}
	bottom, err := l.BottomPosition(ctx, item, nil)
	if err != nil {
		return false, err
	}
	return *l.acc.Position(item) == bottom, nil
}

// Items returns the rows of item's list in position order
func (l *List[T, ID]) Items(ctx context.Context, item *T) ([]T, error) {
	rows, err := l.store.Query(ctx, l.inScope(item).
		Where(l.opts.column, sietch.OpIsNotNull, nil).
		OrderBy(l.opts.column, sietch.SortAsc).
		OrderBy(l.opts.idColumn, sietch.SortAsc).
		Build())
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return rows, nil
}

func (l *List[T, ID]) setPosition(ctx context.Context, row *T, p int) error {
	id := l.acc.ID(row)
	if err := l.store.UpdateField(ctx, id, l.opts.column, p); err != nil {
		return fmt.Errorf("set position of %v: %w", id, err)
	}
	return nil
}

func (l *List[T, ID]) shift(ctx context.Context, item *T, op sietch.Operator, pos, delta int) (int64, error) {
	n, err := l.store.Shift(ctx, l.inScope(item).Where(l.opts.column, op, pos).Build(), l.opts.column, delta)
	if err != nil {
		return 0, fmt.Errorf("shift rows %s %d by %d: %w", op, pos, delta, err)
	}
	return n, nil
}

// change describes what an operation did. An empty kind publishes nothing.
type change struct {
	kind    EventKind
	from    *int
	to      *int
	shifted int64

	// scope of the stored row when it differs from the caller's copy
	scope string
	// planned changes computed a position without writing it
	planned bool
}

func intPtr(v int) *int {
	return &v
}

func posValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// run executes fn inside one store transaction, serialized per scope when a
// Serializer is configured. The serializer key and span scope come from item.
// fn returns a nil change for a no-op.
func (l *List[T, ID]) run(ctx context.Context, op string, item *T, fn func(ctx context.Context) (*change, error)) (*change, error) {
	start := time.Now()
	key := l.ScopeKey(item)
	itemID := fmt.Sprint(l.acc.ID(item))

	ctx, span := l.tracer.Start(ctx, "ordering."+op, trace.WithAttributes(
		attribute.String("ordering.op", op),
		attribute.String("ordering.scope", key),
		attribute.String("ordering.item_id", itemID),
	))
	defer span.End()

	var ch *change
	err := l.opts.serializer.Do(ctx, key, func(ctx context.Context) error {
		return l.store.WithTx(ctx, func(ctx context.Context) error {
			var err error
			ch, err = fn(ctx)
			if err != nil || ch == nil {
				return err
			}
			scope := key
			if ch.scope != "" {
				scope = ch.scope
			}
			l.publish(ctx, op, scope, itemID, ch)
			return nil
		})
	})

	result := resultMoved
	var shifted int64
	switch {
	case err != nil:
		result = resultError
		ch = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.opts.logger.ErrorContext(ctx, "list operation failed",
			"op", op, "scope", key, "item", itemID, "error", err)
	case ch == nil:
		result = resultNoop
		l.opts.logger.DebugContext(ctx, "list operation skipped", "op", op, "scope", key, "item", itemID)
	default:
		if ch.planned {
			result = resultPlanned
		}
		shifted = ch.shifted
		span.SetAttributes(attribute.Int64("ordering.shifted", shifted))
		l.opts.logger.DebugContext(ctx, "list operation",
			"op", op, "scope", key, "item", itemID,
			"from", posValue(ch.from), "to", posValue(ch.to), "shifted", shifted)
	}
	span.SetAttributes(attribute.String("ordering.result", result))
	l.opts.metrics.record(op, result, shifted, time.Since(start))

	return ch, err
}

// publish queues an Event for after the surrounding transaction commits
func (l *List[T, ID]) publish(ctx context.Context, op, scope, itemID string, ch *change) {
	if l.opts.bus == nil || ch.kind == "" {
		return
	}
	event := Event{
		ID:      idgen.NewUUID(),
		Kind:    ch.kind,
		Op:      op,
		Scope:   scope,
		ItemID:  itemID,
		From:    ch.from,
		To:      ch.to,
		Shifted: ch.shifted,
		At:      time.Now().UTC(),
	}
	sietch.AfterCommit(ctx, func() {
		if err := l.opts.bus.Publish(l.opts.topic, event); err != nil {
			l.opts.logger.WarnContext(ctx, "publish list event", "op", op, "item", itemID, "error", err)
		}
	})
}
