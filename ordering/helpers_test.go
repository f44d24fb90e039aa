package ordering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seb7887/listkit/internal/testutils"
	"github.com/seb7887/listkit/sietch"
)

type itemStore = sietch.Store[testutils.Item, string]

func itemID(i *testutils.Item) string { return i.ID }

func itemAccessors() Accessors[testutils.Item, string] {
	return Accessors[testutils.Item, string]{
		ID:          itemID,
		Position:    func(i *testutils.Item) *int { return i.Position },
		SetPosition: func(i *testutils.Item, p *int) { i.Position = p },
		Scope: func(i *testutils.Item) []sietch.Condition {
			return []sietch.Condition{{Field: "list_id", Operator: sietch.OpEqual, Value: i.ListID}}
		},
	}
}

func newMemoryStore(t *testing.T) itemStore {
	t.Helper()
	return sietch.NewInMemoryConnector[testutils.Item](itemID)
}

func newSQLiteStore(t *testing.T) itemStore {
	t.Helper()
	ctx := context.Background()

	db, err := sietch.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := sietch.NewSQLConnector[testutils.Item](db, "items", itemID)
	require.NoError(t, err)
	def, err := sietch.InferTableDef[testutils.Item]("items")
	require.NoError(t, err)
	def.Indexes = append(def.Indexes, sietch.ListIndex("items", []string{"list_id"}, "position"))
	require.NoError(t, repo.CreateTable(ctx, def))
	return repo
}

var storeFactories = []struct {
	name string
	new  func(t *testing.T) itemStore
}{
	{"inmemory", newMemoryStore},
	{"sqlite", newSQLiteStore},
}

// forEachStore runs fn against every store implementation
func forEachStore(t *testing.T, fn func(t *testing.T, store itemStore)) {
	for _, f := range storeFactories {
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.new(t))
		})
	}
}

// newList builds a list over store with its lifecycle hook attached
func newList(t *testing.T, store itemStore, opts ...Option) *List[testutils.Item, string] {
	t.Helper()
	l, err := New[testutils.Item, string](store, itemAccessors(), opts...)
	require.NoError(t, err)
	l.Attach(store)
	return l
}

func add(t *testing.T, store itemStore, listID string, ids ...string) []*testutils.Item {
	t.Helper()
	items := make([]*testutils.Item, len(ids))
	for i, id := range ids {
		item := &testutils.Item{ID: id, ListID: listID, Name: id}
		require.NoError(t, store.Create(context.Background(), item))
		items[i] = item
	}
	return items
}

// order returns the ids of listID in position order after checking the
// list is contiguous
func order(t *testing.T, l *List[testutils.Item, string], listID string) []string {
	t.Helper()
	scope := &testutils.Item{ListID: listID}
	require.NoError(t, l.Verify(context.Background(), scope))

	rows, err := l.Items(context.Background(), scope)
	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	return ids
}

func positionOf(t *testing.T, store itemStore, id string) *int {
	t.Helper()
	item, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return item.Position
}
