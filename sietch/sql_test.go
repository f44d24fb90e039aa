package sietch

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/listkit/internal/testutils"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSQLItems(t *testing.T, db *sql.DB) *SQLConnector[testutils.Item, string] {
	t.Helper()
	ctx := context.Background()

	repo, err := NewSQLConnector[testutils.Item](db, "items", func(i *testutils.Item) string { return i.ID })
	require.NoError(t, err)

	def, err := InferTableDef[testutils.Item]("items")
	require.NoError(t, err)
	def.Indexes = append(def.Indexes, ListIndex("items", []string{"list_id"}, "position"))
	require.NoError(t, repo.CreateTable(ctx, def))
	return repo
}

func TestSQLConnector_CRUD(t *testing.T) {
	db := openTestDB(t)
	repo := newSQLItems(t, db)
	ctx := context.Background()

	item := &testutils.Item{ID: "a", ListID: "l1", Name: "Milk", Position: testutils.IntPtr(1)}
	require.NoError(t, repo.Create(ctx, item))
	assert.ErrorIs(t, repo.Create(ctx, item), ErrItemAlreadyExists)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)

	require.NoError(t, repo.BatchCreate(ctx, []testutils.Item{
		{ID: "b", ListID: "l1", Name: "Bread"},
		{ID: "c", ListID: "l2", Name: "Eggs", Position: testutils.IntPtr(1)},
	}))

	got.Name = "Oat milk"
	require.NoError(t, repo.Update(ctx, got))
	assert.ErrorIs(t, repo.Update(ctx, &testutils.Item{ID: "zz"}), ErrNoUpdateItem)

	require.NoError(t, repo.UpdateField(ctx, "b", "position", 2))
	require.NoError(t, repo.UpdateField(ctx, "c", "position", nil))
	assert.ErrorIs(t, repo.UpdateField(ctx, "zz", "position", 1), ErrNoUpdateItem)
	assert.ErrorIs(t, repo.UpdateField(ctx, "b", "rank", 1), ErrUnknownField)

	results, err := repo.Query(ctx, NewFilter().
		Where("list_id", OpEqual, "l1").
		OrderBy("position", SortDesc).
		Build())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, "Oat milk", results[1].Name)

	c, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, c.Position)

	n, err := repo.Count(ctx, NewFilter().Where("position", OpIsNull, nil).Build())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ilike, err := repo.Query(ctx, NewFilter().Where("name", OpILike, "OAT%").Build())
	require.NoError(t, err)
	assert.Len(t, ilike, 1)

	exists, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrItemNotFound)
	require.NoError(t, repo.BatchDelete(ctx, []string{"b", "c"}))

	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLConnector_Shift(t *testing.T) {
	db := openTestDB(t)
	repo := newSQLItems(t, db)
	ctx := context.Background()

	require.NoError(t, repo.BatchCreate(ctx, []testutils.Item{
		{ID: "a", ListID: "l1", Position: testutils.IntPtr(1)},
		{ID: "b", ListID: "l1", Position: testutils.IntPtr(2)},
		{ID: "c", ListID: "l1", Position: testutils.IntPtr(3)},
		{ID: "d", ListID: "l2", Position: testutils.IntPtr(1)},
	}))

	n, err := repo.Shift(ctx, NewFilter().
		Where("list_id", OpEqual, "l1").
		Where("position", OpLessThan, 3).
		Build(), "position", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, want := range map[string]int{"a": 2, "b": 3, "c": 3, "d": 1} {
		item, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, item.Position)
		assert.Equal(t, want, *item.Position, "item %s", id)
	}
}

func TestSQLConnector_WithTx(t *testing.T) {
	db := openTestDB(t)
	repo := newSQLItems(t, db)
	ctx := context.Background()

	boom := errors.New("boom")
	committed := false
	err := repo.WithTx(ctx, func(ctx context.Context) error {
		AfterCommit(ctx, func() { committed = true })
		if err := repo.Create(ctx, &testutils.Item{ID: "a", ListID: "l1"}); err != nil {
			return err
		}
		// nested call joins instead of opening a second transaction
		if err := repo.WithTx(ctx, func(ctx context.Context) error {
			return repo.UpdateField(ctx, "a", "position", 1)
		}); err != nil {
			return err
		}
		item, err := repo.Get(ctx, "a")
		if err != nil {
			return err
		}
		if item.Position == nil || *item.Position != 1 {
			return errors.New("write not visible inside the transaction")
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, committed)

	exists, err := repo.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.WithTx(ctx, func(ctx context.Context) error {
		AfterCommit(ctx, func() { committed = true })
		return repo.Create(ctx, &testutils.Item{ID: "a", ListID: "l1"})
	})
	require.NoError(t, err)
	assert.True(t, committed)
}

func TestSQLConnector_SoftDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	repo, err := NewSQLConnector[testutils.ArchivedItem](db, "archived", func(i *testutils.ArchivedItem) string { return i.ID })
	require.NoError(t, err)
	def, err := InferTableDef[testutils.ArchivedItem]("archived")
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx, def))

	require.NoError(t, repo.Create(ctx, &testutils.ArchivedItem{ID: "a", ListID: "l1", Position: testutils.IntPtr(1)}))
	require.NoError(t, repo.Delete(ctx, "a"))

	item, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, item.Deleted)
	assert.NotNil(t, item.DeletedAt)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrItemNotFound)

	require.NoError(t, repo.DropTable(ctx))
}

type countingLogger struct {
	NoOpLogger
	queries int
}

func (l *countingLogger) LogQuery(context.Context, string, string, []any, time.Duration, error) {
	l.queries++
}

func TestSQLConnector_Logger(t *testing.T) {
	db := openTestDB(t)
	repo := newSQLItems(t, db)
	ctx := context.Background()

	logger := &countingLogger{}
	repo.SetLogger(logger)
	assert.Same(t, logger, repo.GetLogger())

	require.NoError(t, repo.Create(ctx, &testutils.Item{ID: "a"}))
	_, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, logger.queries)

	repo.SetLogger(nil)
	assert.IsType(t, &NoOpLogger{}, repo.GetLogger())
}
