package sietch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seb7887/listkit/internal/testutils"
)

// startCockroach runs a single insecure node and returns a DSN for it
func startCockroach(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:latest-v24.3",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	}

	node, err := testcontainers.GenericContainer(ctx, req)
	t.Cleanup(func() {
		if node != nil {
			_ = node.Terminate(context.Background())
		}
	})
	require.NoError(t, err)

	host, err := node.Host(ctx)
	require.NoError(t, err)
	port, err := node.MappedPort(ctx, "26257/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgresql://root@%s:%s/defaultdb?sslmode=disable", host, port.Port())
}

func TestCockroachDBConnector_Integration(t *testing.T) {
	dsn := startCockroach(t)
	ctx := context.Background()

	pool, err := NewCockroachDBConnPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo, err := NewCockroachDBConnector[testutils.Item](pool, "items", func(i *testutils.Item) string { return i.ID })
	require.NoError(t, err)

	def, err := InferTableDef[testutils.Item]("items")
	require.NoError(t, err)
	def.Indexes = append(def.Indexes, ListIndex("items", []string{"list_id"}, "position"))
	require.NoError(t, repo.CreateTable(ctx, def))
	t.Cleanup(func() { _ = repo.DropTable(context.Background()) })

	t.Run("crud", func(t *testing.T) {
		item := &testutils.Item{ID: "a", ListID: "l1", Name: "Milk", Position: testutils.IntPtr(1)}
		require.NoError(t, repo.Create(ctx, item))
		assert.ErrorIs(t, repo.Create(ctx, item), ErrItemAlreadyExists)

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, item, got)

		require.NoError(t, repo.UpdateField(ctx, "a", "position", nil))
		got, err = repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, got.Position)

		require.NoError(t, repo.Delete(ctx, "a"))
		_, err = repo.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("shift inside a rolled back transaction", func(t *testing.T) {
		require.NoError(t, repo.BatchCreate(ctx, []testutils.Item{
			{ID: "x", ListID: "l2", Position: testutils.IntPtr(1)},
			{ID: "y", ListID: "l2", Position: testutils.IntPtr(2)},
		}))

		boom := errors.New("boom")
		err := repo.WithTx(ctx, func(ctx context.Context) error {
			n, err := repo.Shift(ctx, NewFilter().Where("list_id", OpEqual, "l2").Build(), "position", 1)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(2), n)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		rows, err := repo.Query(ctx, NewFilter().Where("list_id", OpEqual, "l2").OrderBy("position", SortAsc).Build())
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, *rows[0].Position)
		assert.Equal(t, 2, *rows[1].Position)
	})
}
