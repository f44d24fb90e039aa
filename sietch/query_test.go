package sietch

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seb7887/listkit/internal/testutils"
)

// createQueryTestConnector builds a connector whose pool is never used
func createQueryTestConnector(t *testing.T, tableName string) *CockroachDBConnector[testutils.Account, int64] {
	t.Helper()
	mockPool := &pgxpool.Pool{}
	conn, err := NewCockroachDBConnector[testutils.Account, int64](
		mockPool,
		tableName,
		func(account *testutils.Account) int64 {
			return account.ID
		})
	if err != nil {
		t.Fatalf("Failed to create test connector: %s", err)
	}
	return conn
}

func TestNewCockroachDBConnector(t *testing.T) {
	getID := func(a *testutils.Account) int64 { return a.ID }

	if _, err := NewCockroachDBConnector[testutils.Account, int64](nil, "accounts", getID); err == nil {
		t.Error("expected error for nil pool")
	}
	if _, err := NewCockroachDBConnector[testutils.Account, int64](&pgxpool.Pool{}, "accounts", nil); err == nil {
		t.Error("expected error for nil getID")
	}
	if _, err := NewCockroachDBConnector[testutils.Account, int64](&pgxpool.Pool{}, `accounts"; --`, getID); err == nil {
		t.Error("expected error for invalid table name")
	}

	conn := createQueryTestConnector(t, "accounts")
	if len(conn.builder.columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(conn.builder.columns))
	}
}

func TestCockroachDBConnector_StatementFormats(t *testing.T) {
	conn := createQueryTestConnector(t, "accounts")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"insert", conn.builder.insertQuery(), `INSERT INTO "accounts" ("id", "balance") VALUES ($1, $2)`},
		{"get", conn.builder.getQuery(), `SELECT "id", "balance" FROM "accounts" WHERE "id" = $1`},
		{"update", conn.builder.updateQuery(), `UPDATE "accounts" SET "balance" = $1 WHERE "id" = $2`},
		{"delete", conn.builder.deleteQuery(), `DELETE FROM "accounts" WHERE "id" = $1`},
		{"exists", conn.builder.existsQuery(), `SELECT EXISTS(SELECT 1 FROM "accounts" WHERE "id" = $1)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected: %s\nGot: %s", tt.expected, tt.got)
			}
		})
	}

	values := conn.meta.getValues(&testutils.Account{ID: 5, Balance: 250})
	if len(values) != 2 || values[0] != int64(5) || values[1] != 250 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestCockroachDBQueryBuilder(t *testing.T) {
	conn := createQueryTestConnector(t, "accounts")

	tests := []struct {
		name          string
		filter        *Filter
		expectedQuery string
		expectedArgs  int
	}{
		{
			name:          "nil filter",
			filter:        nil,
			expectedQuery: `SELECT "id", "balance" FROM "accounts"`,
		},
		{
			name:          "OpIn operator",
			filter:        NewFilter().Where("id", OpIn, []int64{1, 2, 3}).Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "id" IN ($1, $2, $3)`,
			expectedArgs:  3,
		},
		{
			name:          "OpNotIn operator",
			filter:        NewFilter().Where("balance", OpNotIn, []int{100, 200}).Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" NOT IN ($1, $2)`,
			expectedArgs:  2,
		},
		{
			name:          "OpILike operator",
			filter:        NewFilter().Where("balance", OpILike, "%TEST%").Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" ILIKE $1`,
			expectedArgs:  1,
		},
		{
			name:          "OpIsNull operator",
			filter:        NewFilter().Where("balance", OpIsNull, nil).Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" IS NULL`,
		},
		{
			name:          "OpBetween operator",
			filter:        NewFilter().Where("balance", OpBetween, []int{100, 500}).Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" BETWEEN $1 AND $2`,
			expectedArgs:  2,
		},
		{
			name: "multiple conditions keep placeholder numbering",
			filter: NewFilter().
				Where("balance", OpGreaterThan, 100).
				Where("id", OpIn, []int64{1, 2, 3}).
				Where("balance", OpLessThan, 1000).
				Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" > $1 AND "id" IN ($2, $3, $4) AND "balance" < $5`,
			expectedArgs:  5,
		},
		{
			name: "sort limit and offset",
			filter: NewFilter().
				Where("balance", OpGreaterThan, 100).
				OrderBy("balance", SortDesc).
				OrderBy("id", SortAsc).
				Limit(5).
				Offset(10).
				Build(),
			expectedQuery: `SELECT "id", "balance" FROM "accounts" WHERE "balance" > $1 ORDER BY "balance" DESC, "id" ASC LIMIT 5 OFFSET 10`,
			expectedArgs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := conn.queryBuilder(tt.filter)
			if err != nil {
				t.Fatalf("queryBuilder failed: %v", err)
			}
			if query != tt.expectedQuery {
				t.Errorf("Expected: %s\nGot: %s", tt.expectedQuery, query)
			}
			if len(args) != tt.expectedArgs {
				t.Errorf("Expected %d args, got %d", tt.expectedArgs, len(args))
			}
		})
	}
}

func TestCockroachDBQueryBuilderErrors(t *testing.T) {
	conn := createQueryTestConnector(t, "accounts")

	tests := []struct {
		name   string
		filter *Filter
	}{
		{"Invalid field name", NewFilter().Where("invalid_field", OpEqual, 100).Build()},
		{"Invalid sort field", NewFilter().OrderBy("invalid_field", SortAsc).Build()},
		{"OpIn with non-slice value", NewFilter().Where("id", OpIn, 123).Build()},
		{"OpNotIn with non-slice value", NewFilter().Where("id", OpNotIn, "invalid").Build()},
		{"OpBetween with non-slice value", NewFilter().Where("balance", OpBetween, 100).Build()},
		{"OpBetween with wrong slice length", NewFilter().Where("balance", OpBetween, []int{100}).Build()},
		{"OpIn with empty slice", NewFilter().Where("id", OpIn, []int64{}).Build()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := conn.queryBuilder(tt.filter); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestShiftQuery(t *testing.T) {
	builder, err := newSQLBuilder[testutils.Item]("items", dollarPlaceholders)
	if err != nil {
		t.Fatalf("newSQLBuilder failed: %v", err)
	}

	filter := NewFilter().
		Where("list_id", OpEqual, "groceries").
		Where("position", OpGreaterThan, 2).
		Build()

	query, args, err := builder.shiftQuery(filter, "position", -1)
	if err != nil {
		t.Fatalf("shiftQuery failed: %v", err)
	}

	expected := `UPDATE "items" SET "position" = "position" + $1 WHERE "list_id" = $2 AND "position" > $3`
	if query != expected {
		t.Errorf("Expected: %s\nGot: %s", expected, query)
	}
	if len(args) != 3 || args[0] != -1 || args[1] != "groceries" || args[2] != 2 {
		t.Errorf("unexpected args %v", args)
	}

	if _, _, err := builder.shiftQuery(filter, "rank", 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestQuestionPlaceholders(t *testing.T) {
	builder, err := newSQLBuilder[testutils.Item]("items", questionPlaceholders)
	if err != nil {
		t.Fatalf("newSQLBuilder failed: %v", err)
	}

	query, args, err := builder.queryBuilder(NewFilter().
		Where("name", OpILike, "MILK%").
		Where("position", OpIn, []int{1, 2}).
		Offset(3).
		Build())
	if err != nil {
		t.Fatalf("queryBuilder failed: %v", err)
	}

	expected := `SELECT "id", "list_id", "name", "position" FROM "items" WHERE LOWER("name") LIKE LOWER(?) AND "position" IN (?, ?) LIMIT -1 OFFSET 3`
	if query != expected {
		t.Errorf("Expected: %s\nGot: %s", expected, query)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d", len(args))
	}

	update, err := builder.updateFieldQuery("position")
	if err != nil {
		t.Fatalf("updateFieldQuery failed: %v", err)
	}
	if update != `UPDATE "items" SET "position" = ? WHERE "id" = ?` {
		t.Errorf("unexpected update statement %s", update)
	}
}
