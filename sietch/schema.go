package sietch

import (
	"fmt"
	"reflect"
	"strings"
)

// ColumnType represents SQL column data types
type ColumnType string

const (
	ColumnTypeInteger   ColumnType = "INTEGER"
	ColumnTypeBigInt    ColumnType = "BIGINT"
	ColumnTypeText      ColumnType = "TEXT"
	ColumnTypeVarchar   ColumnType = "VARCHAR"
	ColumnTypeBoolean   ColumnType = "BOOLEAN"
	ColumnTypeTimestamp ColumnType = "TIMESTAMP"
	ColumnTypeFloat     ColumnType = "FLOAT8"
	ColumnTypeNumeric   ColumnType = "NUMERIC"
)

// IndexType represents different types of database indexes.
// The zero value lets the engine pick its default (required for SQLite).
type IndexType string

const (
	IndexTypeDefault IndexType = ""
	IndexTypeBTree   IndexType = "BTREE"
	IndexTypeHash    IndexType = "HASH"
)

// ColumnDef defines a table column
type ColumnDef struct {
	Name         string
	Type         ColumnType
	PrimaryKey   bool
	NotNull      bool
	Unique       bool
	DefaultValue string
	Check        string
}

// IndexDef defines a table index
type IndexDef struct {
	Name    string
	Type    IndexType
	Columns []string
	Unique  bool
	Where   string // Partial index condition
}

// TableDef defines a complete table schema
type TableDef struct {
	Name    string
	Columns []ColumnDef
	Indexes []IndexDef
}

// InferTableDef infers a table definition from the `db` tags of T.
// The first tagged field is the primary key; pointer fields are nullable.
func InferTableDef[T any](tableName string) (*TableDef, error) {
	if err := sanitizeIdentifier(tableName); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, fmt.Errorf("type must be a struct")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type must be a struct")
	}

	tableDef := &TableDef{Name: tableName}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}
		if err := sanitizeIdentifier(dbTag); err != nil {
			return nil, fmt.Errorf("invalid column name '%s': %w", dbTag, err)
		}

		colDef := ColumnDef{
			Name:       dbTag,
			Type:       inferColumnType(field.Type),
			PrimaryKey: len(tableDef.Columns) == 0,
			NotNull:    field.Type.Kind() != reflect.Ptr,
		}

		// Check for additional tags
		if field.Tag.Get("unique") == "true" {
			colDef.Unique = true
		}
		if field.Tag.Get("nullable") == "true" {
			colDef.NotNull = false
		}
		if defaultVal := field.Tag.Get("default"); defaultVal != "" {
			colDef.DefaultValue = defaultVal
		}

		tableDef.Columns = append(tableDef.Columns, colDef)
	}
	if len(tableDef.Columns) == 0 {
		return nil, fmt.Errorf("no columns found")
	}

	return tableDef, nil
}

// inferColumnType maps Go types to SQL column types
func inferColumnType(t reflect.Type) ColumnType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return ColumnTypeInteger
	case reflect.Int64, reflect.Uint32, reflect.Uint64:
		return ColumnTypeBigInt
	case reflect.String:
		return ColumnTypeText
	case reflect.Bool:
		return ColumnTypeBoolean
	case reflect.Float32, reflect.Float64:
		return ColumnTypeFloat
	default:
		if t.String() == "time.Time" {
			return ColumnTypeTimestamp
		}
		return ColumnTypeText
	}
}

// GenerateCreateTableSQL generates CREATE TABLE SQL from table definition
func GenerateCreateTableSQL(def *TableDef) string {
	var parts []string

	// Column definitions
	for _, col := range def.Columns {
		colDef := fmt.Sprintf("%s %s", quoteIdentifier(col.Name), col.Type)

		if col.PrimaryKey {
			colDef += " PRIMARY KEY"
		}
		if col.NotNull && !col.PrimaryKey {
			colDef += " NOT NULL"
		}
		if col.Unique && !col.PrimaryKey {
			colDef += " UNIQUE"
		}
		if col.DefaultValue != "" {
			colDef += " DEFAULT " + col.DefaultValue
		}
		if col.Check != "" {
			colDef += " CHECK (" + col.Check + ")"
		}

		parts = append(parts, colDef)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		quoteIdentifier(def.Name),
		strings.Join(parts, ",\n  "),
	)
}

// GenerateDropTableSQL generates DROP TABLE SQL
func GenerateDropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
}

// GenerateCreateIndexSQL generates CREATE INDEX SQL from index definition
func GenerateCreateIndexSQL(tableName string, idx *IndexDef) string {
	uniqueClause := ""
	if idx.Unique {
		uniqueClause = "UNIQUE "
	}

	using := ""
	if idx.Type != IndexTypeDefault {
		using = fmt.Sprintf(" USING %s", idx.Type)
	}

	sql := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s%s (%s)",
		uniqueClause,
		quoteIdentifier(idx.Name),
		quoteIdentifier(tableName),
		using,
		joinQuotedColumns(idx.Columns),
	)

	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}

	return sql
}

// Statements returns the CREATE TABLE statement followed by one per index
func (def *TableDef) Statements() []string {
	stmts := []string{GenerateCreateTableSQL(def)}
	for i := range def.Indexes {
		stmts = append(stmts, GenerateCreateIndexSQL(def.Name, &def.Indexes[i]))
	}
	return stmts
}

// ListIndex is the index backing neighbor and bottom lookups of an ordered
// list: the scope columns followed by the position column.
// It is not unique: bulk shifts move positions through transient duplicates.
func ListIndex(tableName string, scopeColumns []string, positionColumn string) IndexDef {
	columns := append(append([]string(nil), scopeColumns...), positionColumn)
	return IndexDef{
		Name:    fmt.Sprintf("idx_%s_%s", tableName, strings.Join(columns, "_")),
		Columns: columns,
	}
}
