package sietch

import (
	"fmt"
	"strconv"
	"strings"
)

// placeholderStyle selects how bind parameters are written in SQL text
type placeholderStyle int

const (
	// dollarPlaceholders renders $1, $2, ... (pgx, CockroachDB, PostgreSQL)
	dollarPlaceholders placeholderStyle = iota
	// questionPlaceholders renders ? (SQLite and most database/sql drivers)
	questionPlaceholders
)

func sanitizeIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	// letters, digits and underscores only
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_') {
			return fmt.Errorf("invalid character in identifier: %c", r)
		}
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

func joinQuotedColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
	}
	return strings.Join(quoted, ", ")
}

func buildPlaceholders(n int) string {
	return buildPlaceholdersFrom(dollarPlaceholders, 1, n)
}

func buildPlaceholdersFrom(style placeholderStyle, first, n int) string {
	placeholders := make([]string, n)
	for i := 0; i < n; i++ {
		placeholders[i] = style.render(first + i)
	}
	return strings.Join(placeholders, ", ")
}

func (s placeholderStyle) render(n int) string {
	if s == questionPlaceholders {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// sqlBuilder renders every statement the SQL connectors run against one table.
// Identifiers are validated against the entity columns and quoted; values are
// always returned as bind arguments.
type sqlBuilder struct {
	table   string
	columns []string
	style   placeholderStyle
	// noILike renders ILIKE as LOWER(col) LIKE LOWER(arg) for engines without ILIKE
	noILike bool
}

func newSQLBuilder[T any](table string, style placeholderStyle) (*sqlBuilder, error) {
	if err := sanitizeIdentifier(table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}
	columns, err := getColumns[T]()
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if err := sanitizeIdentifier(col); err != nil {
			return nil, fmt.Errorf("invalid column name '%s': %w", col, err)
		}
	}
	return &sqlBuilder{
		table:   table,
		columns: columns,
		style:   style,
		noILike: style == questionPlaceholders,
	}, nil
}

func (b *sqlBuilder) idColumn() string {
	return b.columns[0]
}

func (b *sqlBuilder) validateFilterField(field string) error {
	for _, col := range b.columns {
		if col == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// buildWhereClause renders conditions joined with AND. argIndex is the number
// of the next bind parameter and is advanced past the ones used.
func (b *sqlBuilder) buildWhereClause(conditions []Condition, argIndex *int) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		p := b.style.render(*argIndex)
		*argIndex++
		return p
	}

	for _, c := range conditions {
		if err := b.validateFilterField(c.Field); err != nil {
			return "", nil, err
		}
		col := quoteIdentifier(c.Field)

		switch c.Operator {
		case OpIsNull, OpIsNotNull:
			parts = append(parts, fmt.Sprintf("%s %s", col, c.Operator))
		case OpIn, OpNotIn:
			values, err := toSlice(c.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %s requires a slice: %v", ErrInvalidFilter, c.Operator, err)
			}
			if len(values) == 0 {
				return "", nil, fmt.Errorf("%w: %s requires at least one value", ErrInvalidFilter, c.Operator)
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = next(v)
			}
			parts = append(parts, fmt.Sprintf("%s %s (%s)", col, c.Operator, strings.Join(placeholders, ", ")))
		case OpBetween:
			lo, hi, err := betweenBounds(c.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			parts = append(parts, fmt.Sprintf("%s BETWEEN %s AND %s", col, next(lo), next(hi)))
		case OpILike:
			if b.noILike {
				parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, next(c.Value)))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s ILIKE %s", col, next(c.Value)))
		default:
			if !c.Operator.Valid() {
				return "", nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, c.Operator)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", col, c.Operator, next(c.Value)))
		}
	}

	return strings.Join(parts, " AND "), args, nil
}

func (b *sqlBuilder) buildOrderByClause(sort []SortField) (string, error) {
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		if err := b.validateFilterField(s.Field); err != nil {
			return "", err
		}
		dir := s.Direction
		if dir == "" {
			dir = SortAsc
		}
		if dir != SortAsc && dir != SortDesc {
			return "", fmt.Errorf("%w: unsupported sort direction %q", ErrInvalidFilter, dir)
		}
		parts = append(parts, fmt.Sprintf("%s %s", quoteIdentifier(s.Field), dir))
	}
	return strings.Join(parts, ", "), nil
}

// queryBuilder renders the SELECT for filter, including ORDER BY, LIMIT and OFFSET
func (b *sqlBuilder) queryBuilder(filter *Filter) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", joinQuotedColumns(b.columns), quoteIdentifier(b.table))
	if filter == nil {
		return sb.String(), nil, nil
	}

	argIndex := 1
	where, args, err := b.buildWhereClause(filter.Conditions, &argIndex)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	orderBy, err := b.buildOrderByClause(filter.Sort)
	if err != nil {
		return "", nil, err
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}

	if filter.Limit != nil {
		if *filter.Limit < 0 {
			return "", nil, fmt.Errorf("%w: negative limit", ErrInvalidFilter)
		}
		fmt.Fprintf(&sb, " LIMIT %d", *filter.Limit)
	}
	if filter.Offset != nil {
		if *filter.Offset < 0 {
			return "", nil, fmt.Errorf("%w: negative offset", ErrInvalidFilter)
		}
		if filter.Limit == nil && b.style == questionPlaceholders {
			// SQLite only accepts OFFSET after a LIMIT
			sb.WriteString(" LIMIT -1")
		}
		fmt.Fprintf(&sb, " OFFSET %d", *filter.Offset)
	}

	return sb.String(), args, nil
}

func (b *sqlBuilder) countQuery(filter *Filter) (string, []any, error) {
	query := "SELECT COUNT(*) FROM " + quoteIdentifier(b.table)
	if filter == nil || len(filter.Conditions) == 0 {
		return query, nil, nil
	}
	argIndex := 1
	where, args, err := b.buildWhereClause(filter.Conditions, &argIndex)
	if err != nil {
		return "", nil, err
	}
	return query + " WHERE " + where, args, nil
}

func (b *sqlBuilder) insertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(b.table),
		joinQuotedColumns(b.columns),
		buildPlaceholdersFrom(b.style, 1, len(b.columns)),
	)
}

func (b *sqlBuilder) getQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		joinQuotedColumns(b.columns),
		quoteIdentifier(b.table),
		quoteIdentifier(b.idColumn()),
		b.style.render(1),
	)
}

// updateQuery sets every non-key column; the key is the last argument
func (b *sqlBuilder) updateQuery() string {
	setClause := make([]string, 0, len(b.columns)-1)
	for i := 1; i < len(b.columns); i++ {
		setClause = append(setClause, fmt.Sprintf("%s = %s", quoteIdentifier(b.columns[i]), b.style.render(i)))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quoteIdentifier(b.table),
		strings.Join(setClause, ", "),
		quoteIdentifier(b.idColumn()),
		b.style.render(len(b.columns)),
	)
}

func (b *sqlBuilder) updateFieldQuery(field string) (string, error) {
	if err := b.validateFilterField(field); err != nil {
		return "", err
	}
	return fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		quoteIdentifier(b.table),
		quoteIdentifier(field),
		b.style.render(1),
		quoteIdentifier(b.idColumn()),
		b.style.render(2),
	), nil
}

// shiftQuery renders a single UPDATE adding delta to field on every matching row
func (b *sqlBuilder) shiftQuery(filter *Filter, field string, delta int) (string, []any, error) {
	if err := b.validateFilterField(field); err != nil {
		return "", nil, err
	}
	col := quoteIdentifier(field)
	query := fmt.Sprintf("UPDATE %s SET %s = %s + %s",
		quoteIdentifier(b.table), col, col, b.style.render(1))
	args := []any{delta}

	if filter != nil && len(filter.Conditions) > 0 {
		argIndex := 2
		where, whereArgs, err := b.buildWhereClause(filter.Conditions, &argIndex)
		if err != nil {
			return "", nil, err
		}
		query += " WHERE " + where
		args = append(args, whereArgs...)
	}
	return query, args, nil
}

func (b *sqlBuilder) deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		quoteIdentifier(b.table),
		quoteIdentifier(b.idColumn()),
		b.style.render(1),
	)
}

func (b *sqlBuilder) existsQuery() string {
	return fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = %s)",
		quoteIdentifier(b.table),
		quoteIdentifier(b.idColumn()),
		b.style.render(1),
	)
}
