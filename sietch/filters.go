package sietch

import "fmt"

// Operator is a comparison operator usable in a Condition
type Operator string

const (
	OpEqual              Operator = "="
	OpNotEqual           Operator = "!="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT IN"
	OpLike               Operator = "LIKE"
	OpILike              Operator = "ILIKE"
	OpBetween            Operator = "BETWEEN"
	OpIsNull             Operator = "IS NULL"
	OpIsNotNull          Operator = "IS NOT NULL"
)

// Valid reports whether the operator is one the connectors know how to render
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan,
		OpLessThanOrEqual, OpIn, OpNotIn, OpLike, OpILike, OpBetween, OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

// SortDirection is the direction of an ORDER BY clause
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Condition represents a condition to filter queries
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// SortField orders query results by a single column
type SortField struct {
	Field     string
	Direction SortDirection
}

// Filter groups a set of conditions (joined with AND), an ordering and paging
type Filter struct {
	Conditions []Condition
	Sort       []SortField
	Limit      *int
	Offset     *int
}

// Validate checks identifiers and operators before a filter reaches a connector.
// Values are always bound as parameters, only field names end up in SQL text.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, c := range f.Conditions {
		if err := sanitizeIdentifier(c.Field); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalidFilter, c.Field, err)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, c.Operator)
		}
		if c.Operator == OpBetween {
			if _, _, err := betweenBounds(c.Value); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
		}
	}
	for _, s := range f.Sort {
		if err := sanitizeIdentifier(s.Field); err != nil {
			return fmt.Errorf("%w: sort field %q: %v", ErrInvalidFilter, s.Field, err)
		}
		if s.Direction != SortAsc && s.Direction != SortDesc {
			return fmt.Errorf("%w: unsupported sort direction %q", ErrInvalidFilter, s.Direction)
		}
	}
	if f.Limit != nil && *f.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidFilter)
	}
	return nil
}

// FilterBuilder builds a Filter fluently
type FilterBuilder struct {
	conditions []Condition
	sort       []SortField
	limit      *int
	offset     *int
}

// NewFilter creates an empty filter builder
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Where appends a condition
func (b *FilterBuilder) Where(field string, op Operator, value any) *FilterBuilder {
	b.conditions = append(b.conditions, Condition{Field: field, Operator: op, Value: value})
	return b
}

// And appends already built conditions
func (b *FilterBuilder) And(conditions ...Condition) *FilterBuilder {
	b.conditions = append(b.conditions, conditions...)
	return b
}

// OrderBy appends a sort field
func (b *FilterBuilder) OrderBy(field string, direction SortDirection) *FilterBuilder {
	b.sort = append(b.sort, SortField{Field: field, Direction: direction})
	return b
}

// Limit caps the number of returned rows
func (b *FilterBuilder) Limit(n int) *FilterBuilder {
	b.limit = &n
	return b
}

// Offset skips the first n rows
func (b *FilterBuilder) Offset(n int) *FilterBuilder {
	b.offset = &n
	return b
}

// Build returns the Filter. The builder can keep being used afterwards.
func (b *FilterBuilder) Build() *Filter {
	f := &Filter{
		Conditions: append([]Condition(nil), b.conditions...),
		Sort:       append([]SortField(nil), b.sort...),
	}
	if b.limit != nil {
		limit := *b.limit
		f.Limit = &limit
	}
	if b.offset != nil {
		offset := *b.offset
		f.Offset = &offset
	}
	return f
}

// betweenBounds extracts the two bounds of a BETWEEN value ([]any or a typed 2-slice)
func betweenBounds(v any) (any, any, error) {
	values, err := toSlice(v)
	if err != nil {
		return nil, nil, fmt.Errorf("BETWEEN: %w", err)
	}
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("BETWEEN needs exactly 2 values, got %d", len(values))
	}
	return values[0], values[1], nil
}
