package sietch

import (
	"errors"
	"testing"
)

func TestFilterBuilder(t *testing.T) {
	t.Run("NewFilter creates empty builder", func(t *testing.T) {
		builder := NewFilter()
		if builder == nil {
			t.Fatal("NewFilter() returned nil")
		}
		if len(builder.conditions) != 0 {
			t.Errorf("Expected empty conditions, got %d", len(builder.conditions))
		}
	})

	t.Run("Where adds condition", func(t *testing.T) {
		builder := NewFilter().Where("balance", OpGreaterThan, 100)
		if len(builder.conditions) != 1 {
			t.Fatalf("Expected 1 condition, got %d", len(builder.conditions))
		}
		if builder.conditions[0].Field != "balance" {
			t.Errorf("Expected field 'balance', got '%s'", builder.conditions[0].Field)
		}
		if builder.conditions[0].Operator != OpGreaterThan {
			t.Errorf("Expected operator OpGreaterThan, got %v", builder.conditions[0].Operator)
		}
		if builder.conditions[0].Value != 100 {
			t.Errorf("Expected value 100, got %v", builder.conditions[0].Value)
		}
	})

	t.Run("And appends built conditions", func(t *testing.T) {
		scope := []Condition{{Field: "list_id", Operator: OpEqual, Value: "a"}}
		builder := NewFilter().Where("position", OpGreaterThan, 2).And(scope...)
		if len(builder.conditions) != 2 {
			t.Errorf("Expected 2 conditions, got %d", len(builder.conditions))
		}
	})

	t.Run("Multiple OrderBy calls chain correctly", func(t *testing.T) {
		builder := NewFilter().
			OrderBy("status", SortAsc).
			OrderBy("balance", SortDesc)

		if len(builder.sort) != 2 {
			t.Errorf("Expected 2 sort fields, got %d", len(builder.sort))
		}
	})

	t.Run("Build creates Filter", func(t *testing.T) {
		filter := NewFilter().
			Where("balance", OpGreaterThan, 100).
			OrderBy("balance", SortDesc).
			Limit(10).
			Offset(20).
			Build()

		if len(filter.Conditions) != 1 {
			t.Errorf("Expected 1 condition, got %d", len(filter.Conditions))
		}
		if len(filter.Sort) != 1 {
			t.Errorf("Expected 1 sort field, got %d", len(filter.Sort))
		}
		if filter.Limit == nil || *filter.Limit != 10 {
			t.Error("Expected limit 10")
		}
		if filter.Offset == nil || *filter.Offset != 20 {
			t.Error("Expected offset 20")
		}
	})

	t.Run("Build returns independent copies", func(t *testing.T) {
		builder := NewFilter().Where("balance", OpEqual, 1).Limit(1)
		first := builder.Build()
		builder.Where("id", OpEqual, 2).Limit(5)
		second := builder.Build()

		if len(first.Conditions) != 1 || *first.Limit != 1 {
			t.Errorf("first filter changed after reuse: %+v", first)
		}
		if len(second.Conditions) != 2 || *second.Limit != 5 {
			t.Errorf("unexpected second filter: %+v", second)
		}
	})
}

func TestFilterValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		filter  *Filter
		wantErr bool
	}{
		{"nil filter", nil, false},
		{"empty filter", &Filter{}, false},
		{"valid filter", NewFilter().Where("position", OpGreaterThan, 1).OrderBy("position", SortAsc).Limit(2).Build(), false},
		{"injection in field", NewFilter().Where("position; DROP TABLE x", OpEqual, 1).Build(), true},
		{"empty field", NewFilter().Where("", OpEqual, 1).Build(), true},
		{"unknown operator", &Filter{Conditions: []Condition{{Field: "id", Operator: "~", Value: 1}}}, true},
		{"bad sort direction", &Filter{Sort: []SortField{{Field: "id", Direction: "SIDEWAYS"}}}, true},
		{"bad sort field", NewFilter().OrderBy("id desc", SortAsc).Build(), true},
		{"between needs two values", NewFilter().Where("id", OpBetween, []int{1}).Build(), true},
		{"between with two values", NewFilter().Where("id", OpBetween, []int{1, 3}).Build(), false},
		{"negative limit", &Filter{Limit: &negative}, true},
		{"negative offset", &Filter{Offset: &negative}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator Operator
		expected string
	}{
		{"OpEqual", OpEqual, "="},
		{"OpNotEqual", OpNotEqual, "!="},
		{"OpGreaterThan", OpGreaterThan, ">"},
		{"OpLessThan", OpLessThan, "<"},
		{"OpGreaterThanOrEqual", OpGreaterThanOrEqual, ">="},
		{"OpLessThanOrEqual", OpLessThanOrEqual, "<="},
		{"OpIn", OpIn, "IN"},
		{"OpNotIn", OpNotIn, "NOT IN"},
		{"OpLike", OpLike, "LIKE"},
		{"OpILike", OpILike, "ILIKE"},
		{"OpIsNull", OpIsNull, "IS NULL"},
		{"OpIsNotNull", OpIsNotNull, "IS NOT NULL"},
		{"OpBetween", OpBetween, "BETWEEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.operator) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.operator))
			}
			if !tt.operator.Valid() {
				t.Errorf("Expected %s to be valid", tt.operator)
			}
		})
	}
}
