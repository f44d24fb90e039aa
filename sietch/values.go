package sietch

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// matchesCondition evaluates filter against item with SQL semantics: NULL
// only matches IS NULL and never satisfies a comparison.
func matchesCondition(meta *entityMeta, item any, filter *Filter) bool {
	if filter == nil {
		return true
	}
	for _, condition := range filter.Conditions {
		value, err := meta.fieldValue(item, condition.Field)
		if err != nil {
			// field doesn't exist
			return false
		}

		switch condition.Operator {
		case OpIsNull:
			if value != nil {
				return false
			}
			continue
		case OpIsNotNull:
			if value == nil {
				return false
			}
			continue
		}

		if value == nil {
			return false
		}
		operand := deref(condition.Value)

		switch condition.Operator {
		case OpEqual:
			if !equalValues(value, operand) {
				return false
			}
		case OpNotEqual:
			if operand == nil || equalValues(value, operand) {
				return false
			}
		case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
			c, ok := compare(value, operand)
			if !ok || !satisfies(condition.Operator, c) {
				return false
			}
		case OpIn, OpNotIn:
			values, err := toSlice(operand)
			if err != nil {
				return false
			}
			found := false
			for _, v := range values {
				if equalValues(value, deref(v)) {
					found = true
					break
				}
			}
			if found != (condition.Operator == OpIn) {
				return false
			}
		case OpLike, OpILike:
			s, ok1 := value.(string)
			pattern, ok2 := operand.(string)
			if !ok1 || !ok2 || !likeMatch(s, pattern, condition.Operator == OpILike) {
				return false
			}
		case OpBetween:
			lo, hi, err := betweenBounds(operand)
			if err != nil {
				return false
			}
			c1, ok1 := compare(value, deref(lo))
			c2, ok2 := compare(value, deref(hi))
			if !ok1 || !ok2 || c1 < 0 || c2 > 0 {
				return false
			}
		default:
			// unsupported operator
			return false
		}
	}

	return true
}

func satisfies(op Operator, c int) bool {
	switch op {
	case OpGreaterThan:
		return c > 0
	case OpGreaterThanOrEqual:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessThanOrEqual:
		return c <= 0
	}
	return false
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func equalValues(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers numerically and strings lexically.
// ok is false when the two values are not comparable.
func compare(a, b any) (int, bool) {
	af, okA := toFloat64(a)
	bf, okB := toFloat64(b)
	if okA && okB {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	as, okA := a.(string)
	bs, okB := b.(string)
	if okA && okB {
		return strings.Compare(as, bs), true
	}

	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// toSlice turns any slice or array value into []any
func toSlice(v any) ([]any, error) {
	if values, ok := v.([]any); ok {
		return values, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice, got %T", v)
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

// likeMatch implements SQL LIKE: % matches any run, _ a single character
func likeMatch(s, pattern string, caseInsensitive bool) bool {
	var b strings.Builder
	b.WriteString("^(?s)")
	if caseInsensitive {
		b.WriteString("(?i)")
	}
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
