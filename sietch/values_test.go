package sietch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/listkit/internal/testutils"
)

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		s, pattern string
		ci         bool
		want       bool
	}{
		{"Milk", "Mi%", false, true},
		{"Milk", "mi%", false, false},
		{"Milk", "mi%", true, true},
		{"Milk", "M_lk", false, true},
		{"Milk", "M_k", false, false},
		{"a.b", "a.b", false, true},
		{"axb", "a.b", false, false},
		{"(x)", "(%)", false, true},
		{"two\nlines", "two%", false, true},
		{"", "%", false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, likeMatch(tt.s, tt.pattern, tt.ci), "%q LIKE %q", tt.s, tt.pattern)
	}
}

func TestCompare(t *testing.T) {
	c, ok := compare(3, int64(3))
	assert.True(t, ok)
	assert.Zero(t, c)

	c, ok = compare(2, 2.5)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = compare("b", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = compare("1", 1)
	assert.False(t, ok)
}

func TestMatchesCondition(t *testing.T) {
	meta, err := getEntityMeta[testutils.Item]()
	require.NoError(t, err)

	placed := &testutils.Item{ID: "a", ListID: "l1", Name: "Milk", Position: testutils.IntPtr(2)}
	unplaced := &testutils.Item{ID: "b", ListID: "l1", Name: "Bread"}

	tests := []struct {
		name   string
		filter *Filter
		placed bool
		null   bool
	}{
		{"nil filter", nil, true, true},
		{"equal", NewFilter().Where("list_id", OpEqual, "l1").Build(), true, true},
		{"pointer operand", NewFilter().Where("position", OpEqual, testutils.IntPtr(2)).Build(), true, false},
		{"comparison skips null", NewFilter().Where("position", OpLessThan, 10).Build(), true, false},
		{"not equal skips null", NewFilter().Where("position", OpNotEqual, 5).Build(), true, false},
		{"is null", NewFilter().Where("position", OpIsNull, nil).Build(), false, true},
		{"is not null", NewFilter().Where("position", OpIsNotNull, nil).Build(), true, false},
		{"in", NewFilter().Where("position", OpIn, []int{1, 2}).Build(), true, false},
		{"not in", NewFilter().Where("name", OpNotIn, []string{"Milk"}).Build(), false, true},
		{"between inclusive", NewFilter().Where("position", OpBetween, []int{2, 3}).Build(), true, false},
		{"ilike", NewFilter().Where("name", OpILike, "b%").Build(), false, true},
		{"unknown field", NewFilter().Where("rank", OpEqual, 1).Build(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.placed, matchesCondition(meta, placed, tt.filter), "placed item")
			assert.Equal(t, tt.null, matchesCondition(meta, unplaced, tt.filter), "unplaced item")
		})
	}
}
