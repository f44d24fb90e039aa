package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/listkit/idgen"
	"github.com/seb7887/listkit/sietch"
)

func TestNew(t *testing.T) {
	task := New("groceries", "milk")
	assert.True(t, idgen.IsULID(task.ID))
	assert.Equal(t, "groceries", task.ListID)
	assert.Nil(t, task.Position)
}

func TestTableDef(t *testing.T) {
	def, err := TableDef("tasks")
	require.NoError(t, err)

	names := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "list_id", "title", "done", "position"}, names)
	assert.True(t, def.Columns[0].PrimaryKey)
	assert.False(t, def.Columns[4].NotNull)
	assert.Equal(t, sietch.ColumnTypeInteger, def.Columns[4].Type)

	require.Len(t, def.Indexes, 1)
	assert.Equal(t, []string{"list_id", "position"}, def.Indexes[0].Columns)

	_, err = TableDef("tasks; drop")
	assert.Error(t, err)
}

func TestAccessors(t *testing.T) {
	acc := Accessors()
	task := &Task{ID: "t1", ListID: "l1"}

	acc.SetPosition(task, new(int))
	assert.NotNil(t, acc.Position(task))
	assert.Equal(t, "t1", acc.ID(task))
	assert.Equal(t, []sietch.Condition{{Field: "list_id", Operator: sietch.OpEqual, Value: "l1"}}, acc.Scope(task))
}
