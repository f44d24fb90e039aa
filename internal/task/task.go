// Package task is the ordered to-do row served by listctl.
package task

import (
	"github.com/seb7887/listkit/idgen"
	"github.com/seb7887/listkit/ordering"
	"github.com/seb7887/listkit/sietch"
)

type Task struct {
	ID       string `db:"id" json:"id"`
	ListID   string `db:"list_id" json:"list_id"`
	Title    string `db:"title" json:"title"`
	Done     bool   `db:"done" json:"done"`
	Position *int   `db:"position" json:"position"`
}

type Store = sietch.Store[Task, string]

type List = ordering.List[Task, string]

func New(listID, title string) *Task {
	return &Task{ID: idgen.NewULID(), ListID: listID, Title: title}
}

func GetID(t *Task) string { return t.ID }

// Accessors scope tasks by list_id.
func Accessors() ordering.Accessors[Task, string] {
	return ordering.Accessors[Task, string]{
		ID:          GetID,
		Position:    func(t *Task) *int { return t.Position },
		SetPosition: func(t *Task, p *int) { t.Position = p },
		Scope: func(t *Task) []sietch.Condition {
			return []sietch.Condition{{Field: "list_id", Operator: sietch.OpEqual, Value: t.ListID}}
		},
	}
}

// TableDef is the schema of a task table with its list index.
func TableDef(table string) (*sietch.TableDef, error) {
	def, err := sietch.InferTableDef[Task](table)
	if err != nil {
		return nil, err
	}
	def.Indexes = append(def.Indexes, sietch.ListIndex(table, []string{"list_id"}, "position"))
	return def, nil
}
