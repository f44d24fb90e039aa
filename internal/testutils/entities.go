// Package testutils holds the entities shared by package tests.
package testutils

import "time"

// Account is a plain row without list behavior
type Account struct {
	ID      int64 `db:"id" json:"id"`
	Balance int   `db:"balance" json:"balance"`
}

// Item is a list member scoped by ListID
type Item struct {
	ID       string `db:"id" json:"id"`
	ListID   string `db:"list_id" json:"list_id"`
	Name     string `db:"name" json:"name"`
	Position *int   `db:"position" json:"position"`
}

// ArchivedItem is a soft deletable list member
type ArchivedItem struct {
	ID        string     `db:"id"`
	ListID    string     `db:"list_id"`
	Position  *int       `db:"position"`
	Deleted   bool       `db:"is_deleted"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (a *ArchivedItem) IsDeleted() bool                   { return a.Deleted }
func (a *ArchivedItem) SetDeleted(deleted bool)           { a.Deleted = deleted }
func (a *ArchivedItem) GetDeletedAt() *time.Time          { return a.DeletedAt }
func (a *ArchivedItem) SetDeletedAt(deletedAt *time.Time) { a.DeletedAt = deletedAt }

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
