package sietch

import (
	"time"
)

// SoftDeletable is a marker interface for entities that support soft delete.
// Delete on such entities runs the BeforeDelete hooks, then marks the row
// deleted and writes it back instead of removing it.
type SoftDeletable interface {
	// IsDeleted returns true if the entity is marked as deleted
	IsDeleted() bool

	// SetDeleted marks the entity as deleted or undeleted
	SetDeleted(deleted bool)

	// GetDeletedAt returns the timestamp when the entity was deleted
	GetDeletedAt() *time.Time

	// SetDeletedAt sets the deletion timestamp
	SetDeletedAt(deletedAt *time.Time)
}

// isSoftDeletable checks if type T implements SoftDeletable interface
func isSoftDeletable[T any]() bool {
	var zero T
	_, ok := any(&zero).(SoftDeletable)
	return ok
}

// markAsDeleted marks an entity as soft-deleted
func markAsDeleted[T any](item *T) {
	if sd, ok := any(item).(SoftDeletable); ok {
		now := time.Now().UTC()
		sd.SetDeleted(true)
		sd.SetDeletedAt(&now)
	}
}

// isEntityDeleted checks if an entity is soft-deleted
func isEntityDeleted[T any](item *T) bool {
	if sd, ok := any(item).(SoftDeletable); ok {
		return sd.IsDeleted()
	}
	return false
}
