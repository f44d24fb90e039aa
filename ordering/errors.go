package ordering

import "errors"

var (
	// ErrDuplicatePosition means two rows of one scope share a position.
	// The list is corrupt and the operation is aborted.
	ErrDuplicatePosition = errors.New("duplicate position in list")

	// ErrNotContiguous is reported by Verify for gaps or lists not starting at 1.
	ErrNotContiguous = errors.New("list positions are not contiguous")

	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrNoID is returned for operations that need a persisted row.
	ErrNoID = errors.New("item has no id")
)
