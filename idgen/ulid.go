package idgen

import (
	"github.com/oklog/ulid/v2"
)

// ULIDs sort by creation time, which keeps freshly added rows at the end of
// id-ordered scans.
var _ulidGenerator = func() string {
	return ulid.Make().String()
}

func NewULID() string {
	return _ulidGenerator()
}

// UseULID swaps the generator, mostly for deterministic tests
func UseULID(fn func() string) {
	_ulidGenerator = fn
}

// IsULID reports whether s parses as a ULID
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
