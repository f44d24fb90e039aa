package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.True(t, IsULID(a))
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
	assert.False(t, IsULID("not-a-ulid"))
}

func TestUseGenerators(t *testing.T) {
	prevULID, prevUUID := _ulidGenerator, _uuidGenerator
	defer func() { UseULID(prevULID); UseUUID(prevUUID) }()

	UseULID(func() string { return "fixed-ulid" })
	UseUUID(func() string { return "fixed-uuid" })
	assert.Equal(t, "fixed-ulid", NewULID())
	assert.Equal(t, "fixed-uuid", NewUUID())
}

func TestNewUUID(t *testing.T) {
	_, err := uuid.Parse(NewUUID())
	assert.NoError(t, err)
}
