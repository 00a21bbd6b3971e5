package ident

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator_Prefix(t *testing.T) {
	gen := NewUUIDGenerator(TaskPrefix)

	id := gen.NewID()
	require.True(t, strings.HasPrefix(id, TaskPrefix))

	_, err := uuid.Parse(strings.TrimPrefix(id, TaskPrefix))
	assert.NoError(t, err)
}

func TestUUIDGenerator_Unique(t *testing.T) {
	gen := NewUUIDGenerator(CommandPrefix)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NewID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestFunc(t *testing.T) {
	n := 0
	gen := Func(func() string {
		n++
		return "id-" + strconv.Itoa(n)
	})

	assert.Equal(t, "id-1", gen.NewID())
	assert.Equal(t, "id-2", gen.NewID())
}
