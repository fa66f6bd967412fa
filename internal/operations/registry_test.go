package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrrr/xscript-log-stat/internal/operations"
)

func TestRegistry_Empty(t *testing.T) {
	registry := operations.NewRegistry()

	assert.Equal(t, 0, registry.Count())
	assert.NotNil(t, registry.List())
	assert.Empty(t, registry.List())
}

func TestRegistry_Register(t *testing.T) {
	registry := operations.NewRegistry()

	require.NoError(t, registry.Register(newFakeStep("reference")))
	require.NoError(t, registry.Register(newFakeStep("discover")))

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Has("reference"))
	assert.False(t, registry.Has("export"))
	assert.Equal(t, []string{"reference", "discover"}, registry.ListIDs())

	step, ok := registry.Get("discover")
	require.True(t, ok)
	assert.Equal(t, "Fake discover", step.Name())

	_, ok = registry.Get("export")
	assert.False(t, ok)
}

func TestRegistry_RegisterMany(t *testing.T) {
	registry := operations.NewRegistry()

	err := registry.Register(newFakeStep("a"), newFakeStep("b"), newFakeStep("a"), newFakeStep("c"))
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, registry.ListIDs())

	list := registry.List()
	list[0] = nil
	assert.NotNil(t, registry.List()[0], "List returns a copy")
}

func TestRegistry_RegisterErrors(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(newFakeStep("parse")))

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(newFakeStep("")))
	assert.Error(t, registry.Register(newFakeStep("parse")))
	assert.Equal(t, 1, registry.Count())
}
