package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Ink ")
	require.NoError(t, err)
	assert.Equal(t, Ink, k)

	k, err = ParseKind("ink-v6")
	require.NoError(t, err)
	assert.Equal(t, InkV6, k)

	_, err = ParseKind("evm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ink, ink-v6, soroban")
}

func TestRegistryBuildsFreshBackends(t *testing.T) {
	assert.Equal(t, []string{"ink", "ink-v6", "soroban"}, Names())

	for _, name := range Names() {
		a, err := New(Kind(name))
		require.NoError(t, err)
		b, err := New(Kind(name))
		require.NoError(t, err)
		assert.Equal(t, name, a.Name())
		assert.NotSame(t, a, b)
	}

	_, err := New("evm")
	assert.Error(t, err)
}
