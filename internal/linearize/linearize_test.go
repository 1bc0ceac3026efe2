package linearize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classicGraph() *Graph {
	g := NewGraph()
	g.AddClass("O")
	for _, c := range []Class{"A", "B", "C", "D", "E"} {
		g.AddClass(c, "O")
	}
	g.AddClass("K1", "A", "B", "C")
	g.AddClass("K2", "D", "B", "E")
	g.AddClass("K3", "D", "A")
	g.AddClass("Z", "K1", "K2", "K3")
	return g
}

func TestLinearizeClassicExample(t *testing.T) {
	g := classicGraph()

	chain, err := g.Linearize("Z")
	require.NoError(t, err)
	assert.Equal(t, []Class{"Z", "K1", "K2", "K3", "D", "A", "B", "C", "E", "O"}, chain)

	chain, err = g.Linearize("K1")
	require.NoError(t, err)
	assert.Equal(t, []Class{"K1", "A", "B", "C", "O"}, chain)
}

func TestLinearizeIsDeterministic(t *testing.T) {
	first, err := classicGraph().Linearize("Z")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := classicGraph().Linearize("Z")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLinearizeEachAncestorOnce(t *testing.T) {
	g := NewGraph()
	g.AddClass("Base")
	g.AddClass("Left", "Base")
	g.AddClass("Right", "Base")
	g.AddClass("Diamond", "Right", "Left")

	chain, err := g.Linearize("Diamond")
	require.NoError(t, err)
	assert.Equal(t, []Class{"Diamond", "Right", "Left", "Base"}, chain)

	seen := map[Class]int{}
	for _, c := range chain {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, "class %s appears more than once", c)
	}
}

func TestLinearizeSingleInheritanceChain(t *testing.T) {
	g := NewGraph()
	g.AddClass("X")
	g.AddClass("Y", "X")
	g.AddClass("D", "Y")

	chain, err := g.Linearize("D")
	require.NoError(t, err)
	assert.Equal(t, []Class{"D", "Y", "X"}, chain)
}

func TestLinearizeContradictoryOrderFails(t *testing.T) {
	g := NewGraph()
	g.AddClass("O")
	g.AddClass("A", "O")
	g.AddClass("B", "O")
	g.AddClass("X", "A", "B")
	g.AddClass("Y", "B", "A")
	g.AddClass("Z", "X", "Y")

	_, err := g.Linearize("Z")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)

	// The parts that are consistent on their own still linearize.
	chain, err := g.Linearize("X")
	require.NoError(t, err)
	assert.Equal(t, []Class{"X", "A", "B", "O"}, chain)
}

func TestLinearizeCycleFails(t *testing.T) {
	g := NewGraph()
	g.AddClass("A", "C")
	g.AddClass("B", "A")
	g.AddClass("C", "B")

	_, err := g.Linearize("A")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "A -> C -> B -> A")
}

func TestLinearizeUnknownClass(t *testing.T) {
	g := NewGraph()
	g.AddClass("A", "Missing")

	_, err := g.Linearize("A")
	assert.ErrorIs(t, err, ErrUnknownClass)

	_, err = g.Linearize("Nope")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestLinearizeAll(t *testing.T) {
	g := classicGraph()
	all, err := g.LinearizeAll()
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, []Class{"O"}, all["O"])
	assert.Equal(t, []Class{"K3", "D", "A", "O"}, all["K3"])
}

func TestLinearizeReturnsCopies(t *testing.T) {
	g := NewGraph()
	g.AddClass("X")
	g.AddClass("Y", "X")

	chain, err := g.Linearize("Y")
	require.NoError(t, err)
	chain[0] = "mutated"

	again, err := g.Linearize("Y")
	require.NoError(t, err)
	assert.Equal(t, []Class{"Y", "X"}, again)
}
