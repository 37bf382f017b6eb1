package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge(t *testing.T) {
	g := New()
	g.AddNode("model.test.one")
	g.AddNode("model.test.two")

	require.NoError(t, g.AddEdge("model.test.one", "model.test.two"))
	assert.Equal(t, []string{"model.test.one"}, g.Parents("model.test.two"))
	assert.Equal(t, []string{"model.test.two"}, g.Children("model.test.one"))

	// Duplicate edges are ignored.
	require.NoError(t, g.AddEdge("model.test.one", "model.test.two"))
	assert.Len(t, g.Parents("model.test.two"), 1)
}

func TestAddEdge_MissingEndpoint(t *testing.T) {
	g := New()
	g.AddNode("model.test.one")
	err := g.AddEdge("model.test.one", "model.test.ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.test.ghost")
}

func TestAddEdge_SelfLoop(t *testing.T) {
	g := New()
	g.AddNode("model.test.one")
	err := g.AddEdge("model.test.one", "model.test.one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-loop")
}

func TestHasCycle(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	hasCycle, _ := g.HasCycle()
	assert.False(t, hasCycle)

	require.NoError(t, g.AddEdge("c", "a"))
	hasCycle, path := g.HasCycle()
	assert.True(t, hasCycle)
	assert.GreaterOrEqual(t, len(path), 3)
	assert.Equal(t, path[0], path[len(path)-1], "cycle path closes on itself")
}

func TestTopologicalSort(t *testing.T) {
	// Diamond: base -> {left, right} -> top.
	g := New()
	for _, id := range []string{"base", "left", "right", "top"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("base", "left"))
	require.NoError(t, g.AddEdge("base", "right"))
	require.NoError(t, g.AddEdge("left", "top"))
	require.NoError(t, g.AddEdge("right", "top"))

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted, 4)

	pos := map[string]int{}
	for i, id := range sorted {
		pos[id] = i
	}
	assert.Less(t, pos["base"], pos["left"])
	assert.Less(t, pos["base"], pos["right"])
	assert.Less(t, pos["left"], pos["top"])
	assert.Less(t, pos["right"], pos["top"])
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
