package reach

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBacktrackingGraphAddRemove(t *testing.T) {
	g := NewBacktrackingGraph(3)
	require.False(t, g.HasEdge(0, 1))

	g.AddEdge(0, 0, 1)
	g.AddEdge(0, 1, 2)
	require.True(t, g.HasEdge(0, 1))
	require.True(t, g.HasEdge(1, 2))
	require.Equal(t, []int{1}, g.Out(0))
	require.Equal(t, []int{0}, g.In(1))

	g.RemoveEdge(1, 0, 1)
	require.False(t, g.HasEdge(0, 1))
	require.True(t, g.HasEdge(1, 2))
}

func TestBacktrackingGraphBacktrackUndoesAboveLevel(t *testing.T) {
	g := NewBacktrackingGraph(3)
	g.AddEdge(0, 0, 1)
	g.AddEdge(1, 1, 2)
	g.AddEdge(2, 0, 2)
	require.True(t, g.HasEdge(1, 2))
	require.True(t, g.HasEdge(0, 2))

	g.Backtrack(1)
	require.True(t, g.HasEdge(0, 1), "level-0 edge survives a backtrack to level 1")
	require.True(t, g.HasEdge(1, 2), "level-1 edge survives a backtrack to level 1")
	require.False(t, g.HasEdge(0, 2), "level-2 edge is undone by a backtrack to level 1")
}

func TestBacktrackingGraphBacktrackRestoresRemovedEdge(t *testing.T) {
	g := NewBacktrackingGraph(2)
	g.AddEdge(0, 0, 1)
	g.RemoveEdge(1, 0, 1)
	require.False(t, g.HasEdge(0, 1))

	g.Backtrack(0)
	require.True(t, g.HasEdge(0, 1), "removal above level 0 is undone")
}

func TestBacktrackingGraphSnapshotAt(t *testing.T) {
	g := NewBacktrackingGraph(3)
	g.AddEdge(0, 0, 1)
	g.AddEdge(1, 1, 2)
	g.RemoveEdge(2, 0, 1)

	early := g.SnapshotAt(1)
	require.True(t, early.HasEdge("0", "1"))
	require.True(t, early.HasEdge("1", "2"))

	late := g.SnapshotAt(2)
	require.False(t, late.HasEdge("0", "1"))
	require.True(t, late.HasEdge("1", "2"))
}
