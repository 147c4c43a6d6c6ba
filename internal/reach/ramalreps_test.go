package reach

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRamalRepsBasicReachability(t *testing.T) {
	g := NewBacktrackingGraph(4)
	// 0 -> 1 -> 2, 3 isolated.
	g.AddEdge(0, 0, 1)
	g.AddEdge(0, 1, 2)

	r := NewRamalReps(g, 0, false)
	require.True(t, r.IsReachable(0))
	require.True(t, r.IsReachable(1))
	require.True(t, r.IsReachable(2))
	require.False(t, r.IsReachable(3))

	d, ok := r.Distance(2)
	require.True(t, ok)
	require.Equal(t, 2, d)
}

func TestRamalRepsIncrementalAddEdge(t *testing.T) {
	g := NewBacktrackingGraph(3)
	r := NewRamalReps(g, 0, false)
	require.False(t, r.IsReachable(1))

	g.AddEdge(0, 0, 1)
	r.AddEdge(0, 1)
	require.True(t, r.IsReachable(1))
	d, ok := r.Distance(1)
	require.True(t, ok)
	require.Equal(t, 1, d)
}

func TestRamalRepsIncrementalRemoveEdgeDisconnects(t *testing.T) {
	g := NewBacktrackingGraph(3)
	g.AddEdge(0, 0, 1)
	g.AddEdge(0, 1, 2)
	r := NewRamalReps(g, 0, false)
	require.True(t, r.IsReachable(2))

	g.RemoveEdge(0, 1, 2)
	r.RemoveEdge(1, 2)
	require.False(t, r.IsReachable(2))
	require.True(t, r.IsReachable(1), "removing 1->2 must not disturb 0->1")
}

func TestRamalRepsRemoveEdgeFindsAlternatePath(t *testing.T) {
	g := NewBacktrackingGraph(3)
	// Two disjoint routes from 0 to 2: 0->2 direct, and 0->1->2.
	g.AddEdge(0, 0, 2)
	g.AddEdge(0, 0, 1)
	g.AddEdge(0, 1, 2)
	r := NewRamalReps(g, 0, false)
	d, _ := r.Distance(2)
	require.Equal(t, 1, d)

	g.RemoveEdge(0, 0, 2)
	r.RemoveEdge(0, 2)
	require.True(t, r.IsReachable(2), "the 0->1->2 route should still connect 2")
	d, ok := r.Distance(2)
	require.True(t, ok)
	require.Equal(t, 2, d)
}

func TestRamalRepsBatchedModeDefersUntilRefresh(t *testing.T) {
	g := NewBacktrackingGraph(2)
	r := NewRamalReps(g, 0, true)
	require.False(t, r.IsReachable(1))

	g.AddEdge(0, 0, 1)
	r.AddEdge(0, 1)
	require.False(t, r.IsReachable(1), "batched mode must not apply until Refresh")

	r.Refresh()
	require.True(t, r.IsReachable(1))
}

func TestRamalRepsChangedReportsDeltas(t *testing.T) {
	g := NewBacktrackingGraph(3)
	r := NewRamalReps(g, 0, true)

	g.AddEdge(0, 0, 1)
	r.AddEdge(0, 1)
	g.AddEdge(0, 1, 2)
	r.AddEdge(1, 2)
	r.Refresh()

	changed := r.Changed()
	require.ElementsMatch(t, []int{1, 2}, changed)

	// A second refresh with no pending changes reports nothing new.
	r.Refresh()
	require.Empty(t, r.Changed())
}
