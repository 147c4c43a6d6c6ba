package reach

import (
	"sort"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/flow"
)

// Flow capacities for the min-cut certificate of spec §4.6
// "explainNoReachability": an edge the constraint could still open carries
// essentially unlimited capacity, while an edge already forced closed
// carries exactly enough to be saturated by a single unit of flow, so the
// minimum cut is forced to pick among already-closed edges wherever one
// alone suffices to sever source from sink.
const (
	closedEdgeFlow = 1
	openEdgeFlow   = 1 << 29
)

// CutEdge is one edge crossing the min cut returned by MinCut.
type CutEdge struct {
	From, To int
}

// MinCut returns a minimal set of edges whose closure disconnects source
// from sink in g, where isClosed reports which edges are already known
// closed (their absence is the reason to explain) versus merely unresolved.
// Grounded on ReachabilityConstraint.cpp's explainNoReachability, which
// builds a flow network over the *other* polarity's graph and extracts a
// min vertex/edge cut via max-flow/min-cut duality; here this is
// implemented directly over github.com/katalvlaran/lvlath/flow's Dinic
// instead of a hand-rolled max-flow routine.
func MinCut(g Graph, source, sink int, isClosed func(u, v int) bool) []CutEdge {
	fg := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	for v := 0; v < g.NumVertices(); v++ {
		fg.AddVertex(vertexID(v))
	}
	type edge struct{ u, v int }
	var edges []edge
	for v := 0; v < g.NumVertices(); v++ {
		for _, w := range g.Out(v) {
			cap := int64(openEdgeFlow)
			if isClosed(v, w) {
				cap = closedEdgeFlow
			}
			fg.AddEdge(vertexID(v), vertexID(w), cap)
			edges = append(edges, edge{v, w})
		}
	}

	_, residual, err := flow.Dinic(fg, vertexID(source), vertexID(sink), flow.FlowOptions{})
	if err != nil {
		return nil
	}

	// The reachable side of the min cut is exactly the set of vertices
	// still reachable from source in the residual graph (max-flow/min-cut
	// duality); a saturated original edge crossing that boundary is a cut
	// edge.
	reachable := map[int]bool{source: true}
	stack := []int{source}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids, err := residual.NeighborIDs(vertexID(u))
		if err != nil {
			continue
		}
		for _, id := range ids {
			w := vertexIndex(id)
			if !reachable[w] && residual.HasEdge(vertexID(u), id) {
				reachable[w] = true
				stack = append(stack, w)
			}
		}
	}

	var cut []CutEdge
	for _, e := range edges {
		if reachable[e.u] && !reachable[e.v] {
			cut = append(cut, CutEdge{e.u, e.v})
		}
	}
	sort.Slice(cut, func(i, j int) bool {
		if cut[i].From != cut[j].From {
			return cut[i].From < cut[j].From
		}
		return cut[i].To < cut[j].To
	})
	return cut
}
