// Package reach implements the dual min/max dynamic-graph reachability
// constraint of spec §4.6: backtracking graph views, a Ramalingam-Reps
// dynamic single-source reachability oracle per potential source, a
// min-cut based unreachability explainer, and the ReachabilityConstraint
// that ties them together as an internal/fd.Constraint.
package reach

import (
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
)

// Graph is the small dynamic-adjacency view RamalReps needs: the current
// outgoing/incoming neighbours of a vertex by integer index. BacktrackingGraph
// is the only implementation, but the interface keeps RamalReps free of any
// lvlath dependency of its own.
type Graph interface {
	NumVertices() int
	Out(v int) []int
	In(v int) []int
	HasEdge(u, v int) bool
}

func vertexID(v int) string { return strconv.Itoa(v) }

func vertexIndex(id string) int {
	i, err := strconv.Atoi(id)
	if err != nil {
		panic("reach: non-numeric vertex id " + id)
	}
	return i
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type graphOp struct {
	level int
	kind  opKind
	u, v  int
}

// BacktrackingGraph is one of ReachabilityConstraint's three graph views
// (minGraph/maxGraph/explanationGraph, spec §4.6): a directed graph built
// over github.com/katalvlaran/lvlath/core.Graph, with edge add/remove
// journaled by decision level so a backjump can undo exactly the edges
// opened or closed above the new level — the same timestamped-journal
// shape as internal/fd.Database's trail (spec §4.2), applied to graph
// structure instead of variable domains. core.Graph has no reverse-
// adjacency query, so incoming edges are tracked in a side index kept in
// lockstep with every Add/RemoveEdge call.
type BacktrackingGraph struct {
	g    *core.Graph
	n    int
	in   []map[int]bool    // in[v][u] iff edge u->v currently present
	eid  map[[2]int]string // eid[{u,v}] is the lvlath edge id backing u->v, while present
	ops  []graphOp
}

// NewBacktrackingGraph returns an edgeless graph over n vertices.
func NewBacktrackingGraph(n int) *BacktrackingGraph {
	g := core.NewGraph(core.WithDirected(true))
	in := make([]map[int]bool, n)
	for v := 0; v < n; v++ {
		g.AddVertex(vertexID(v))
		in[v] = map[int]bool{}
	}
	return &BacktrackingGraph{g: g, n: n, in: in, eid: map[[2]int]string{}}
}

func (bg *BacktrackingGraph) NumVertices() int { return bg.n }

func (bg *BacktrackingGraph) HasEdge(u, v int) bool {
	return bg.g.HasEdge(vertexID(u), vertexID(v))
}

// Out returns the current out-neighbours of v, sorted by index (lvlath's
// NeighborIDs is only lexicographically sorted, so "10" would precede "2").
func (bg *BacktrackingGraph) Out(v int) []int {
	ids, err := bg.g.NeighborIDs(vertexID(v))
	if err != nil {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = vertexIndex(id)
	}
	sort.Ints(out)
	return out
}

// In returns the current in-neighbours of v, sorted by index.
func (bg *BacktrackingGraph) In(v int) []int {
	out := make([]int, 0, len(bg.in[v]))
	for u := range bg.in[v] {
		out = append(out, u)
	}
	sort.Ints(out)
	return out
}

// addEdgeRaw inserts u->v into the live graph and its id/in-neighbour
// indexes, the part shared by AddEdge and Backtrack's opRemove undo.
func (bg *BacktrackingGraph) addEdgeRaw(u, v int) {
	id, err := bg.g.AddEdge(vertexID(u), vertexID(v), 0)
	if err != nil {
		panic("reach: AddEdge: " + err.Error())
	}
	bg.eid[[2]int{u, v}] = id
	bg.in[v][u] = true
}

// removeEdgeRaw deletes u->v from the live graph and its indexes, the part
// shared by RemoveEdge and Backtrack's opAdd undo.
func (bg *BacktrackingGraph) removeEdgeRaw(u, v int) {
	id, ok := bg.eid[[2]int{u, v}]
	if !ok {
		return
	}
	if err := bg.g.RemoveEdge(id); err != nil {
		panic("reach: RemoveEdge: " + err.Error())
	}
	delete(bg.eid, [2]int{u, v})
	delete(bg.in[v], u)
}

// AddEdge inserts u->v at decision level if not already present, recording
// the op so a later Backtrack can undo it. Idempotent.
func (bg *BacktrackingGraph) AddEdge(level, u, v int) {
	if bg.HasEdge(u, v) {
		return
	}
	bg.addEdgeRaw(u, v)
	bg.ops = append(bg.ops, graphOp{level, opAdd, u, v})
}

// RemoveEdge deletes u->v at decision level if present. Idempotent.
func (bg *BacktrackingGraph) RemoveEdge(level, u, v int) {
	if !bg.HasEdge(u, v) {
		return
	}
	bg.removeEdgeRaw(u, v)
	bg.ops = append(bg.ops, graphOp{level, opRemove, u, v})
}

// Backtrack undoes every edge op recorded above `level`, most recent
// first, mirroring Database.Backtrack's trail rewind (spec §4.6
// "rewind all three graphs to the new timestamp").
func (bg *BacktrackingGraph) Backtrack(level int) {
	for len(bg.ops) > 0 && bg.ops[len(bg.ops)-1].level > level {
		op := bg.ops[len(bg.ops)-1]
		bg.ops = bg.ops[:len(bg.ops)-1]
		switch op.kind {
		case opAdd:
			bg.removeEdgeRaw(op.u, op.v)
		case opRemove:
			bg.addEdgeRaw(op.u, op.v)
		}
	}
}

// SnapshotAt returns a fresh, independent core.Graph holding exactly the
// edges present at decision level <= level (spec §4.6's explanation
// graph "rewind to the decision timestamp"). Rather than mutate the live
// explanationGraph and fast-forward it back afterward, the explainer
// replays the op log functionally: simpler to reason about than
// temporarily rewinding a structure that conflict analysis shares with
// nothing else mid-pass, at the cost of an O(ops) replay per explanation.
func (bg *BacktrackingGraph) SnapshotAt(level int) *core.Graph {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	for v := 0; v < bg.n; v++ {
		g.AddVertex(vertexID(v))
	}
	present := map[[2]int]bool{}
	for _, op := range bg.ops {
		if op.level > level {
			continue
		}
		key := [2]int{op.u, op.v}
		switch op.kind {
		case opAdd:
			present[key] = true
		case opRemove:
			delete(present, key)
		}
	}
	for e := range present {
		g.AddEdge(vertexID(e[0]), vertexID(e[1]), 1)
	}
	return g
}
