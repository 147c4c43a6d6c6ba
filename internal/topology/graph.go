package topology

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/lvlath/core"
)

// GraphTopology adapts a github.com/katalvlaran/lvlath/core.Graph (string
// vertex ids, directed, no self-support) to the integer-indexed Topology
// interface spec §6 expects. Vertex indices are assigned in sorted-ID order
// at construction time and never change afterwards; this makes GraphTopology
// a snapshot view suitable as the static "problem graph" G of spec §4.7's
// GraphPromotion. internal/reach wraps its own mutable min/max/explanation
// digraphs separately, since those need edge add/remove with
// timestamp-indexed backtracking that a plain lvlath core.Graph does not
// provide.
type GraphTopology struct {
	g       *core.Graph
	ids     []string       // index -> vertex id
	indexOf map[string]int // vertex id -> index

	out [][]edgeRef // out[v] sorted by destination index
	in  [][]edgeRef // in[v] sorted by source index
}

type edgeRef struct {
	other int
	link  TopologyLink
}

// NewGraphTopology snapshots g into index-addressed adjacency lists.
func NewGraphTopology(g *core.Graph) *GraphTopology {
	ids := g.Vertices()
	sort.Strings(ids)

	t := &GraphTopology{
		g:       g,
		ids:     ids,
		indexOf: make(map[string]int, len(ids)),
		out:     make([][]edgeRef, len(ids)),
		in:      make([][]edgeRef, len(ids)),
	}
	for i, id := range ids {
		t.indexOf[id] = i
	}
	for i, id := range ids {
		neighborIDs, err := g.NeighborIDs(id)
		if err != nil {
			continue // isolated vertex
		}
		sort.Strings(neighborIDs)
		for _, nb := range neighborIDs {
			j, ok := t.indexOf[nb]
			if !ok {
				continue
			}
			outIdx := len(t.out[i])
			inIdx := len(t.in[j])
			link := TopologyLink{OutIndex: outIdx, InIndex: inIdx}
			t.out[i] = append(t.out[i], edgeRef{other: j, link: link})
			t.in[j] = append(t.in[j], edgeRef{other: i, link: link})
		}
	}
	return t
}

func (t *GraphTopology) NumVertices() int { return len(t.ids) }

func (t *GraphTopology) IsValidVertex(v int) bool { return v >= 0 && v < len(t.ids) }

func (t *GraphTopology) VertexID(v int) string { return t.ids[v] }

func (t *GraphTopology) IndexOf(id string) (int, bool) {
	i, ok := t.indexOf[id]
	return i, ok
}

func (t *GraphTopology) NumOutgoing(v int) int { return len(t.out[v]) }

func (t *GraphTopology) OutgoingDestination(v, i int) (int, bool) {
	if i < 0 || i >= len(t.out[v]) {
		return 0, false
	}
	return t.out[v][i].other, true
}

func (t *GraphTopology) NumIncoming(v int) int { return len(t.in[v]) }

func (t *GraphTopology) IncomingSource(v, i int) (int, bool) {
	if i < 0 || i >= len(t.in[v]) {
		return 0, false
	}
	return t.in[v][i].other, true
}

func (t *GraphTopology) HasEdge(u, v int) bool {
	if !t.IsValidVertex(u) || !t.IsValidVertex(v) {
		return false
	}
	return t.g.HasEdge(t.ids[u], t.ids[v])
}

func (t *GraphTopology) TopologyLink(u, v int) (TopologyLink, bool) {
	if !t.IsValidVertex(u) {
		return TopologyLink{}, false
	}
	for _, e := range t.out[u] {
		if e.other == v {
			return e.link, true
		}
	}
	return TopologyLink{}, false
}

// EdgeTopology reports false: a plain GraphTopology has no edge-vertex
// layer of its own, and no type in this module implements EdgeTopology.
func (t *GraphTopology) EdgeTopology() (EdgeTopology, bool) { return nil, false }

// AddEdgeChangeListener is a no-op: GraphTopology is an immutable snapshot.
func (t *GraphTopology) AddEdgeChangeListener(EdgeChangeListener) {}

func (t *GraphTopology) String() string {
	return fmt.Sprintf("GraphTopology(%d vertices)", len(t.ids))
}
