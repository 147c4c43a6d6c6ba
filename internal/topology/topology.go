// Package topology generalises the teacher's graph-consuming helpers to the
// abstract vertex/edge interfaces that internal/reach and internal/graphpromo
// build on (spec §6 "Topology interface consumed", §4.7 GraphPromotion).
//
// A Topology never owns the data that lives on its vertices; it only answers
// structural questions by integer vertex index, so that internal/reach's
// dynamic reachability oracles and internal/graphpromo's per-vertex clause
// promotion can be written once against the interface and grounded on any
// concrete graph, in the same way the teacher writes its clause database
// against small, narrowly-scoped interfaces rather than concrete structs.
package topology

// Topology is the read-only structural view a constraint consumes: vertex
// count, validity, and directed adjacency by position (spec §6).
type Topology interface {
	NumVertices() int
	IsValidVertex(v int) bool

	NumOutgoing(v int) int
	OutgoingDestination(v, i int) (dest int, ok bool)

	NumIncoming(v int) int
	IncomingSource(v, i int) (src int, ok bool)

	HasEdge(u, v int) bool

	// TopologyLink returns the link describing the edge u->v, or ok=false
	// if no such edge exists.
	TopologyLink(u, v int) (link TopologyLink, ok bool)

	// EdgeTopology returns the EdgeTopology view of this same graph, used
	// by reachability constraints whose edges are themselves variables
	// (spec §4.6). ok is false if this topology has no edge-vertex layer.
	EdgeTopology() (EdgeTopology, bool)

	// AddEdgeChangeListener registers a listener notified whenever an edge
	// is opened or closed in a topology that supports dynamic edges (spec
	// §6 edgeChangeListener.add). Static topologies accept listeners but
	// never invoke them.
	AddEdgeChangeListener(l EdgeChangeListener)
}

// TopologyLink identifies one edge between two vertices: its index among
// u's outgoing edges and among v's incoming edges, so that a caller that
// already knows the endpoints can recover the position-addressed form
// Topology.OutgoingDestination/IncomingSource expect without a linear scan.
type TopologyLink struct {
	OutIndex int
	InIndex  int
}

// EdgeTopology is implemented by topologies whose edges are themselves
// addressable as vertices, as required by the edge-open/closed reachability
// variables of spec §4.6.
type EdgeTopology interface {
	Topology

	// VertexForSourceEdge returns the edge-vertex standing in for the u->v
	// edge, if this topology represents edges that way.
	VertexForSourceEdge(u, v int) (edgeVertex int, ok bool)

	// SourceEdgeForVertex is the inverse of VertexForSourceEdge.
	SourceEdgeForVertex(edgeVertex int) (u, v int, bidirectional bool, ok bool)
}

// EdgeChangeListener is notified when an edge's open/closed state changes
// in a dynamic topology (spec §6).
type EdgeChangeListener interface {
	OnEdgeChange(u, v int, open bool)
}

// EdgeChangeListenerFunc adapts a function to EdgeChangeListener.
type EdgeChangeListenerFunc func(u, v int, open bool)

func (f EdgeChangeListenerFunc) OnEdgeChange(u, v int, open bool) { f(u, v, open) }
