package topology

// Relation is the small combinator algebra graph promotion uses to carry a
// clause's per-literal "which variable/literal does vertex v correspond to"
// mapping from the source vertex sv to every other vertex of the graph
// (spec §4.7). A Relation is evaluated at a vertex and either yields a
// value or reports failure (e.g. the vertex has no corresponding variable).
//
// Relation values must support structural equality so that
// ConstraintGraphRelationInfo can compare a promoted relation against the
// original one when deciding whether two candidate clauses are the same
// modulo vertex (spec §4.7's "equivalence hash of a clause").
type Relation[T any] interface {
	Eval(v int) (T, bool)

	// Equal reports structural equality with another Relation of the same
	// underlying kind; unrelated kinds are never equal.
	Equal(other Relation[T]) bool
}

// constRelation maps every vertex to the same value, used for the source
// vertex's own trivial self-relation.
type constRelation[T comparable] struct{ value T }

func Const[T comparable](value T) Relation[T] { return constRelation[T]{value} }

func (r constRelation[T]) Eval(int) (T, bool) { return r.value, true }

func (r constRelation[T]) Equal(other Relation[T]) bool {
	o, ok := other.(constRelation[T])
	return ok && o.value == r.value
}

// VertexData holds one value per vertex of a topology, the data half of a
// vertex-to-data Relation (the original's TTopologyVertexData<T>).
type VertexData[T any] struct {
	Topo   Topology
	Values []T
}

// VertexToData builds a Relation that looks a vertex up directly in a
// VertexData table, failing for indices outside the topology.
func VertexToData[T any](d VertexData[T]) Relation[T] {
	return vertexDataRelation[T]{d}
}

type vertexDataRelation[T any] struct{ d VertexData[T] }

func (r vertexDataRelation[T]) Eval(v int) (T, bool) {
	if !r.d.Topo.IsValidVertex(v) || v >= len(r.d.Values) {
		var zero T
		return zero, false
	}
	return r.d.Values[v], true
}

func (r vertexDataRelation[T]) Equal(other Relation[T]) bool {
	o, ok := other.(vertexDataRelation[T])
	if !ok || o.d.Topo != r.d.Topo || len(o.d.Values) != len(r.d.Values) {
		return false
	}
	return &o.d.Values[0] == &r.d.Values[0] || sameSlice(o.d.Values, r.d.Values)
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if any(a[i]) != any(b[i]) {
			return false
		}
	}
	return true
}

// TopologyLinkRelation evaluates to the TopologyLink between a fixed anchor
// vertex and the queried vertex, in the direction given by Forward.
type TopologyLinkRelation struct {
	Topo    Topology
	Anchor  int
	Forward bool // true: Anchor->v; false: v->Anchor
}

func (r TopologyLinkRelation) Eval(v int) (TopologyLink, bool) {
	if r.Forward {
		return r.Topo.TopologyLink(r.Anchor, v)
	}
	return r.Topo.TopologyLink(v, r.Anchor)
}

func (r TopologyLinkRelation) Equal(other Relation[TopologyLink]) bool {
	o, ok := other.(TopologyLinkRelation)
	return ok && o.Topo == r.Topo && o.Anchor == r.Anchor && o.Forward == r.Forward
}

// mapRelation composes a Relation[A] with a pure function A->B. Two
// mapRelations are equal only if their underlying relations are equal;
// the function itself is not compared (functions are not comparable in
// Go), so callers that need map-relation equality should instead compare
// the pre-image relations directly.
type mapRelation[A, B any] struct {
	src fn[A, B]
	rel Relation[A]
}

type fn[A, B any] func(A) (B, bool)

func Map[A, B any](rel Relation[A], f func(A) (B, bool)) Relation[B] {
	return mapRelation[A, B]{src: f, rel: rel}
}

func (r mapRelation[A, B]) Eval(v int) (B, bool) {
	a, ok := r.rel.Eval(v)
	if !ok {
		var zero B
		return zero, false
	}
	return r.src(a)
}

func (r mapRelation[A, B]) Equal(other Relation[B]) bool {
	o, ok := other.(mapRelation[A, B])
	if !ok {
		return false
	}
	return r.rel.Equal(o.rel)
}

// unionRelation evaluates its first relation, falling back to the second
// on failure; used to combine a vertex's own relation with one inherited
// from an adjacent vertex.
type unionRelation[T any] struct{ first, second Relation[T] }

func Union[T any](first, second Relation[T]) Relation[T] {
	return unionRelation[T]{first, second}
}

func (r unionRelation[T]) Eval(v int) (T, bool) {
	if val, ok := r.first.Eval(v); ok {
		return val, true
	}
	return r.second.Eval(v)
}

func (r unionRelation[T]) Equal(other Relation[T]) bool {
	o, ok := other.(unionRelation[T])
	return ok && r.first.Equal(o.first) && r.second.Equal(o.second)
}

// intersectRelation evaluates both relations and succeeds only when they
// agree, per the supplied equality function.
type intersectRelation[T any] struct {
	first, second Relation[T]
	eq            func(a, b T) bool
}

func Intersect[T any](first, second Relation[T], eq func(a, b T) bool) Relation[T] {
	return intersectRelation[T]{first, second, eq}
}

func (r intersectRelation[T]) Eval(v int) (T, bool) {
	a, ok := r.first.Eval(v)
	if !ok {
		var zero T
		return zero, false
	}
	b, ok := r.second.Eval(v)
	if !ok || !r.eq(a, b) {
		var zero T
		return zero, false
	}
	return a, true
}

func (r intersectRelation[T]) Equal(other Relation[T]) bool {
	o, ok := other.(intersectRelation[T])
	return ok && r.first.Equal(o.first) && r.second.Equal(o.second)
}

// invertRelation evaluates the TopologyLink in the opposite direction, used
// when a clause's literal-to-vertex mapping was recorded following outgoing
// edges but promotion needs to walk it backwards.
type invertRelation struct{ inner TopologyLinkRelation }

func Invert(r TopologyLinkRelation) Relation[TopologyLink] {
	return invertRelation{TopologyLinkRelation{Topo: r.Topo, Anchor: r.Anchor, Forward: !r.Forward}}
}

func (r invertRelation) Eval(v int) (TopologyLink, bool) { return r.inner.Eval(v) }

func (r invertRelation) Equal(other Relation[TopologyLink]) bool {
	o, ok := other.(invertRelation)
	return ok && o.inner.Equal(r.inner)
}
