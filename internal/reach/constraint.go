package reach

import (
	"sort"

	"github.com/solverforge/fdcdcl/internal/fd"
)

// Reachability variables are encoded over a fixed width-2 domain: bit 0 is
// the "false" value (not-reachable / closed / not-source), bit 1 is "true"
// (reachable / open / source). narrowReachable/narrowUnreachable etc. below
// narrow to the singleton mask for one of the two.
var (
	trueMask  = fd.SingleValueSet(2, 1)
	falseMask = fd.SingleValueSet(2, 0)
)

func isTrue(vs fd.ValueSet) bool  { return vs.Equal(trueMask) }
func isFalse(vs fd.ValueSet) bool { return vs.Equal(falseMask) }

// staticGraph is the fixed, never-mutated edge universe a ReachabilityConstraint
// is built over; only the *status* (open/closed/unknown) of each edge
// changes during search, never its existence, so min-cut explanations run
// against this rather than against the live min/max views.
type staticGraph struct {
	n   int
	out [][]int
	in  [][]int
}

func newStaticGraph(n int, edges [][2]int) *staticGraph {
	g := &staticGraph{n: n, out: make([][]int, n), in: make([][]int, n)}
	for _, e := range edges {
		g.out[e[0]] = append(g.out[e[0]], e[1])
		g.in[e[1]] = append(g.in[e[1]], e[0])
	}
	for v := 0; v < n; v++ {
		sort.Ints(g.out[v])
		sort.Ints(g.in[v])
	}
	return g
}

func (g *staticGraph) NumVertices() int        { return g.n }
func (g *staticGraph) Out(v int) []int         { return g.out[v] }
func (g *staticGraph) In(v int) []int          { return g.in[v] }
func (g *staticGraph) HasEdge(u, v int) bool {
	for _, w := range g.out[u] {
		if w == v {
			return true
		}
	}
	return false
}

// sourceRemoval is one journal entry of spec §4.6's backtracking note
// ("Journals carry decisionLevel → removedSources[]").
type sourceRemoval struct {
	level  int
	vertex int
}

// ReachabilityConstraint is the dual min/max dynamic-graph reachability
// constraint of spec §4.6, grounded on
// original_source/vertexy/.../ReachabilityConstraint.cpp. It narrows each
// vertex's reachability variable to DefinitelyReachable/DefinitelyUnreachable
// once the evidence is conclusive, and narrows a source variable to "is
// source" when exactly one remaining potential source can reach a
// required vertex.
type ReachabilityConstraint struct {
	id fd.ConstraintID

	numVertices int
	edges       [][2]int
	full        *staticGraph

	edgeVar   map[[2]int]fd.VariableID
	vertexVar []fd.VariableID
	sourceVar map[int]fd.VariableID // potential source vertex -> its "is source" variable
	required  []bool                // per vertex: must eventually be reachable

	// initialPotentialSources is fixed at Initialize and never mutated
	// again: spec §9(a) resolves ExplainRequiredSource's cut-side check to
	// use this rather than the live, shrinking potentialSources set, since
	// a source removed mid-search is still a legitimate "what if" branch
	// for the explanation to reason about.
	initialPotentialSources []int
	potentialSources        []int // live set; shrinks as sources are ruled out

	minGraph         *BacktrackingGraph
	maxGraph         *BacktrackingGraph
	explanationGraph *BacktrackingGraph

	minOracle map[int]*RamalReps
	maxOracle map[int]*RamalReps

	removedSources []sourceRemoval

	// conflict holds the explanation captured at the Narrow call that most
	// recently returned false from within Propagate, consumed by
	// ExplainConflict: the constraint's own Narrow attempts are the only way
	// it can become the reporting conflicting constraint (solver.go's main
	// loop), so the reason is always whatever this constraint was narrowing
	// toward, plus the pinned value that made it contradictory.
	conflict []fd.Literal
}

// NewReachabilityConstraint builds a constraint over numVertices vertices
// and the given directed edges. edgeVar maps each edge to the variable
// encoding whether it is open; vertexVar maps each vertex to the variable
// encoding whether it is reachable; sourceVar maps each potential source
// vertex to the variable encoding whether it is active; required marks
// vertices that must end up reachable from some source.
func NewReachabilityConstraint(
	numVertices int,
	edges [][2]int,
	edgeVar map[[2]int]fd.VariableID,
	vertexVar []fd.VariableID,
	sourceVar map[int]fd.VariableID,
	required []bool,
) *ReachabilityConstraint {
	sources := make([]int, 0, len(sourceVar))
	for s := range sourceVar {
		sources = append(sources, s)
	}
	sort.Ints(sources)

	return &ReachabilityConstraint{
		numVertices:             numVertices,
		edges:                   edges,
		full:                    newStaticGraph(numVertices, edges),
		edgeVar:                 edgeVar,
		vertexVar:               vertexVar,
		sourceVar:                sourceVar,
		required:                required,
		initialPotentialSources: sources,
		potentialSources:        append([]int(nil), sources...),
		minGraph:                NewBacktrackingGraph(numVertices),
		maxGraph:                NewBacktrackingGraph(numVertices),
		explanationGraph:        NewBacktrackingGraph(numVertices),
		minOracle:               map[int]*RamalReps{},
		maxOracle:               map[int]*RamalReps{},
	}
}

func (c *ReachabilityConstraint) SetConstraintID(id fd.ConstraintID) { c.id = id }

func (c *ReachabilityConstraint) ConstrainingVariables() []fd.VariableID {
	out := make([]fd.VariableID, 0, len(c.edgeVar)+len(c.vertexVar)+len(c.sourceVar))
	for _, v := range c.edgeVar {
		out = append(out, v)
	}
	out = append(out, c.vertexVar...)
	for _, v := range c.sourceVar {
		out = append(out, v)
	}
	return out
}

func (c *ReachabilityConstraint) OnVariableNarrowed(db *fd.Database, v fd.VariableID, prev fd.ValueSet) bool {
	db.Queue().EnqueueConstraint(c.id)
	return true
}

// Initialize wires watchers on every constraining variable, seeds the three
// graph views from each edge's initial value set, builds a batched
// Ramalingam-Reps oracle per potential source over minGraph and maxGraph,
// and runs an initial Propagate.
func (c *ReachabilityConstraint) Initialize(db *fd.Database) bool {
	for edge, v := range c.edgeVar {
		db.AddWatcher(v, c, fd.WatchAnyChange)
		cur := db.Current(v)
		if cur.IsSubsetOf(trueMask) {
			c.minGraph.AddEdge(0, edge[0], edge[1])
		}
		if !cur.IsSubsetOf(falseMask) {
			c.maxGraph.AddEdge(0, edge[0], edge[1])
			c.explanationGraph.AddEdge(0, edge[0], edge[1])
		}
	}
	for _, v := range c.vertexVar {
		db.AddWatcher(v, c, fd.WatchAnyChange)
	}
	for _, v := range c.sourceVar {
		db.AddWatcher(v, c, fd.WatchAnyChange)
	}

	for _, s := range c.potentialSources {
		c.minOracle[s] = NewRamalReps(c.minGraph, s, true)
		c.maxOracle[s] = NewRamalReps(c.maxGraph, s, true)
	}

	return c.Propagate(db)
}

// sourceIsActive reports whether s is currently a definite source: either
// it has no source variable at all (an always-on source), or its variable
// is narrowed to "source".
func (c *ReachabilityConstraint) sourceIsActive(db *fd.Database, s int) bool {
	v, ok := c.sourceVar[s]
	if !ok {
		return true
	}
	return isTrue(db.Current(v))
}

func (c *ReachabilityConstraint) sourceIsRuledOut(db *fd.Database, s int) bool {
	v, ok := c.sourceVar[s]
	if !ok {
		return false
	}
	return isFalse(db.Current(v))
}

// refreshGraphsAndOracles is propagation step 1-2 of spec §4.6: resync the
// three graph views from each edge variable's current domain, then
// batch-refresh every potential source's pair of oracles. BacktrackingGraph's
// Add/RemoveEdge are idempotent, so re-deriving every edge's status on each
// propagate call (rather than tracking deltas) only costs a redundant
// HasEdge check on edges that didn't change. The oracles need the same
// re-derivation fed into them directly (RamalReps.AddEdge/RemoveEdge, not
// just the backing BacktrackingGraph), since Refresh only replays whatever
// sits in its pendingAdd/pendingRemove queues.
func (c *ReachabilityConstraint) refreshGraphsAndOracles(db *fd.Database) {
	level := db.DecisionLevel()
	for edge, v := range c.edgeVar {
		cur := db.Current(v)
		switch {
		case cur.IsSubsetOf(trueMask):
			c.minGraph.AddEdge(level, edge[0], edge[1])
			for _, o := range c.minOracle {
				o.AddEdge(edge[0], edge[1])
			}
		case cur.IsSubsetOf(falseMask):
			c.maxGraph.RemoveEdge(level, edge[0], edge[1])
			c.explanationGraph.RemoveEdge(level, edge[0], edge[1])
			for _, o := range c.maxOracle {
				o.RemoveEdge(edge[0], edge[1])
			}
		}
	}

	// A source ruled out since the last pass drops out of the live set and
	// is journaled so Backtrack can restore it.
	var stillPotential []int
	for _, s := range c.potentialSources {
		if c.sourceIsRuledOut(db, s) {
			c.removedSources = append(c.removedSources, sourceRemoval{level, s})
			continue
		}
		stillPotential = append(stillPotential, s)
	}
	c.potentialSources = stillPotential

	for _, s := range c.potentialSources {
		c.minOracle[s].Refresh()
		c.maxOracle[s].Refresh()
	}
}

// canReachIgnoringSelf reports whether oracle o (rooted at s) reaches v,
// excluding the trivial case v == s (spec §4.6 "a vertex does not support
// its own reachability").
func canReachIgnoringSelf(o *RamalReps, s, v int) bool {
	if s == v {
		return false
	}
	return o.IsReachable(v)
}

// Propagate runs one full pass of spec §4.6's propagation loop: resync the
// graphs and oracles, then determine and narrow every vertex's
// reachability, and every still-ambiguous required vertex's unique
// possible source.
func (c *ReachabilityConstraint) Propagate(db *fd.Database) bool {
	c.refreshGraphsAndOracles(db)

	for v := 0; v < c.numVertices; v++ {
		vv, ok := c.vertexVarOf(v)
		if !ok {
			continue
		}
		cur := db.Current(vv)

		definitelyReachable := false
		reachedBy := -1
		possiblyReachable := false
		solelyReachableBy := -1
		reachableByCount := 0
		for _, s := range c.potentialSources {
			minReach := canReachIgnoringSelf(c.minOracle[s], s, v)
			maxReach := canReachIgnoringSelf(c.maxOracle[s], s, v)
			if minReach && c.sourceIsActive(db, s) {
				definitelyReachable = true
				reachedBy = s
			}
			if minReach || maxReach {
				possiblyReachable = true
				reachableByCount++
				solelyReachableBy = s
			}
		}

		if definitelyReachable {
			if !isTrue(cur) {
				explainer := c.explainReachable(db, reachedBy, v)
				if !db.Narrow(vv, trueMask, c, explainer) {
					c.conflict = append(explainer(), fd.Literal{Var: vv, Mask: cur})
					return false
				}
			}
			continue
		}

		if !possiblyReachable {
			if !isFalse(cur) {
				explainer := c.explainUnreachable(db, v)
				if !db.Narrow(vv, falseMask, c, explainer) {
					c.conflict = append(explainer(), fd.Literal{Var: vv, Mask: cur})
					return false
				}
			}
			continue
		}

		if c.required[v] && isTrue(cur) && reachableByCount == 1 {
			if sv, ok := c.sourceVar[solelyReachableBy]; ok && !isTrue(db.Current(sv)) {
				curSV := db.Current(sv)
				explainer := c.explainRequiredSource(db, solelyReachableBy, v)
				if !db.Narrow(sv, trueMask, c, explainer) {
					c.conflict = append(explainer(), fd.Literal{Var: sv, Mask: curSV})
					return false
				}
			}
		}
	}

	return true
}

func (c *ReachabilityConstraint) vertexVarOf(v int) (fd.VariableID, bool) {
	if v < 0 || v >= len(c.vertexVar) {
		return 0, false
	}
	return c.vertexVar[v], true
}

// explainUnreachable returns the explainer for narrowing vertex v to
// DefinitelyUnreachable (spec §4.6 "Explanation of unreachability"): for
// every initially-potential source, the minimum edge cut between it and v
// over the explanation-graph snapshot at the current decision level, plus
// (for sources already ruled out) the literal asserting they could still
// become a source.
func (c *ReachabilityConstraint) explainUnreachable(db *fd.Database, v int) fd.Explainer {
	level := db.DecisionLevel()
	return func() []fd.Literal {
		var lits []fd.Literal
		// Min-cut runs over the static edge universe (c.full); the rewound
		// explanationGraph snapshot only tells us which of those edges
		// currently read as closed.
		snapshot := c.explanationGraph.SnapshotAt(level)
		closedAt := map[[2]int]bool{}
		for _, e := range c.edges {
			if !snapshot.HasEdge(vertexID(e[0]), vertexID(e[1])) {
				closedAt[e] = true
			}
		}
		for _, s := range c.initialPotentialSources {
			if c.sourceIsRuledOut(db, s) {
				if sv, ok := c.sourceVar[s]; ok {
					lits = append(lits, fd.Literal{Var: sv, Mask: falseMask})
				}
				continue
			}
			cut := MinCut(c.full, s, v, func(u, w int) bool { return closedAt[[2]int{u, w}] })
			for _, e := range cut {
				if ev, ok := c.edgeVar[[2]int{e.From, e.To}]; ok {
					lits = append(lits, fd.Literal{Var: ev, Mask: falseMask})
				}
			}
		}
		return lits
	}
}

// explainReachable returns the explainer for narrowing vertex v to
// DefinitelyReachable: source s's "is source" literal, if any, plus the
// open-edge literals of a path from s to v in minGraph.
func (c *ReachabilityConstraint) explainReachable(db *fd.Database, s, v int) fd.Explainer {
	return func() []fd.Literal {
		var lits []fd.Literal
		if sv, ok := c.sourceVar[s]; ok {
			lits = append(lits, fd.Literal{Var: sv, Mask: trueMask})
		}
		pred := map[int]int{s: s}
		queue := []int{s}
		for len(queue) > 0 {
			if _, found := pred[v]; found {
				break
			}
			u := queue[0]
			queue = queue[1:]
			for _, w := range c.minGraph.Out(u) {
				if _, seen := pred[w]; seen {
					continue
				}
				pred[w] = u
				queue = append(queue, w)
			}
		}
		for cur := v; cur != s; {
			p, ok := pred[cur]
			if !ok {
				break
			}
			if ev, ok := c.edgeVar[[2]int{p, cur}]; ok {
				lits = append(lits, fd.Literal{Var: ev, Mask: trueMask})
			}
			cur = p
		}
		return lits
	}
}

// explainRequiredSource returns the explainer for narrowing source s's
// variable to "is source" (spec §4.6 "Explanation of required source"):
// the requirement that v be reachable, plus the absence of any other
// potential source able to reach v.
func (c *ReachabilityConstraint) explainRequiredSource(db *fd.Database, s, v int) fd.Explainer {
	return func() []fd.Literal {
		var lits []fd.Literal
		if vv, ok := c.vertexVarOf(v); ok {
			lits = append(lits, fd.Literal{Var: vv, Mask: trueMask})
		}
		for _, s2 := range c.initialPotentialSources {
			if s2 == s {
				continue
			}
			if sv, ok := c.sourceVar[s2]; ok {
				lits = append(lits, fd.Literal{Var: sv, Mask: falseMask})
			}
		}
		return lits
	}
}

func (c *ReachabilityConstraint) Explain(db *fd.Database, assertedVar fd.VariableID) []fd.Literal {
	for v, vv := range c.vertexVar {
		if vv != assertedVar {
			continue
		}
		if isFalse(db.Current(vv)) {
			return c.explainUnreachable(db, v)()
		}
		for _, s := range c.potentialSources {
			if canReachIgnoringSelf(c.minOracle[s], s, v) {
				return c.explainReachable(db, s, v)()
			}
		}
		return nil
	}
	for s, sv := range c.sourceVar {
		if sv != assertedVar {
			continue
		}
		for v := range c.vertexVar {
			if c.required[v] {
				return c.explainRequiredSource(db, s, v)()
			}
		}
	}
	return nil
}

// ExplainConflict returns the reason captured by Propagate the moment one of
// its own Narrow calls emptied a domain: the graph/source explanation for
// the value it was narrowing toward, plus the pinned opposing value that
// made the narrowing contradictory (spec §8 scenario 3).
func (c *ReachabilityConstraint) ExplainConflict(db *fd.Database) []fd.Literal { return c.conflict }

// Backtrack restores every source removed above level and rewinds the
// three graph views, per spec §4.6's backtracking journal.
func (c *ReachabilityConstraint) Backtrack(db *fd.Database, level int) {
	var kept []sourceRemoval
	for _, r := range c.removedSources {
		if r.level > level {
			c.potentialSources = append(c.potentialSources, r.vertex)
			continue
		}
		kept = append(kept, r)
	}
	c.removedSources = kept
	sort.Ints(c.potentialSources)

	c.minGraph.Backtrack(level)
	c.maxGraph.Backtrack(level)
	c.explanationGraph.Backtrack(level)

	for _, s := range c.potentialSources {
		if _, ok := c.minOracle[s]; !ok {
			c.minOracle[s] = NewRamalReps(c.minGraph, s, true)
			c.maxOracle[s] = NewRamalReps(c.maxGraph, s, true)
		}
	}
}
