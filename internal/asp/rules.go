// Package asp implements the unfounded-set analysis layer of spec §4.8: a
// rule database of atoms and bodies partitioned into strongly connected
// components, and an UnfoundedSetAnalyzer that falsifies atoms whose only
// support lies inside their own cycle. Grounded on
// original_source/vertexy/src/public/rules/UnfoundedSetAnalyzer.h and its
// .cpp, translated into idiomatic Go rather than carried over line by line:
// the original's hand-rolled TFastLookupSet (an index-checked "is this
// already queued" set plus a vector, used as a LIFO work queue) becomes a
// plain slice plus a bool membership slice here.
package asp

import "github.com/solverforge/fdcdcl/internal/fd"

// AtomID identifies a rule head atom, dense from 0.
type AtomID int

// BodyID identifies a rule body, dense from 0.
type BodyID int

// BodyLiteral is one literal of a rule body: a reference to an atom, either
// positive ("p is true") or negative ("p is false") per spec §3's
// "positive-dependency bodies".
type BodyLiteral struct {
	Atom     AtomID
	Positive bool
}

type atomInfo struct {
	equivalence fd.Literal // true iff the atom holds
	scc         int        // -1 if not part of any positive cycle

	supports             []BodyID // bodies that have this atom as a head
	positiveDependencies []BodyID // bodies citing this atom as a positive body literal
}

type bodyInfo struct {
	lit      fd.Literal // true iff the body holds
	heads    []AtomID
	literals []BodyLiteral
	scc      int // -1 if not part of any positive cycle
}

// RuleDatabase is the rule dependency graph of spec §3 "Rule database":
// atoms and bodies, each carrying its SCC id once Finalize partitions the
// positive-dependency graph.
type RuleDatabase struct {
	atoms     []atomInfo
	bodies    []bodyInfo
	finalized bool
}

// NewRuleDatabase returns an empty rule database.
func NewRuleDatabase() *RuleDatabase {
	return &RuleDatabase{}
}

// AddAtom registers a fresh atom whose truth is tracked by equivalence.
func (rdb *RuleDatabase) AddAtom(equivalence fd.Literal) AtomID {
	id := AtomID(len(rdb.atoms))
	rdb.atoms = append(rdb.atoms, atomInfo{equivalence: equivalence, scc: -1})
	return id
}

// AddBody registers a rule body: lit is true iff every literal in literals
// holds (the conjunction the body's own clauses must already enforce — rule
// compilation into clauses is the out-of-scope construction layer's job,
// spec §1); heads lists the atoms this body supports when it holds.
func (rdb *RuleDatabase) AddBody(lit fd.Literal, literals []BodyLiteral, heads []AtomID) BodyID {
	id := BodyID(len(rdb.bodies))
	rdb.bodies = append(rdb.bodies, bodyInfo{
		lit:      lit,
		heads:    append([]AtomID(nil), heads...),
		literals: append([]BodyLiteral(nil), literals...),
		scc:      -1,
	})
	for _, h := range heads {
		rdb.atoms[h].supports = append(rdb.atoms[h].supports, id)
	}
	for _, l := range literals {
		if l.Positive {
			rdb.atoms[l.Atom].positiveDependencies = append(rdb.atoms[l.Atom].positiveDependencies, id)
		}
	}
	return id
}

func (rdb *RuleDatabase) NumAtoms() int  { return len(rdb.atoms) }
func (rdb *RuleDatabase) NumBodies() int { return len(rdb.bodies) }

// Finalize partitions the combined atom/body dependency graph into strongly
// connected components (node set = atoms ∪ bodies; edges head-atom->body for
// every body citing it as a head, body->positive-literal-atom for every
// positive literal). Atoms and bodies outside any cycle (SCC of size 1 with
// no self-loop) get scc = -1; the rest get consecutive non-negative ids.
// Must be called once, after every atom and body has been added, before
// NewUnfoundedSetAnalyzer.
func (rdb *RuleDatabase) Finalize() {
	if rdb.finalized {
		return
	}
	rdb.finalized = true

	numAtoms := len(rdb.atoms)
	n := numAtoms + len(rdb.bodies)
	adj := make([][]int, n)
	bodyNode := func(b BodyID) int { return numAtoms + int(b) }
	for b, body := range rdb.bodies {
		for _, h := range body.heads {
			adj[int(h)] = append(adj[int(h)], bodyNode(BodyID(b)))
		}
		for _, l := range body.literals {
			if l.Positive {
				adj[bodyNode(BodyID(b))] = append(adj[bodyNode(BodyID(b))], int(l.Atom))
			}
		}
	}

	sccOf := tarjanSCC(adj)

	// Count component sizes and detect self-loops to distinguish genuine
	// cycles (spec §4.8 only tracks atoms with a positive cycle) from
	// trivial singletons.
	compSize := map[int]int{}
	for _, c := range sccOf {
		compSize[c]++
	}
	hasSelfLoop := make([]bool, n)
	for u, outs := range adj {
		for _, w := range outs {
			if w == u {
				hasSelfLoop[u] = true
			}
		}
	}

	remap := map[int]int{}
	nextID := 0
	sccID := func(node int) int {
		c := sccOf[node]
		if compSize[c] <= 1 && !hasSelfLoop[node] {
			return -1
		}
		id, ok := remap[c]
		if !ok {
			id = nextID
			nextID++
			remap[c] = id
		}
		return id
	}

	for i := range rdb.atoms {
		rdb.atoms[i].scc = sccID(i)
	}
	for i := range rdb.bodies {
		rdb.bodies[i].scc = sccID(bodyNode(BodyID(i)))
	}
}

// IsTight reports whether the program has no positive cycles at all, in
// which case spec §4.9's unfounded-set analyzer is unnecessary.
func (rdb *RuleDatabase) IsTight() bool {
	for _, a := range rdb.atoms {
		if a.scc >= 0 {
			return false
		}
	}
	return true
}

// tarjanSCC returns, for each node, an arbitrary integer identifying its
// strongly connected component (two nodes share a component iff they are
// mutually reachable); ids are not contiguous on their own, callers index
// them through a side map as Finalize does.
func tarjanSCC(adj [][]int) []int {
	n := len(adj)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	counter := 0
	compCounter := 0

	type frame struct {
		node    int
		i       int
		parent  int
		started bool
	}

	var work []frame
	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		work = append(work, frame{node: root})
		for len(work) > 0 {
			top := &work[len(work)-1]
			if !top.started {
				top.started = true
				index[top.node] = counter
				lowlink[top.node] = counter
				counter++
				stack = append(stack, top.node)
				onStack[top.node] = true
			}
			if top.i < len(adj[top.node]) {
				w := adj[top.node][top.i]
				top.i++
				if index[w] == -1 {
					work = append(work, frame{node: w})
					continue
				} else if onStack[w] {
					if index[w] < lowlink[top.node] {
						lowlink[top.node] = index[w]
					}
				}
				continue
			}
			// Done with node: pop frame, propagate lowlink to parent.
			v := top.node
			work = work[:len(work)-1]
			if len(work) > 0 {
				p := &work[len(work)-1]
				if lowlink[v] < lowlink[p.node] {
					lowlink[p.node] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp[w] = compCounter
					if w == v {
						break
					}
				}
				compCounter++
			}
		}
	}
	return comp
}
