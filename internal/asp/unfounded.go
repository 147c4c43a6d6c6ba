package asp

import "github.com/solverforge/fdcdcl/internal/fd"

// UnfoundedSetAnalyzer implements fd.UnfoundedSetAnalyzer (spec §4.8): once
// a propagation fixpoint is reached, it checks every strongly connected
// component touched by a recently-falsified body for atoms left with no
// remaining external support, and forces each onto false.
//
// Grounded on original_source/vertexy/src/private/rules/UnfoundedSetAnalyzer.cpp:
// the C++ version accumulates a "fringe" of candidate atoms reached via
// q-vector BFS from falsified bodies and repeatedly asks
// "isAtomFullyFalsified"/"findStillValidSupport"; here the same
// greatest-fixpoint check is expressed over Go slices and maps rather than
// the original's hand-rolled TFastLookupSet, and each unfounded atom is
// excluded with its own unit nogood (the C++ createNogoodForAtom path)
// rather than building a single combined loop-formula clause, since
// RegisterClause's unit-clause fast path already gives each exclusion the
// same narrowing semantics with no extra machinery.
type UnfoundedSetAnalyzer struct {
	rdb *RuleDatabase

	varToBodies map[fd.VariableID][]BodyID

	dirtyBodies []BodyID
	dirtyMember []bool
}

// NewUnfoundedSetAnalyzer builds an analyzer over rdb, finalizing it (computing
// SCCs) if that has not already happened. The returned analyzer must still be
// wired into db via Watch, and into the solver via Solver.SetUnfoundedSetAnalyzer.
func NewUnfoundedSetAnalyzer(rdb *RuleDatabase) *UnfoundedSetAnalyzer {
	rdb.Finalize()
	a := &UnfoundedSetAnalyzer{
		rdb:         rdb,
		varToBodies: map[fd.VariableID][]BodyID{},
		dirtyMember: make([]bool, len(rdb.bodies)),
	}
	for i, b := range rdb.bodies {
		if b.scc < 0 {
			continue
		}
		id := BodyID(i)
		a.varToBodies[b.lit.Var] = append(a.varToBodies[b.lit.Var], id)
		// Every cyclic body is examined at least once, so an atom that starts
		// out unfounded (e.g. zero supports, yet forced true by an external
		// clause at level 0) is still caught on the very first Analyze call.
		a.dirtyBodies = append(a.dirtyBodies, id)
		a.dirtyMember[id] = true
	}
	return a
}

// Watch registers a value watcher on every cyclic body's literal so this
// analyzer is notified whenever a body might have just gone false.
func (a *UnfoundedSetAnalyzer) Watch(db *fd.Database) {
	for i, b := range a.rdb.bodies {
		if b.scc < 0 {
			continue
		}
		db.AddValueWatcher(b.lit.Var, a, b.lit.Mask)
		_ = i
	}
}

// OnVariableNarrowed marks every cyclic body backed by v dirty when v's
// narrowing might have just falsified it (spec §4.8's "source/support queue
// refresh"). Always returns true: this analyzer never itself reports a
// conflict from a watcher callback, only from Analyze.
func (a *UnfoundedSetAnalyzer) OnVariableNarrowed(db *fd.Database, v fd.VariableID, prev fd.ValueSet) bool {
	for _, bID := range a.varToBodies[v] {
		b := a.rdb.bodies[bID]
		if !literalFalse(db, b.lit) {
			continue
		}
		if !a.dirtyMember[bID] {
			a.dirtyMember[bID] = true
			a.dirtyBodies = append(a.dirtyBodies, bID)
		}
	}
	return true
}

// Analyze implements fd.UnfoundedSetAnalyzer.
func (a *UnfoundedSetAnalyzer) Analyze(db *fd.Database) ([][]fd.Literal, bool) {
	if len(a.dirtyBodies) == 0 {
		return nil, true
	}

	touched := map[int]bool{}
	for _, bID := range a.dirtyBodies {
		touched[a.rdb.bodies[bID].scc] = true
		a.dirtyMember[bID] = false
	}
	a.dirtyBodies = a.dirtyBodies[:0]

	var nogoods [][]fd.Literal
	for scc := range touched {
		ns := a.analyzeSCC(db, scc)
		nogoods = append(nogoods, ns...)
	}
	return nogoods, true
}

// analyzeSCC computes the greatest unfounded set within one strongly
// connected component and returns one unit nogood per unfounded atom.
func (a *UnfoundedSetAnalyzer) analyzeSCC(db *fd.Database, scc int) [][]fd.Literal {
	var candidates []AtomID
	for id, at := range a.rdb.atoms {
		if at.scc == scc && !literalFalse(db, at.equivalence) {
			candidates = append(candidates, AtomID(id))
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	inSet := make(map[AtomID]bool, len(candidates))
	for _, c := range candidates {
		inSet[c] = true
	}

	for changed := true; changed; {
		changed = false
		for _, at := range candidates {
			if !inSet[at] {
				continue
			}
			if a.hasExternalSupport(db, at, inSet) {
				delete(inSet, at)
				changed = true
			}
		}
	}
	if len(inSet) == 0 {
		return nil
	}

	nogoods := make([][]fd.Literal, 0, len(inSet))
	for at := range inSet {
		nogoods = append(nogoods, []fd.Literal{a.rdb.atoms[at].equivalence.Opposite()})
	}
	return nogoods
}

// hasExternalSupport reports whether atom at still has a support body that
// is not proven false and does not itself depend (through a positive body
// literal in the same component) on another member of the candidate set —
// i.e. a body that could justify at's truth without relying on anything
// else currently assumed unfounded.
func (a *UnfoundedSetAnalyzer) hasExternalSupport(db *fd.Database, at AtomID, inSet map[AtomID]bool) bool {
	atScc := a.rdb.atoms[at].scc
	for _, bID := range a.rdb.atoms[at].supports {
		b := a.rdb.bodies[bID]
		if literalFalse(db, b.lit) {
			continue
		}
		if b.scc != atScc {
			return true // support from outside the cycle entirely.
		}
		dependsOnCandidate := false
		for _, l := range b.literals {
			if l.Positive && a.rdb.atoms[l.Atom].scc == atScc && inSet[l.Atom] {
				dependsOnCandidate = true
				break
			}
		}
		if !dependsOnCandidate {
			return true
		}
	}
	return false
}

func literalSatisfied(db *fd.Database, lit fd.Literal) bool {
	return db.Current(lit.Var).IsSubsetOf(lit.Mask)
}

func literalFalse(db *fd.Database, lit fd.Literal) bool {
	return !db.Current(lit.Var).AnyPossible(lit.Mask)
}
