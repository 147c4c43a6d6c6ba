// Package graphpromo implements graph-relation promotion (spec §4.7): once
// a learned clause is tagged with a ConstraintGraphRelationInfo, the same
// clause is re-derived at every other vertex of the topology it was learned
// over, so the solver gets the benefit of a conflict discovered at one
// vertex everywhere the same structural argument applies.
//
// Grounded on
// original_source/vertexy/src/private/constraints/ConstraintGraphRelationInfo.cpp:
// the per-vertex literal re-evaluation and the unordered-multiset duplicate
// check are carried over; the original's promotion queue (paused and
// resumed across backtrack when a mid-promotion vertex conflicts) is kept
// here too, as the per-clause resume index that Promote consults.
package graphpromo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solverforge/fdcdcl/internal/fd"
	"github.com/solverforge/fdcdcl/internal/topology"
)

// ConstraintGraphRelationInfo records, for a clause learned with source
// vertex SourceVertex of Graph, a per-literal Relation mapping any other
// vertex to the variable playing the same structural role (spec §4.7).
// Kept outside fd.ClauseConstraint rather than as one of its fields: fd
// stays a closed CDCL core with no notion of graphs, and graph-specific
// metadata lives here, addressed by fd.ConstraintID, the same layering
// internal/asp uses for its own nogoods.
type ConstraintGraphRelationInfo struct {
	Graph        topology.Topology
	SourceVertex int
	Relations    []topology.Relation[fd.VariableID]
}

// key is the duplicate-suppression hash of spec §4.7: "equivalence hash of
// a clause uses the (unordered) multiset of literals."
func key(lits []fd.Literal) string {
	parts := make([]string, len(lits))
	for i, l := range lits {
		parts[i] = fmt.Sprintf("%d:%s", l.Var, l.Mask.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Promoter tracks every learned clause eligible for promotion and the
// literal-multiset hash of every clause (learned or promoted) registered so
// far, for the duplicate check of spec §4.7 step 3.
type Promoter struct {
	registry *fd.ConstraintRegistry
	db       *fd.Database

	infos map[fd.ConstraintID]*ConstraintGraphRelationInfo
	seen  map[string]fd.ConstraintID

	promotedToGraph   map[fd.ConstraintID]bool
	promotedFromGraph map[fd.ConstraintID]bool

	// resume holds, per source clause, the next vertex index to try after a
	// prior Promote call stopped at an initialization conflict (spec §4.7
	// step 3: "remember the current vertex to resume after backtrack").
	resume map[fd.ConstraintID]int
}

// NewPromoter returns a promoter bound to reg/db.
func NewPromoter(reg *fd.ConstraintRegistry, db *fd.Database) *Promoter {
	return &Promoter{
		registry:          reg,
		db:                db,
		infos:             map[fd.ConstraintID]*ConstraintGraphRelationInfo{},
		seen:              map[string]fd.ConstraintID{},
		promotedToGraph:   map[fd.ConstraintID]bool{},
		promotedFromGraph: map[fd.ConstraintID]bool{},
		resume:            map[fd.ConstraintID]int{},
	}
}

// Observe registers id as a literal multiset already present in the
// learned-clause set, so that a later promotion attempt producing the same
// multiset is recognised as a duplicate rather than re-registered. Callers
// should call this for every clause (learned or original) that could
// plausibly recur as a promotion target.
func (p *Promoter) Observe(id fd.ConstraintID, literals []fd.Literal) {
	p.seen[key(literals)] = id
}

// Attach marks a freshly learned clause as graph-promotable, per spec §4.7's
// promotability condition: info must be non-nil and every relation must be
// defined somewhere other than SourceVertex, checked lazily by Promote
// itself (there is no cost in pre-checking separately).
func (p *Promoter) Attach(id fd.ConstraintID, info *ConstraintGraphRelationInfo, literals []fd.Literal) {
	p.infos[id] = info
	p.Observe(id, literals)
}

// IsPromotedToGraph reports whether id has successfully promoted to at
// least one other vertex.
func (p *Promoter) IsPromotedToGraph(id fd.ConstraintID) bool { return p.promotedToGraph[id] }

// IsPromotedFromGraph reports whether a promotion candidate was discarded
// because its literal multiset matched id's, i.e. whether id is already
// covered by an instance that graph promotion would have produced.
func (p *Promoter) IsPromotedFromGraph(id fd.ConstraintID) bool { return p.promotedFromGraph[id] }

// Promote runs the promotion operation of spec §4.7 for the clause
// registered under id. Returns the number of new clauses registered and
// false iff a candidate's Initialize hit an immediate conflict, in which
// case the next call to Promote(id) resumes from the following vertex
// (the caller is expected to have already backjumped and reconciled the
// conflict before retrying).
func (p *Promoter) Promote(id fd.ConstraintID) (int, bool) {
	info, ok := p.infos[id]
	if !ok || info == nil {
		return 0, true
	}
	cc, ok := p.registry.At(id).(*fd.ClauseConstraint)
	if !ok {
		return 0, true
	}
	literals := cc.Literals()
	if len(info.Relations) != len(literals) {
		return 0, true
	}

	start := p.resume[id]
	count := 0
	for v := start; v < info.Graph.NumVertices(); v++ {
		if v == info.SourceVertex {
			continue
		}
		candidate, ok := instantiate(p.db, info, literals, v)
		if !ok {
			continue
		}
		k := key(candidate)
		if existing, dup := p.seen[k]; dup {
			p.promotedFromGraph[existing] = true
			continue
		}
		newClause := fd.NewClauseConstraint(candidate, true)
		newID, initOK := p.registry.RegisterLearned(newClause)
		if !initOK {
			p.resume[id] = v + 1
			if count > 0 {
				p.promotedToGraph[id] = true
			}
			return count, false
		}
		p.seen[k] = newID
		count++
	}
	delete(p.resume, id)
	if count > 0 {
		p.promotedToGraph[id] = true
	}
	return count, true
}

// instantiate evaluates every literal of the source clause's relation at v,
// per spec §4.7 step 1-2: a failed evaluation or an initial-value-set
// mismatch aborts this vertex; otherwise the mask is copied unchanged from
// the original literal and only the variable is replaced.
func instantiate(db *fd.Database, info *ConstraintGraphRelationInfo, literals []fd.Literal, v int) ([]fd.Literal, bool) {
	out := make([]fd.Literal, len(literals))
	for i, orig := range literals {
		targetVar, ok := info.Relations[i].Eval(v)
		if !ok {
			return nil, false
		}
		if !db.Initial(targetVar).Equal(db.Initial(orig.Var)) {
			return nil, false
		}
		out[i] = fd.NewLiteral(targetVar, orig.Mask)
	}
	return out, true
}
