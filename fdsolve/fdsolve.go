// Package fdsolve is the public facade over the finite-domain CDCL core:
// it assembles internal/fd's database, registry, decision order and search
// driver, internal/reach's reachability constraint, internal/asp's
// unfounded-set analyzer and internal/graphpromo's promoter into a single
// Solver, mirroring the role the teacher's public sat package plays over
// its own internal/sat (spec §2's component table, §6's API surface).
package fdsolve

import (
	"fmt"

	"github.com/solverforge/fdcdcl/internal/fd"
	"github.com/solverforge/fdcdcl/internal/graphpromo"
	"github.com/solverforge/fdcdcl/internal/reach"
	"github.com/solverforge/fdcdcl/internal/topology"
)

// Status mirrors fd.Status at the public boundary, so callers never need to
// import internal/fd directly.
type Status = fd.Status

const (
	StatusUnknown       = fd.StatusUnknown
	StatusSatisfiable   = fd.StatusSatisfiable
	StatusUnsatisfiable = fd.StatusUnsatisfiable
)

// VariableID identifies a variable created by MakeVariable.
type VariableID = fd.VariableID

// Options configures a Solver, the same Options/DefaultOptions shape the
// teacher's sat.Options/sat.DefaultOptions uses, extended with the knobs
// the finite-domain core and its extensions need.
type Options struct {
	// ScoreDecay is the per-conflict decision-activity decay factor.
	ScoreDecay float64
	// PhaseSaving enables remembering each variable's last-solved value set
	// across restarts (spec §3).
	PhaseSaving bool
	// RestartMargin and RestartMinConflicts parameterise the Glucose-style
	// LBD-EMA restart policy (internal/fd/restart.go).
	RestartMargin       float64
	RestartMinConflicts int
	// GraphPromotion enables the graph-relation promotion engine (spec
	// §4.7). Disabled by default since it requires callers to attach
	// ConstraintGraphRelationInfo explicitly through RegisterGraphClause.
	GraphPromotion bool
	// StatsPrinter, if non-nil, is invoked with periodic search progress,
	// the same role the teacher's unconditional printSearchStats plays,
	// gated here so embedding programs can silence it.
	StatsPrinter *StatsPrinter
}

// DefaultOptions mirrors the teacher's sat.DefaultOptions.
var DefaultOptions = Options{
	ScoreDecay:          0.95,
	PhaseSaving:         true,
	RestartMargin:       1.5,
	RestartMinConflicts: 50,
	GraphPromotion:      false,
}

// Solver is the public entry point: create variables, register constraints,
// then drive the search with Solve/Step/EnumerateNextSolution.
type Solver struct {
	db       *fd.Database
	registry *fd.ConstraintRegistry
	order    *fd.VarOrder
	driver   *fd.Solver
	promoter *graphpromo.Promoter
	opts     Options

	decisionLog []fd.Literal
	logDecision bool
}

// NewSolver returns an empty solver configured by opts.
func NewSolver(opts Options) *Solver {
	db := fd.NewDatabase()
	registry := fd.NewConstraintRegistry(db)
	order := fd.NewVarOrder(db, opts.ScoreDecay, opts.PhaseSaving)
	restart := fd.NewGlucoseRestart(opts.RestartMargin, opts.RestartMinConflicts)
	driver := fd.NewSolver(db, registry, order, restart)

	s := &Solver{
		db:       db,
		registry: registry,
		order:    order,
		driver:   driver,
		opts:     opts,
	}
	if opts.GraphPromotion {
		s.promoter = graphpromo.NewPromoter(registry, db)
	}
	return s
}

// NewDefaultSolver returns a solver configured with DefaultOptions,
// mirroring the teacher's NewDefaultSolver.
func NewDefaultSolver() *Solver { return NewSolver(DefaultOptions) }

// MakeVariable allocates a fresh finite-domain variable with the given
// domain width, all values initially possible, and registers it with the
// decision order at the given initial activity score.
func (s *Solver) MakeVariable(width int, initScore float64) VariableID {
	v := s.db.NewVariable(fd.NewValueSet(width, true))
	s.order.AddVar(v, initScore)
	return v
}

// MakeBoolVariable allocates a width-2 boolean variable (index 1 is true,
// index 0 is false, the convention used throughout this module's tests).
func (s *Solver) MakeBoolVariable() VariableID {
	return s.MakeVariable(2, 1)
}

// True and False build literals over a boolean variable.
func (s *Solver) True(v VariableID) fd.Literal  { return fd.NewLiteral(v, fd.SingleValueSet(2, 1)) }
func (s *Solver) False(v VariableID) fd.Literal { return fd.NewLiteral(v, fd.SingleValueSet(2, 0)) }

// NumVariables returns the number of variables created so far.
func (s *Solver) NumVariables() int { return s.db.NumVariables() }

// AddClause registers an original disjunctive clause constraint (spec §3's
// "Clause constraint"). Returns an error when the clause is contradictory
// at the root: an empty clause, a unit clause whose narrowing immediately
// empties its variable's domain, or a longer clause whose initial
// propagation conflicts.
func (s *Solver) AddClause(literals []fd.Literal) error {
	if _, ok := fd.RegisterClause(s.registry, s.db, literals, false); !ok {
		return fmt.Errorf("clause is unsatisfiable at the root")
	}
	return nil
}

// AddNogood registers literals as a forbidden combination: shorthand for
// AddClause over the negation of every literal (spec §3's nogood
// constraint, the disjunctive-normal-form dual of a clause).
func (s *Solver) AddNogood(literals []fd.Literal) error {
	clause := make([]fd.Literal, len(literals))
	for i, l := range literals {
		clause[i] = l.Opposite()
	}
	return s.AddClause(clause)
}

// ReachabilityEdge describes one directed edge of a reachability
// constraint's static topology: its endpoints and the boolean variable
// that must be true for the edge to be open.
type ReachabilityEdge struct {
	From, To int
	EdgeVar  VariableID
}

// AddReachability registers a reachability constraint over numVertices
// vertices (spec §4.6): vertexVars[i] becomes true iff vertex i is
// reachable from some other vertex s whose potentialSources[s] variable is
// true (a source does not count as reaching itself); requiredReachable
// marks vertices that must end up reachable.
func (s *Solver) AddReachability(numVertices int, edges []ReachabilityEdge, vertexVars []VariableID, potentialSources map[int]VariableID, requiredReachable []bool) error {
	edgeList := make([][2]int, len(edges))
	edgeVar := make(map[[2]int]VariableID, len(edges))
	for i, e := range edges {
		pair := [2]int{e.From, e.To}
		edgeList[i] = pair
		edgeVar[pair] = e.EdgeVar
	}
	rc := reach.NewReachabilityConstraint(numVertices, edgeList, edgeVar, vertexVars, potentialSources, requiredReachable)
	if _, ok := s.registry.Register(rc); !ok {
		return fmt.Errorf("reachability constraint is unsatisfiable at the root")
	}
	return nil
}

// RegisterGraphClause registers a learned-style clause up front as
// graph-promotable (spec §4.7), for callers building a problem directly
// over a topology rather than relying on conflict-driven learning to
// discover the first instance.
func (s *Solver) RegisterGraphClause(literals []fd.Literal, graph topology.Topology, sourceVertex int, relations []topology.Relation[VariableID]) error {
	if s.promoter == nil {
		return fmt.Errorf("graph promotion is disabled (Options.GraphPromotion)")
	}
	cc := fd.NewClauseConstraint(literals, true)
	id, ok := s.registry.RegisterLearned(cc)
	if !ok {
		return fmt.Errorf("clause is unsatisfiable at the root")
	}
	s.promoter.Attach(id, &graphpromo.ConstraintGraphRelationInfo{
		Graph:        graph,
		SourceVertex: sourceVertex,
		Relations:    relations,
	}, literals)
	if _, ok := s.promoter.Promote(id); !ok {
		return fmt.Errorf("a graph-promoted instance is unsatisfiable at the root")
	}
	return nil
}

// SetUnfoundedSetAnalyzer wires in an ASP unfounded-set analyzer (spec
// §4.8), built separately against a rule database over this solver's
// variables.
func (s *Solver) SetUnfoundedSetAnalyzer(a fd.UnfoundedSetAnalyzer) {
	s.driver.SetUnfoundedSetAnalyzer(a)
}

// EnableDecisionLog starts recording every decision literal Step takes, for
// post-mortem inspection (spec §6's "decision log").
func (s *Solver) EnableDecisionLog() { s.logDecision = true }

// DecisionLog returns every decision literal taken so far, in order.
func (s *Solver) DecisionLog() []fd.Literal { return s.decisionLog }

// Step performs one unit of search (spec §2's step()).
func (s *Solver) Step() Status {
	decisionsBefore := s.driver.Decisions
	status := s.driver.Step()
	if s.logDecision && s.driver.Decisions > decisionsBefore {
		// The decision itself is the most recent trail push, made at the
		// decision level the driver just opened; find it by re-deriving the
		// literal the driver just asserted.
		s.recordLastDecision()
	}
	if s.opts.StatsPrinter != nil {
		s.opts.StatsPrinter.maybePrint(s.driver)
	}
	return status
}

func (s *Solver) recordLastDecision() {
	ts := s.db.Now() - 1
	if ts < 0 {
		return
	}
	v, prev, cause, _ := s.db.EntryAt(ts)
	if cause != nil {
		return // not a decision: decisions always narrow with a nil cause.
	}
	cur := s.db.Current(v)
	_ = prev
	s.decisionLog = append(s.decisionLog, fd.NewLiteral(v, cur))
}

// Solve runs Step to completion.
func (s *Solver) Solve() Status {
	for {
		if st := s.Step(); st != StatusUnknown {
			return st
		}
	}
}

// StartSolving is an alias for Solve kept for readers familiar with the
// teacher's Solve/Search split; finite-domain search has no separate
// "assume the unit clauses, then search" phase to name distinctly.
func (s *Solver) StartSolving() Status { return s.Solve() }

// EnumerateNextSolution requests the next distinct solution (spec §2).
func (s *Solver) EnumerateNextSolution() Status { return s.driver.EnumerateNextSolution() }

// GetSolution returns, once Solve reports StatusSatisfiable, the solved
// (singleton) value index for each variable.
func (s *Solver) GetSolution() []int {
	out := make([]int, s.db.NumVariables())
	for v := 0; v < len(out); v++ {
		out[v] = s.GetSolvedValue(VariableID(v))
	}
	return out
}

// GetSolvedValue returns v's current singleton value index, or -1 if v is
// not (yet) solved.
func (s *Solver) GetSolvedValue(v VariableID) int {
	cur := s.db.Current(v)
	if !cur.IsSingleton() {
		return -1
	}
	idx, _ := cur.IndexOf(true)
	return idx
}

// GetPotentialValues returns every value index still possible for v.
func (s *Solver) GetPotentialValues(v VariableID) []int {
	cur := s.db.Current(v)
	var out []int
	for i := 0; i < cur.Width(); i++ {
		mask := fd.SingleValueSet(cur.Width(), i)
		if cur.AnyPossible(mask) {
			out = append(out, i)
		}
	}
	return out
}

// Conflicts, Restarts and Decisions expose the search driver's counters
// (spec §6 "search statistics").
func (s *Solver) Conflicts() int64 { return s.driver.Conflicts }
func (s *Solver) Restarts() int64  { return s.driver.Restarts }
func (s *Solver) Decisions() int64 { return s.driver.Decisions }
