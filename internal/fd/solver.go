package fd

// Status is the outcome of a solve step or a completed search.
type Status int

const (
	StatusUnknown Status = iota
	StatusSatisfiable
	StatusUnsatisfiable
)

// UnfoundedSetAnalyzer is the optional ASP hook run once propagation
// reaches a fixpoint (spec §4.4: "if unfoundedSetAnalyzer present then
// analyse; may enqueue nogoods & re-enter"). The internal/asp package
// implements this against *Database without fd importing asp, avoiding an
// import cycle.
type UnfoundedSetAnalyzer interface {
	Analyze(db *Database) (nogoods [][]Literal, ok bool)
}

// Solver is the top-level CDCL search driver, generalising the teacher's
// solver.go Solve/Search/Propagate/record/assume/cancelUntil loop from
// boolean SAT to finite-domain narrowing and the two-FIFO propagation
// queue of spec §4.4.
type Solver struct {
	db        *Database
	registry  *ConstraintRegistry
	analyzer  *ConflictAnalyzer
	order     *VarOrder
	restart   RestartPolicy
	unfounded UnfoundedSetAnalyzer

	Conflicts int64
	Restarts  int64
	Decisions int64

	unsat bool
}

// NewSolver assembles a driver over an already-populated database and
// registry (variables and original constraints are expected to have been
// added beforehand, mirroring the teacher's pattern of building the clause
// database before calling Solve).
func NewSolver(db *Database, registry *ConstraintRegistry, order *VarOrder, restart RestartPolicy) *Solver {
	return &Solver{
		db:       db,
		registry: registry,
		analyzer: NewConflictAnalyzer(db),
		order:    order,
		restart:  restart,
	}
}

// SetUnfoundedSetAnalyzer wires in the ASP layer's unfounded-set check.
func (s *Solver) SetUnfoundedSetAnalyzer(a UnfoundedSetAnalyzer) { s.unfounded = a }

func (s *Solver) Database() *Database          { return s.db }
func (s *Solver) Registry() *ConstraintRegistry { return s.registry }

// reinsertUndone offers every variable unwound by a backtrack back to the
// decision order, mirroring the teacher's cancelUntil/undoOne calling
// order.Undo(v) for each trail entry it pops. Without this, a variable
// popped off the decision heap (as a decision, or skipped over because it
// was already solved) would never be reconsidered after a later backtrack
// un-solves it.
func (s *Solver) reinsertUndone(undone []VariableID) {
	for _, v := range undone {
		s.order.Reinsert(v)
	}
}

// propagate runs the two-FIFO fixpoint loop of spec §4.4: drain the
// variable-modification queue (triggering propagators, which enqueue
// interested constraints), then drain the constraint-wakeup queue (running
// Constraint.Propagate, which may narrow further variables and re-feed the
// variable queue), until both are empty. Once genuinely quiescent, the
// unfounded-set analyzer (if any) gets a chance to inject nogoods and
// force another round. Returns the conflicting constraint and false on
// conflict.
func (s *Solver) propagate() (Constraint, bool) {
	queue := s.db.Queue()
	for {
		for !queue.variablesEmpty() {
			v := queue.popVariable()
			if !s.db.TriggerVariable(v) {
				return s.db.CauseOf(v), false // rare sink veto; see Database.TriggerVariable
			}
		}
		if queue.constraintsEmpty() {
			if s.unfounded == nil {
				return nil, true
			}
			nogoods, ok := s.unfounded.Analyze(s.db)
			if !ok {
				return nil, false
			}
			if len(nogoods) == 0 {
				return nil, true
			}
			for _, lits := range nogoods {
				// RegisterClause (not a raw NewClauseConstraint) because an
				// unfounded-set nogood is frequently a single literal (an
				// atom with no external support at all, spec §4.8's
				// "excludeUnfoundedSet"/"createNogoodForAtom") and a
				// two-watch ClauseConstraint cannot represent that.
				if _, initOK := RegisterClause(s.registry, s.db, lits, true); !initOK {
					return nil, false
				}
			}
			continue
		}
		cid := queue.popConstraint()
		if s.registry.IsDeleted(cid) {
			continue
		}
		c := s.registry.At(cid)
		if !c.Propagate(s.db) {
			return c, false
		}
	}
}

// Step performs one unit of search: a full propagation fixpoint followed
// by either conflict handling, a restart, or a single new decision (spec
// §2's step(): "propagate; on conflict: analyse -> backjump -> learn ->
// unit-propagate; else: maybe restart; maybe purge; else pick next
// decision").
func (s *Solver) Step() Status {
	if s.unsat {
		return StatusUnsatisfiable
	}

	conflict, ok := s.propagate()
	if !ok {
		s.Conflicts++
		if s.db.DecisionLevel() == 0 {
			s.unsat = true
			return StatusUnsatisfiable
		}
		learned, lbd, backjump := s.analyzer.Analyze(conflict)
		s.reinsertUndone(s.db.Backtrack(backjump))
		s.registry.Backtrack(s.db, backjump)

		var initOK bool
		if len(learned) >= 2 {
			cc := NewClauseConstraint(learned, true)
			cc.lbd = lbd
			_, initOK = s.registry.RegisterLearned(cc)
		} else {
			_, initOK = RegisterClause(s.registry, s.db, learned, true)
		}

		s.order.DecayScores()
		s.restart.RecordConflict(lbd)
		ReduceDB(s.registry, s.db)

		if !initOK {
			s.unsat = true
			return StatusUnsatisfiable
		}
		return StatusUnknown
	}

	if s.restart.ShouldRestart() {
		s.reinsertUndone(s.db.Backtrack(0))
		s.registry.Backtrack(s.db, 0)
		s.restart.OnRestart()
		s.Restarts++
		return StatusUnknown
	}

	lit, has := s.order.NextDecision()
	if !has {
		return StatusSatisfiable
	}
	s.Decisions++
	s.db.PushDecisionLevel()
	s.db.Narrow(lit.Var, lit.Mask, nil, nil)
	return StatusUnknown
}

// Solve runs Step to completion.
func (s *Solver) Solve() Status {
	for {
		if st := s.Step(); st != StatusUnknown {
			return st
		}
	}
}

// EnumerateNextSolution adds the negation of the current solution as a
// learned nogood, backjumps to the root, and resumes search (spec §2's
// enumerateNextSolution).
func (s *Solver) EnumerateNextSolution() Status {
	if s.unsat {
		return StatusUnsatisfiable
	}
	lits := make([]Literal, 0, s.db.NumVariables())
	for v := VariableID(0); v < VariableID(s.db.NumVariables()); v++ {
		lits = append(lits, NewLiteral(v, s.db.Current(v)).Opposite())
	}
	s.reinsertUndone(s.db.Backtrack(0))
	s.registry.Backtrack(s.db, 0)
	if _, ok := RegisterClause(s.registry, s.db, lits, true); !ok {
		s.unsat = true
		return StatusUnsatisfiable
	}
	return s.Solve()
}
