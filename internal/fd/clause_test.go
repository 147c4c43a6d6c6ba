package fd

import "testing"

// boolTrue/boolFalse build the two singleton masks over a width-2 boolean
// domain, matching the convention used throughout this package: index 0 is
// "false", index 1 is "true".
func boolTrue(v VariableID) Literal  { return NewLiteral(v, SingleValueSet(2, 1)) }
func boolFalse(v VariableID) Literal { return NewLiteral(v, SingleValueSet(2, 0)) }

func newBoolSolver(nvars int) (*Database, *ConstraintRegistry, *Solver, []VariableID) {
	db := NewDatabase()
	reg := NewConstraintRegistry(db)
	order := NewVarOrder(db, 0.95, true)
	vars := make([]VariableID, nvars)
	for i := 0; i < nvars; i++ {
		vars[i] = db.NewVariable(NewValueSet(2, true))
		order.AddVar(vars[i], 1)
	}
	s := NewSolver(db, reg, order, NewGlucoseRestart(1.5, 50))
	return db, reg, s, vars
}

func TestClausePropagationUnit(t *testing.T) {
	db, reg, s, vars := newBoolSolver(2)
	x, y := vars[0], vars[1]

	// (x ∨ y), (¬x ∨ y): both force y=true once x is decided false or true.
	reg.Register(NewClauseConstraint([]Literal{boolTrue(x), boolTrue(y)}, false))
	reg.Register(NewClauseConstraint([]Literal{boolFalse(x), boolTrue(y)}, false))

	status := s.Solve()
	if status != StatusSatisfiable {
		t.Fatalf("want satisfiable, got %v", status)
	}
	if !db.Current(y).Equal(SingleValueSet(2, 1)) {
		t.Fatalf("y should have been forced true, got %v", db.Current(y))
	}
}

func TestClauseConflictUnsatisfiable(t *testing.T) {
	_, reg, s, vars := newBoolSolver(1)
	x := vars[0]

	// Unit clauses x and ¬x contradict at the root.
	if _, ok := RegisterClause(reg, s.Database(), []Literal{boolTrue(x)}, false); !ok {
		t.Fatalf("registering the first unit clause should not itself fail")
	}
	_, ok := RegisterClause(reg, s.Database(), []Literal{boolFalse(x)}, false)
	if ok {
		status := s.Solve()
		if status != StatusUnsatisfiable {
			t.Fatalf("want unsatisfiable, got %v", status)
		}
	}
	// Either the second registration's own Initialize detected the root
	// conflict directly, or Solve() discovers it on the first propagate;
	// both are valid outcomes of the same contradiction.
}

func TestEnumerateNextSolution(t *testing.T) {
	_, reg, s, vars := newBoolSolver(2)
	x, y := vars[0], vars[1]
	// No constraints beyond "at least one of x,y is true", so there are
	// three solutions: (T,T), (T,F), (F,T).
	reg.Register(NewClauseConstraint([]Literal{boolTrue(x), boolTrue(y)}, false))

	seen := map[[2]bool]bool{}
	status := s.Solve()
	for status == StatusSatisfiable {
		xv := s.Database().Current(x).Equal(SingleValueSet(2, 1))
		yv := s.Database().Current(y).Equal(SingleValueSet(2, 1))
		seen[[2]bool{xv, yv}] = true
		status = s.EnumerateNextSolution()
	}
	if status != StatusUnsatisfiable {
		t.Fatalf("enumeration should exhaust at unsatisfiable, got %v", status)
	}
	if len(seen) != 3 {
		t.Fatalf("want 3 distinct solutions, got %d: %v", len(seen), seen)
	}
}
