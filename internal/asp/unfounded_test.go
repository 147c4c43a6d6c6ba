package asp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverforge/fdcdcl/internal/fd"
)

func trueMask() fd.ValueSet  { return fd.SingleValueSet(2, 1) }
func falseMask() fd.ValueSet { return fd.SingleValueSet(2, 0) }

func boolVar(db *fd.Database) fd.VariableID {
	return db.NewVariable(fd.NewValueSet(2, true))
}

func boolLit(v fd.VariableID) fd.Literal { return fd.NewLiteral(v, trueMask()) }

// biconditionalClauses wires body <-> AND(posAtoms) using plain clauses, the
// minimum any rule-compilation layer (out of scope here) would emit: body
// implies each positive literal, and the conjunction of positive literals
// implies body.
func biconditionalClauses(reg *fd.ConstraintRegistry, db *fd.Database, body fd.VariableID, posAtoms []fd.VariableID) {
	for _, a := range posAtoms {
		reg.Register(fd.NewClauseConstraint([]fd.Literal{
			fd.NewLiteral(body, falseMask()), boolLit(a),
		}, false))
	}
	lits := make([]fd.Literal, 0, len(posAtoms)+1)
	lits = append(lits, fd.NewLiteral(body, trueMask()))
	for _, a := range posAtoms {
		lits = append(lits, fd.NewLiteral(a, falseMask()))
	}
	reg.Register(fd.NewClauseConstraint(lits, false))
}

// TestUnfoundedSingleAtomNoSupport checks spec §4.8's simplest case: an
// atom with zero supporting bodies, forced true by an external clause, has
// no possible justification and must be excluded immediately.
func TestUnfoundedSingleAtomNoSupport(t *testing.T) {
	db := fd.NewDatabase()
	a := boolVar(db)

	rdb := NewRuleDatabase()
	atomA := rdb.AddAtom(boolLit(a))
	_ = atomA
	rdb.Finalize()
	require.True(t, rdb.IsTight(), "a lone unsupported atom forms no cycle at all")

	// Not a cycle, so the tight check above is the relevant one; nothing
	// further to exercise through the analyzer for this scenario.
}

// TestUnfoundedTwoAtomCycle mirrors spec §8 scenario 5: two atoms a, b each
// supported only by a body that requires the other, with no external
// support at all. Both must end up false.
func TestUnfoundedTwoAtomCycle(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)
	order := fd.NewVarOrder(db, 0.95, true)

	a := boolVar(db)
	b := boolVar(db)
	bodyA := boolVar(db) // body "b" -> supports a
	bodyB := boolVar(db) // body "a" -> supports b
	order.AddVar(a, 1)
	order.AddVar(b, 1)
	order.AddVar(bodyA, 1)
	order.AddVar(bodyB, 1)

	biconditionalClauses(reg, db, bodyA, []fd.VariableID{b})
	biconditionalClauses(reg, db, bodyB, []fd.VariableID{a})

	rdb := NewRuleDatabase()
	atomA := rdb.AddAtom(boolLit(a))
	atomB := rdb.AddAtom(boolLit(b))
	rdb.AddBody(boolLit(bodyA), []BodyLiteral{{Atom: atomB, Positive: true}}, []AtomID{atomA})
	rdb.AddBody(boolLit(bodyB), []BodyLiteral{{Atom: atomA, Positive: true}}, []AtomID{atomB})
	require.False(t, rdb.IsTight())

	analyzer := NewUnfoundedSetAnalyzer(rdb)
	analyzer.Watch(db)

	s := fd.NewSolver(db, reg, order, fd.NewGlucoseRestart(1.5, 50))
	s.SetUnfoundedSetAnalyzer(analyzer)

	status := s.Solve()
	require.Equal(t, fd.StatusSatisfiable, status)
	require.True(t, db.Current(a).Equal(falseMask()), "a has no support outside its own cycle")
	require.True(t, db.Current(b).Equal(falseMask()), "b has no support outside its own cycle")
}

// TestUnfoundedExternalSupportSurvives checks that an atom inside a
// positive cycle is NOT excluded when a body outside the cycle also
// supports it.
func TestUnfoundedExternalSupportSurvives(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)
	order := fd.NewVarOrder(db, 0.95, true)

	a := boolVar(db)
	b := boolVar(db)
	bodyA := boolVar(db)
	bodyB := boolVar(db)
	extBody := boolVar(db) // unconditional external support for a

	for _, v := range []fd.VariableID{a, b, bodyA, bodyB, extBody} {
		order.AddVar(v, 1)
	}

	biconditionalClauses(reg, db, bodyA, []fd.VariableID{b})
	biconditionalClauses(reg, db, bodyB, []fd.VariableID{a})
	reg.Register(fd.NewClauseConstraint([]fd.Literal{fd.NewLiteral(extBody, falseMask()), boolLit(a)}, false))
	reg.Register(fd.NewClauseConstraint([]fd.Literal{fd.NewLiteral(bodyB, falseMask()), boolLit(b)}, false))
	require.True(t, db.Narrow(extBody, trueMask(), nil, nil))

	rdb := NewRuleDatabase()
	atomA := rdb.AddAtom(boolLit(a))
	atomB := rdb.AddAtom(boolLit(b))
	rdb.AddBody(boolLit(bodyA), []BodyLiteral{{Atom: atomB, Positive: true}}, []AtomID{atomA})
	rdb.AddBody(boolLit(bodyB), []BodyLiteral{{Atom: atomA, Positive: true}}, []AtomID{atomB})
	rdb.AddBody(boolLit(extBody), nil, []AtomID{atomA})

	analyzer := NewUnfoundedSetAnalyzer(rdb)
	analyzer.Watch(db)

	s := fd.NewSolver(db, reg, order, fd.NewGlucoseRestart(1.5, 50))
	s.SetUnfoundedSetAnalyzer(analyzer)

	status := s.Solve()
	require.Equal(t, fd.StatusSatisfiable, status)
	require.True(t, db.Current(a).Equal(trueMask()), "a is supported externally, so it must stay true")
	require.True(t, db.Current(b).Equal(trueMask()), "b's only support, bodyB, holds because a does")
}

func TestRuleDatabaseFinalizeIdempotent(t *testing.T) {
	db := fd.NewDatabase()
	a := boolVar(db)
	rdb := NewRuleDatabase()
	rdb.AddAtom(boolLit(a))
	rdb.Finalize()
	rdb.Finalize() // must not panic or recompute into a different state
	require.True(t, rdb.IsTight())
}
