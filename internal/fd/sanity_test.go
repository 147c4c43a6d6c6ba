package fd

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// clauseKey hashes a clause's literal set the same way
// internal/graphpromo's duplicate check does, for spec §9(c)'s
// findDuplicateClauses debug pass (kept here as a test helper only, per
// the sanity-check hooks being diagnostic-only in the original solver).
func clauseKey(lits []Literal) string {
	parts := make([]string, len(lits))
	for i, l := range lits {
		parts[i] = l.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// countDuplicateLearnedClauses mirrors the original solver's
// findDuplicateClauses: how many learned clauses share an identical
// literal set with an earlier one.
func countDuplicateLearnedClauses(reg *ConstraintRegistry) int {
	seen := map[string]bool{}
	dup := 0
	for _, id := range reg.LearnedIDs() {
		cc, ok := reg.At(id).(*ClauseConstraint)
		if !ok {
			continue
		}
		k := clauseKey(cc.Literals())
		if seen[k] {
			dup++
		} else {
			seen[k] = true
		}
	}
	return dup
}

// TestNoDuplicateLearnedClausesAfterSolve is spec §9(c)'s
// findDuplicateClauses sanity check: a pigeonhole instance forces enough
// conflict-driven learning to exercise clause registration, and no two
// learned clauses should ever end up with an identical literal set.
func TestNoDuplicateLearnedClausesAfterSolve(t *testing.T) {
	db := NewDatabase()
	reg := NewConstraintRegistry(db)
	order := NewVarOrder(db, 0.95, true)

	pigeons := make([]VariableID, 4)
	for i := range pigeons {
		pigeons[i] = db.NewVariable(NewValueSet(3, true))
		order.AddVar(pigeons[i], 1)
	}
	for i := 0; i < len(pigeons); i++ {
		for j := i + 1; j < len(pigeons); j++ {
			for v := 0; v < 3; v++ {
				mask := SingleValueSet(3, v)
				RegisterClause(reg, db, []Literal{
					NewLiteral(pigeons[i], mask).Opposite(),
					NewLiteral(pigeons[j], mask).Opposite(),
				}, false)
			}
		}
	}

	s := NewSolver(db, reg, order, NewGlucoseRestart(1.5, 50))
	require.Equal(t, StatusUnsatisfiable, s.Solve())
	require.Equal(t, 0, countDuplicateLearnedClauses(reg))
}
