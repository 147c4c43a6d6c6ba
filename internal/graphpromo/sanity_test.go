package graphpromo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverforge/fdcdcl/internal/fd"
	"github.com/solverforge/fdcdcl/internal/topology"
)

// sanityCheckGraphClauses mirrors the original solver's debug-only
// sanityCheckGraphClauses pass: every clause attached to the promoter but
// not yet promoted must still be able to promote successfully. Kept as a
// test helper only, per spec §9(c).
func sanityCheckGraphClauses(t *testing.T, p *Promoter) {
	t.Helper()
	for id := range p.infos {
		if p.IsPromotedToGraph(id) {
			continue
		}
		_, ok := p.Promote(id)
		require.True(t, ok, "attached clause %d must be promotable", id)
	}
}

// TestSanityCheckGraphClausesAfterFullGridPromotion exercises the sanity
// pass over the same full-grid scenario TestPromoteAcrossFullGrid covers.
func TestSanityCheckGraphClausesAfterFullGridPromotion(t *testing.T) {
	top := buildGrid(t)
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	layerA := make([]fd.VariableID, top.NumVertices())
	layerB := make([]fd.VariableID, top.NumVertices())
	for i := range layerA {
		layerA[i] = db.NewVariable(boolDomain())
		layerB[i] = db.NewVariable(boolDomain())
	}

	relA := topology.VertexToData(topology.VertexData[fd.VariableID]{Topo: top, Values: layerA})
	relB := topology.VertexToData(topology.VertexData[fd.VariableID]{Topo: top, Values: layerB})

	sv, ok := top.IndexOf("0,0")
	require.True(t, ok)

	learned := fd.NewClauseConstraint([]fd.Literal{
		fd.NewLiteral(layerA[sv], trueMask()),
		fd.NewLiteral(layerB[sv], trueMask()),
	}, true)
	id, ok := reg.RegisterLearned(learned)
	require.True(t, ok)

	p := NewPromoter(reg, db)
	p.Attach(id, &ConstraintGraphRelationInfo{
		Graph:        top,
		SourceVertex: sv,
		Relations:    []topology.Relation[fd.VariableID]{relA, relB},
	}, learned.Literals())

	sanityCheckGraphClauses(t, p)
	require.True(t, p.IsPromotedToGraph(id))
}
