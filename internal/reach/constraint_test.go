package reach

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverforge/fdcdcl/internal/fd"
)

func openMask() fd.ValueSet  { return fd.NewValueSet(2, true) }
func boolVar(db *fd.Database) fd.VariableID {
	return db.NewVariable(openMask())
}

func TestReachabilityPropagatesDefinitelyReachable(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	edge01 := boolVar(db)
	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	source0 := boolVar(db)

	require.True(t, db.Narrow(edge01, trueMask, nil, nil))
	require.True(t, db.Narrow(source0, trueMask, nil, nil))

	rc := NewReachabilityConstraint(
		2,
		[][2]int{{0, 1}},
		map[[2]int]fd.VariableID{{0, 1}: edge01},
		[]fd.VariableID{vertex0, vertex1},
		map[int]fd.VariableID{0: source0},
		[]bool{false, false},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.True(t, isTrue(db.Current(vertex1)))
}

func TestReachabilityPropagatesDefinitelyUnreachable(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	source0 := boolVar(db)
	require.True(t, db.Narrow(source0, trueMask, nil, nil))

	rc := NewReachabilityConstraint(
		2,
		nil,
		map[[2]int]fd.VariableID{},
		[]fd.VariableID{vertex0, vertex1},
		map[int]fd.VariableID{0: source0},
		[]bool{false, false},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.True(t, isFalse(db.Current(vertex1)), "with no edges at all, vertex 1 can never be reached")
}

func TestReachabilityForcesUniqueRemainingSource(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	edgeA := boolVar(db) // 0 -> 2, left open
	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	sourceA := boolVar(db)
	sourceB := boolVar(db)

	// Vertex 2 is required reachable, so its domain starts pinned to true;
	// sourceB is ruled out from the start, leaving sourceA as the sole
	// remaining candidate able to justify that requirement.
	vertex2 := db.NewVariable(trueMask)
	require.True(t, db.Narrow(sourceB, falseMask, nil, nil))

	rc := NewReachabilityConstraint(
		3,
		[][2]int{{0, 2}, {1, 2}},
		map[[2]int]fd.VariableID{{0, 2}: edgeA, {1, 2}: boolVar(db)},
		[]fd.VariableID{vertex0, vertex1, vertex2},
		map[int]fd.VariableID{0: sourceA, 1: sourceB},
		[]bool{false, false, true},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.True(t, isTrue(db.Current(sourceA)), "sourceA is the only candidate left that could reach the required vertex")
}

// TestReachabilityDynamicEdgeUpdatesOracle leaves the edge unresolved at
// Register time and only decides it open afterward, at decision level > 0 —
// unlike TestReachabilityPropagatesDefinitelyReachable above, which forces
// its edge variable before registering so Initialize's one-time oracle scan
// already sees the final topology. This exercises the live Propagate path: the Ramalingam-Reps
// oracles must learn about the edge the same way minGraph/maxGraph do, not
// just at construction time.
func TestReachabilityDynamicEdgeUpdatesOracle(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	edge01 := boolVar(db)
	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	source0 := boolVar(db)
	require.True(t, db.Narrow(source0, trueMask, nil, nil))

	rc := NewReachabilityConstraint(
		2,
		[][2]int{{0, 1}},
		map[[2]int]fd.VariableID{{0, 1}: edge01},
		[]fd.VariableID{vertex0, vertex1},
		map[int]fd.VariableID{0: source0},
		[]bool{false, false},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.False(t, isTrue(db.Current(vertex1)), "edge01 is still unresolved, so vertex1 cannot yet be definite")

	db.PushDecisionLevel()
	require.True(t, db.Narrow(edge01, trueMask, nil, nil))
	require.True(t, rc.Propagate(db))
	require.True(t, isTrue(db.Current(vertex1)), "edge01 opening mid-search must reach the oracle, not just minGraph")
}

func TestReachabilityBacktrackRestoresRuledOutSource(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	edgeA := boolVar(db) // 0 -> 2
	edgeB := boolVar(db) // 1 -> 2
	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	vertex2 := boolVar(db)
	sourceA := boolVar(db)
	sourceB := boolVar(db)

	require.True(t, db.Narrow(edgeA, trueMask, nil, nil))
	require.True(t, db.Narrow(edgeB, trueMask, nil, nil))
	require.True(t, db.Narrow(sourceA, trueMask, nil, nil))
	require.True(t, db.Narrow(sourceB, trueMask, nil, nil))

	rc := NewReachabilityConstraint(
		3,
		[][2]int{{0, 2}, {1, 2}},
		map[[2]int]fd.VariableID{{0, 2}: edgeA, {1, 2}: edgeB},
		[]fd.VariableID{vertex0, vertex1, vertex2},
		map[int]fd.VariableID{0: sourceA, 1: sourceB},
		[]bool{false, false, false},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.ElementsMatch(t, []int{0, 1}, rc.potentialSources)

	db.PushDecisionLevel()
	require.True(t, db.Narrow(sourceB, falseMask, nil, nil))
	require.True(t, rc.Propagate(db))
	require.ElementsMatch(t, []int{0}, rc.potentialSources, "sourceB is ruled out once narrowed false")

	db.Backtrack(0)
	reg.Backtrack(db, 0)
	require.ElementsMatch(t, []int{0, 1}, rc.potentialSources, "backtracking past the level must restore the ruled-out source")
}

// TestReachabilityConflictsOnRequiredVertexCutOff mirrors spec §8 scenario
// 3: a diamond with two disjoint paths from the source to a
// required-reachable vertex, both forced closed at the same decision level.
// Propagate must report the conflict itself (it is the failing constraint at
// solver.go's conflict check) and ExplainConflict must return the two
// blocking-edge literals plus the vertex's pinned-reachable fact, not nil —
// a nil return here sends ConflictAnalyzer.Analyze into an unbounded
// trail walk that panics with an out-of-range index.
func TestReachabilityConflictsOnRequiredVertexCutOff(t *testing.T) {
	db := fd.NewDatabase()
	reg := fd.NewConstraintRegistry(db)

	edgeSA := boolVar(db) // 0 (source) -> 1
	edgeAT := boolVar(db) // 1 -> 3 (target)
	edgeSB := boolVar(db) // 0 (source) -> 2
	edgeBT := boolVar(db) // 2 -> 3 (target)
	vertex0 := boolVar(db)
	vertex1 := boolVar(db)
	vertex2 := boolVar(db)
	source0 := boolVar(db)

	require.True(t, db.Narrow(source0, trueMask, nil, nil))
	vertex3 := db.NewVariable(trueMask) // required reachable, pinned from the start

	rc := NewReachabilityConstraint(
		4,
		[][2]int{{0, 1}, {1, 3}, {0, 2}, {2, 3}},
		map[[2]int]fd.VariableID{{0, 1}: edgeSA, {1, 3}: edgeAT, {0, 2}: edgeSB, {2, 3}: edgeBT},
		[]fd.VariableID{vertex0, vertex1, vertex2, vertex3},
		map[int]fd.VariableID{0: source0},
		[]bool{false, false, false, true},
	)
	_, ok := reg.Register(rc)
	require.True(t, ok)
	require.True(t, isTrue(db.Current(vertex3)), "still pinned: both paths are open so far")

	db.PushDecisionLevel()
	require.True(t, db.Narrow(edgeSA, falseMask, nil, nil))
	require.True(t, db.Narrow(edgeSB, falseMask, nil, nil))
	require.False(t, rc.Propagate(db), "cutting both paths at once must conflict, not silently narrow")

	conflict := rc.ExplainConflict(db)
	require.NotNil(t, conflict, "a nil ExplainConflict panics ConflictAnalyzer.Analyze's trail walk")
	require.ElementsMatch(t, []fd.Literal{
		{Var: edgeSA, Mask: falseMask},
		{Var: edgeSB, Mask: falseMask},
		{Var: vertex3, Mask: trueMask},
	}, conflict)

	analyzer := fd.NewConflictAnalyzer(db)
	require.NotPanics(t, func() {
		learned, _, _ := analyzer.Analyze(rc)
		require.NotEmpty(t, learned)
	})
}
