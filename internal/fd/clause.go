package fd

import "sort"

// Purge/classification constants (spec §4.5), mirroring the teacher's
// clause-DB housekeeping defaults.
const (
	permanentLBDThreshold = 5
	learnedScalar         = 2.0
	purgePercent          = 0.5
	claActivityRescaleAt  = 1e10
	claActivityRescaleBy  = 1e-10
	claActivityDecay      = 1.0 / 0.95
)

// ClauseConstraint is a disjunction of literals generalising the teacher's
// internal/sat/clauses.go Clause: a watched literal is pending or was the
// last of the two to become unsatisfied (spec §4.5), instead of the
// boolean "pending-true or last to become false". The prevPos
// cache-friendly replacement-search cursor is folded in directly from
// sat/clauses.go rather than kept as a second, unused implementation.
type ClauseConstraint struct {
	id       ConstraintID
	literals []Literal
	watchH0  WatcherHandle
	watchH1  WatcherHandle
	prevPos  int

	learned   bool
	lbd       int
	activity  float64
	protected bool

	assertedVar VariableID // -1 if this clause never asserted a narrowing
}

// NewClauseConstraint builds a clause over the given literals. Callers are
// expected to have already simplified away duplicates, tautologies and
// literals unsatisfiable against variables' initial sets (mirroring the
// teacher's NewClause pre-pass, performed by the caller here since it
// needs access to decision levels for learned-clause watch selection).
func NewClauseConstraint(literals []Literal, learned bool) *ClauseConstraint {
	return &ClauseConstraint{
		literals:    allocLiterals(literals),
		prevPos:     2,
		learned:     learned,
		assertedVar: -1,
	}
}

// Release returns c's literal backing slice to the clause pool (a no-op
// under the default, non-pooled build). Only safe to call once c has been
// purged from its registry and is no longer reachable from any trail
// explainer closure.
func (c *ClauseConstraint) Release() {
	freeLiterals(c.literals)
	c.literals = nil
}

func (c *ClauseConstraint) SetConstraintID(id ConstraintID) { c.id = id }

// RegisterClause adds a clause of arbitrary size, handling the two
// degenerate cases a general two-watch ClauseConstraint cannot represent
// (spec §4.5's simplification pre-pass handles these as special cases too,
// mirroring the teacher's NewClause switch on size): an empty clause is an
// immediate contradiction, and a unit clause is applied directly as a
// narrowing rather than built into a two-watch object. Returns false on an
// immediate conflict.
func RegisterClause(reg *ConstraintRegistry, db *Database, literals []Literal, learned bool) (ConstraintID, bool) {
	switch len(literals) {
	case 0:
		return -1, false
	case 1:
		ok := db.Narrow(literals[0].Var, literals[0].Mask, nil, nil)
		return -1, ok
	default:
		if learned {
			return reg.RegisterLearned(NewClauseConstraint(literals, true))
		}
		return reg.Register(NewClauseConstraint(literals, false))
	}
}

func (c *ClauseConstraint) ConstrainingVariables() []VariableID {
	out := make([]VariableID, len(c.literals))
	for i, l := range c.literals {
		out[i] = l.Var
	}
	return out
}

// pickLearnedWatches moves the literal asserted at the highest decision
// level into slot 1, mirroring the teacher's "watch the most recently
// falsified literal" rule for freshly learned clauses so the clause is
// unit immediately after registration.
func (c *ClauseConstraint) pickLearnedWatches(db *Database) {
	maxLevel, wl := -1, 1
	for i := 1; i < len(c.literals); i++ {
		if lvl := db.LevelOf(c.literals[i].Var); lvl > maxLevel {
			maxLevel = lvl
			wl = i
		}
	}
	c.literals[1], c.literals[wl] = c.literals[wl], c.literals[1]
}

func (c *ClauseConstraint) Initialize(db *Database) bool {
	if c.learned {
		c.pickLearnedWatches(db)
	}
	c.watchH0 = db.AddValueWatcher(c.literals[0].Var, c, c.literals[0].Mask)
	c.watchH1 = db.AddValueWatcher(c.literals[1].Var, c, c.literals[1].Mask)
	return c.Propagate(db)
}

// OnVariableNarrowed fires when a watched literal's mask just became
// unsatisfied; the real work happens in Propagate, run from the
// constraint-wakeup queue (spec §4.4).
func (c *ClauseConstraint) OnVariableNarrowed(db *Database, v VariableID, prev ValueSet) bool {
	db.Queue().EnqueueConstraint(c.id)
	return true
}

// rotate looks for a replacement literal for the watched slot idx among
// the non-watched tail, continuing from prevPos for cache locality (spec
// §4.5, folded from sat/clauses.go's prevPos optimisation). Returns false
// if no pending/satisfied replacement exists.
func (c *ClauseConstraint) rotate(db *Database, idx int) bool {
	lits := c.literals
	start := c.prevPos
	if start < 2 || start >= len(lits) {
		start = 2
	}
	scan := func(lo, hi int) bool {
		for i := lo; i < hi; i++ {
			if statusOf(db.Current(lits[i].Var), lits[i].Mask) != statusUnsatisfied {
				c.prevPos = i
				old := lits[idx]
				lits[idx], lits[i] = lits[i], lits[idx]
				if idx == 0 {
					db.RemoveWatcher(old.Var, c.watchH0, c)
					c.watchH0 = db.AddValueWatcher(lits[0].Var, c, lits[0].Mask)
				} else {
					db.RemoveWatcher(old.Var, c.watchH1, c)
					c.watchH1 = db.AddValueWatcher(lits[1].Var, c, lits[1].Mask)
				}
				return true
			}
		}
		return false
	}
	return scan(start, len(lits)) || scan(2, start)
}

// Propagate re-derives, for each watched slot, whether it is still a valid
// watch; rotates to a replacement when possible, asserts the other watch
// when the clause becomes unit, and reports a conflict when both watches
// are unsatisfied (spec §4.5).
func (c *ClauseConstraint) Propagate(db *Database) bool {
	for idx := 0; idx < 2; idx++ {
		lits := c.literals
		if statusOf(db.Current(lits[idx].Var), lits[idx].Mask) != statusUnsatisfied {
			continue
		}
		other := 1 - idx
		otherStatus := statusOf(db.Current(lits[other].Var), lits[other].Mask)
		if otherStatus == statusSatisfied {
			continue
		}
		if c.rotate(db, idx) {
			continue
		}
		if otherStatus == statusUnsatisfied {
			return false
		}
		assertedIdx := other
		assertedLit := c.literals[assertedIdx]
		c.assertedVar = assertedLit.Var
		explainer := c.explainPropagation(assertedIdx)
		if !db.Narrow(assertedLit.Var, assertedLit.Mask, c, explainer) {
			return false
		}
	}
	return true
}

func (c *ClauseConstraint) explainPropagation(assertedIdx int) Explainer {
	lits := c.literals
	return func() []Literal {
		out := make([]Literal, 0, len(lits)-1)
		for i, l := range lits {
			if i == assertedIdx {
				continue
			}
			out = append(out, l.Opposite())
		}
		return out
	}
}

// Explain is the fallback used when a trail entry caused by this clause
// has no stored explainer closure.
func (c *ClauseConstraint) Explain(db *Database, assertedVar VariableID) []Literal {
	for i, l := range c.literals {
		if l.Var == assertedVar {
			return c.explainPropagation(i)()
		}
	}
	out := make([]Literal, len(c.literals))
	for i, l := range c.literals {
		out[i] = l.Opposite()
	}
	return out
}

// ExplainConflict returns every literal of this clause negated: valid only
// when the clause is currently fully unsatisfied.
func (c *ClauseConstraint) ExplainConflict(db *Database) []Literal {
	out := make([]Literal, len(c.literals))
	for i, l := range c.literals {
		out[i] = l.Opposite()
	}
	return out
}

// Locked reports whether this clause is still serving as the reason for
// its last-asserted variable's current value; locked clauses survive purge
// (spec §4.5).
func (c *ClauseConstraint) Locked(db *Database) bool {
	if c.assertedVar < 0 {
		return false
	}
	return db.CauseOf(c.assertedVar) == Constraint(c)
}

// LBD returns the clause's literal block distance, computed at learn time.
func (c *ClauseConstraint) LBD() int { return c.lbd }

// IsPermanent reports whether this learned clause falls at or under the
// permanent LBD threshold and is therefore exempt from purge entirely.
func (c *ClauseConstraint) IsPermanent() bool {
	return !c.learned || c.lbd <= permanentLBDThreshold
}

func (c *ClauseConstraint) Literals() []Literal { return c.literals }

// computeLBD counts the number of distinct decision levels among lits'
// variables (spec §4.5/§3 "literal block distance"), excluding level 0
// (permanently assigned facts contribute no glue).
func computeLBD(db *Database, lits []Literal) int {
	seen := map[int]bool{}
	for _, l := range lits {
		if lvl := db.LevelOf(l.Var); lvl > 0 {
			seen[lvl] = true
		}
	}
	n := len(seen)
	if n == 0 {
		return 1
	}
	return n
}

// bumpActivity increases c's activity by increment, rescaling every
// learned clause's activity if this pushes c over the rescale threshold
// (spec §4.5: "on any activity exceeding 1e10 all activities are rescaled
// by 1e-10").
func bumpActivity(reg *ConstraintRegistry, c *ClauseConstraint, increment float64) {
	c.activity += increment
	if c.activity <= claActivityRescaleAt {
		return
	}
	for _, id := range reg.LearnedIDs() {
		if lc, ok := reg.At(id).(*ClauseConstraint); ok {
			lc.activity *= claActivityRescaleBy
		}
	}
}

// ReduceDB purges the bottom purgePercent of non-permanent, non-locked
// learned clauses once their count exceeds learnedScalar times the number
// of original constraints (spec §4.5), sorting binary clauses first and
// the remainder by descending activity so the least useful clauses sort
// to the tail.
func ReduceDB(reg *ConstraintRegistry, db *Database) {
	var temp []ConstraintID
	for _, id := range reg.LearnedIDs() {
		if c, ok := reg.At(id).(*ClauseConstraint); ok && !c.IsPermanent() {
			temp = append(temp, id)
		}
	}
	threshold := int(learnedScalar * float64(reg.OriginalCount()))
	if len(temp) <= threshold {
		return
	}
	sort.Slice(temp, func(i, j int) bool {
		ci := reg.At(temp[i]).(*ClauseConstraint)
		cj := reg.At(temp[j]).(*ClauseConstraint)
		bi := len(ci.literals) == 2
		bj := len(cj.literals) == 2
		if bi != bj {
			return bi
		}
		return ci.activity > cj.activity
	})
	purgeCount := int(float64(len(temp)) * purgePercent)
	start := len(temp) - purgeCount
	if start < 0 {
		start = 0
	}
	for i := start; i < len(temp); i++ {
		c := reg.At(temp[i]).(*ClauseConstraint)
		if c.Locked(db) {
			continue
		}
		reg.Delete(temp[i])
	}
}
