package fd

// ConstraintID identifies a constraint within a ConstraintRegistry. Dense,
// starting at 0; learned clauses get ids past every original constraint's.
type ConstraintID int

// Constraint is the uniform contract every propagator-driven rule
// implements (spec §3/§4.4): clauses, the reachability constraint, the
// unfounded-set nogood synthesiser and any future built-in all satisfy it.
// A Constraint is also expected to implement WatchSink so it can register
// itself as the sink of its own variable watchers and be woken through the
// constraint-wakeup queue.
type Constraint interface {
	WatchSink

	// ConstrainingVariables lists every variable this constraint watches or
	// reasons about.
	ConstrainingVariables() []VariableID

	// Initialize registers watchers against db and performs any necessary
	// initial propagation. Returns false on an immediate contradiction.
	Initialize(db *Database) bool

	// Propagate is invoked from the constraint-wakeup queue (spec §4.4).
	// Returns false on conflict.
	Propagate(db *Database) bool

	// Explain returns the literals whose conjunction caused assertedVar to
	// narrow, used by conflict analysis when no explainer closure was
	// stored for the corresponding trail entry.
	Explain(db *Database, assertedVar VariableID) []Literal

	// ExplainConflict returns the literals whose conjunction is
	// simultaneously falsified, used to seed conflict analysis when this
	// constraint itself is the one reporting the conflict (spec §4.5 step
	// 1: "the failing clause's literals inverted against the current
	// store").
	ExplainConflict(db *Database) []Literal
}

// Backtracker is an optional capability (spec's IBacktrackingSolverConstraint)
// for constraints that must unwind auxiliary state on backjump beyond what
// Database.Backtrack already restores, e.g. ReachabilityConstraint's
// per-level source journal.
type Backtracker interface {
	Backtrack(db *Database, level int)
}

// registryEntry records one constraint plus the registry bookkeeping spec
// §3 calls for: parent/child flags distinguishing user-declared
// (original) constraints from clauses learned during search.
type registryEntry struct {
	constraint Constraint
	learned    bool
	deleted    bool
}

// ConstraintRegistry stores every constraint, original and learned, with
// the parent/child classification spec §3 requires for purge/ReduceDB
// bookkeeping and a deleted flag per entry.
type ConstraintRegistry struct {
	db      *Database
	entries []registryEntry
}

// NewConstraintRegistry returns a registry bound to db; registering a
// constraint also grows db's constraint-wakeup membership bitset.
func NewConstraintRegistry(db *Database) *ConstraintRegistry {
	return &ConstraintRegistry{db: db}
}

// Register adds an original (user-declared) constraint and initialises it.
// Returns its id and false iff initialisation hit an immediate conflict.
func (r *ConstraintRegistry) Register(c Constraint) (ConstraintID, bool) {
	return r.add(c, false)
}

// RegisterLearned adds a clause produced by conflict analysis.
func (r *ConstraintRegistry) RegisterLearned(c Constraint) (ConstraintID, bool) {
	return r.add(c, true)
}

// IDSettable is implemented by constraints (e.g. ClauseConstraint,
// reach.ReachabilityConstraint) that need their own id to self-enqueue onto
// the constraint-wakeup queue. Exported, rather than kept package-private,
// because constraint kinds living outside internal/fd (reachability) need
// it too, and Go's unexported-method interface
// satisfaction is scoped per-package.
type IDSettable interface {
	SetConstraintID(ConstraintID)
}

func (r *ConstraintRegistry) add(c Constraint, learned bool) (ConstraintID, bool) {
	id := ConstraintID(len(r.entries))
	r.entries = append(r.entries, registryEntry{constraint: c, learned: learned})
	r.db.RegisterConstraintSlot()
	if s, ok := c.(IDSettable); ok {
		s.SetConstraintID(id)
	}
	ok := c.Initialize(r.db)
	return id, ok
}

func (r *ConstraintRegistry) At(id ConstraintID) Constraint { return r.entries[id].constraint }

func (r *ConstraintRegistry) IsLearned(id ConstraintID) bool { return r.entries[id].learned }

func (r *ConstraintRegistry) IsDeleted(id ConstraintID) bool { return r.entries[id].deleted }

// Delete marks a learned constraint as purged; original constraints may
// never be deleted.
func (r *ConstraintRegistry) Delete(id ConstraintID) {
	if r.entries[id].learned {
		r.entries[id].deleted = true
	}
}

// Len returns the number of constraints ever registered, including deleted
// ones (ids are never reused).
func (r *ConstraintRegistry) Len() int { return len(r.entries) }

// Backtrack notifies every non-deleted constraint implementing Backtracker
// that the search has unwound to level, after Database.Backtrack has
// already restored variable domains. Called from the search driver on
// every backjump and restart (spec §4.6 "rewind all three graphs to the
// new timestamp" is one instance of this general hook).
func (r *ConstraintRegistry) Backtrack(db *Database, level int) {
	for _, e := range r.entries {
		if e.deleted {
			continue
		}
		if bt, ok := e.constraint.(Backtracker); ok {
			bt.Backtrack(db, level)
		}
	}
}

// LearnedIDs returns the ids of every non-deleted learned constraint, for
// ReduceDB sorting.
func (r *ConstraintRegistry) LearnedIDs() []ConstraintID {
	var out []ConstraintID
	for i, e := range r.entries {
		if e.learned && !e.deleted {
			out = append(out, ConstraintID(i))
		}
	}
	return out
}

// OriginalCount returns the number of original (non-learned) constraints,
// used by the LEARNED_SCALAR purge threshold (spec §4.5).
func (r *ConstraintRegistry) OriginalCount() int {
	n := 0
	for _, e := range r.entries {
		if !e.learned {
			n++
		}
	}
	return n
}
