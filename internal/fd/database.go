package fd

import "sort"

// Database is the VariableDatabase of spec §3/§4.2: it owns every
// variable's domain, current value set, initial value set and last-solved
// value set, applies narrowings atomically, notifies propagators and
// exposes historical views at past timestamps via the trail.
type Database struct {
	domain     []ValueSet // the external, never-mutated domain each index maps to is owned by the caller; here width is all we track
	current    []ValueSet
	initial    []ValueSet
	lastSolved []ValueSet

	propagators []VariablePropagator
	level       []int // decision level at which the variable last narrowed

	trail          *trail
	queue          *PropagationQueue
	trailLim       []Timestamp // trail position at each decision boundary (spec §4.2/teacher's trailLim)
	lastConflicted VariableID
}

// NewDatabase returns an empty VariableDatabase.
func NewDatabase() *Database {
	return &Database{
		trail: newTrail(),
		queue: newPropagationQueue(),
	}
}

// NewVariable allocates a fresh variable with the given initial possible
// value set, returning its id. The propagator specialisation is chosen by
// domain width (spec §4.3).
func (db *Database) NewVariable(initial ValueSet) VariableID {
	v := VariableID(len(db.current))
	db.current = append(db.current, initial.Clone())
	db.initial = append(db.initial, initial.Clone())
	db.lastSolved = append(db.lastSolved, initial.Clone())
	db.propagators = append(db.propagators, newPropagatorForWidth(initial.Width()))
	db.level = append(db.level, 0)
	db.trail.addVariable()
	db.queue.addVariable()
	return v
}

// NumVariables returns the number of variables allocated so far.
func (db *Database) NumVariables() int { return len(db.current) }

func (db *Database) Current(v VariableID) ValueSet { return db.current[v] }
func (db *Database) Initial(v VariableID) ValueSet { return db.initial[v] }

// DecisionLevel returns the current search depth (0 at the root).
func (db *Database) DecisionLevel() int { return len(db.trailLim) }

// LevelOf returns the decision level at which v last narrowed.
func (db *Database) LevelOf(v VariableID) int { return db.level[v] }

// Now returns the current trail write position.
func (db *Database) Now() Timestamp { return db.trail.now() }

// PushDecisionLevel marks a new decision boundary at the current trail
// position (mirrors the teacher's newDecisionLevel/trailLim append).
func (db *Database) PushDecisionLevel() {
	db.trailLim = append(db.trailLim, db.trail.now())
}

// Narrow intersects v's current value set with mask and records the change
// on the trail (spec §4.2 narrow). cause is nil for decisions; explainer
// may be nil, in which case conflict analysis falls back to
// Constraint.Explain. Returns false when the narrowing emptied v's domain,
// or when a watcher notified of the change reports failure.
func (db *Database) Narrow(v VariableID, mask ValueSet, cause Constraint, explainer Explainer) bool {
	prev := db.current[v]
	intersected := prev.Intersect(mask)
	if intersected.Equal(prev) {
		return true
	}
	db.trail.push(v, prev, cause, explainer)
	db.current[v] = intersected
	db.level[v] = db.DecisionLevel()
	if intersected.IsSingleton() {
		db.lastSolved[v] = intersected.Clone()
	}
	if intersected.IsZero() {
		db.lastConflicted = v
		return false
	}
	db.queue.EnqueueVariable(v)
	ok := db.propagators[v].Trigger(v, prev, intersected, db)
	return ok
}

// LastConflictingVariable returns the variable whose domain most recently
// emptied, for conflict analysis to seed its resolution front.
func (db *Database) LastConflictingVariable() VariableID { return db.lastConflicted }

// TriggerVariable re-derives v's watcher notification from its latest
// trail entry, used by the search driver's variable-queue drain after it
// pops v (spec §4.4). Returns false only in the rare case of a watcher sink
// reporting an immediate, non-recoverable failure outside the normal
// narrow-then-conflict path; db.CauseOf(v) is the caller's best-effort
// conflicting constraint in that case.
func (db *Database) TriggerVariable(v VariableID) bool {
	ts := db.trail.lastModification[v]
	if ts < 0 {
		return true
	}
	e := db.trail.at(ts)
	return db.propagators[v].Trigger(v, e.prevVal, db.current[v], db)
}

// Backtrack truncates the trail back to decision level `level`, restoring
// every popped variable's current value set (spec §4.2 backtrack).
// Backtracking cannot fail. It returns every variable touched by an undone
// entry (duplicates possible), so the search driver can reinsert them into
// the decision order: the teacher's cancelUntil/undoOne calls
// order.Undo(v) for exactly this reason (a variable popped off the decision
// heap, whether as a decision or skipped because it was already solved, is
// never offered again until explicitly reinserted).
func (db *Database) Backtrack(level int) []VariableID {
	if level >= db.DecisionLevel() {
		return nil
	}
	newTs := db.trailLim[level]
	db.trailLim = db.trailLim[:level]
	popped := db.trail.truncate(newTs)
	undone := make([]VariableID, len(popped))
	for i, e := range popped {
		db.current[e.variable] = e.prevVal
		undone[i] = e.variable
	}
	for _, v := range undone {
		db.level[v] = 0
		if ts := db.trail.lastModification[v]; ts >= 0 {
			db.level[v] = sort.Search(len(db.trailLim), func(i int) bool { return db.trailLim[i] > ts })
		}
	}
	db.queue.Clear()
	return undone
}

// ValueBefore returns the value v held strictly before timestamp t.
func (db *Database) ValueBefore(v VariableID, t Timestamp) ValueSet {
	return db.trail.valueBefore(v, t, db.current[v])
}

// ValueAfter returns the value v held strictly after timestamp t.
func (db *Database) ValueAfter(v VariableID, t Timestamp) ValueSet {
	return db.trail.valueAfter(v, t, db.current[v])
}

// EntryAt exposes the raw trail entry at t, used by conflict analysis to
// walk the resolution front.
func (db *Database) EntryAt(t Timestamp) (VariableID, ValueSet, Constraint, Explainer) {
	e := db.trail.at(t)
	return e.variable, e.prevVal, e.cause, e.explainer
}

// AddWatcher registers a kind-based watcher on v.
func (db *Database) AddWatcher(v VariableID, sink WatchSink, kind WatchKind) WatcherHandle {
	return db.propagators[v].AddWatcher(sink, kind)
}

// AddValueWatcher registers a watcher that fires when v's current value set
// loses its last intersection with mask (spec §4.3).
func (db *Database) AddValueWatcher(v VariableID, sink WatchSink, mask ValueSet) WatcherHandle {
	return db.propagators[v].AddValueWatcher(sink, mask)
}

func (db *Database) SetWatcherEnabled(v VariableID, handle WatcherHandle, sink WatchSink, enabled bool) bool {
	return db.propagators[v].SetWatcherEnabled(handle, sink, enabled)
}

func (db *Database) RemoveWatcher(v VariableID, handle WatcherHandle, sink WatchSink) {
	db.propagators[v].RemoveWatcher(handle, sink)
}

// Queue exposes the propagation queue for the search driver's fixpoint loop.
func (db *Database) Queue() *PropagationQueue { return db.queue }

// RegisterConstraintSlot grows the constraint-wakeup membership bitset to
// cover a freshly-registered constraint id.
func (db *Database) RegisterConstraintSlot() {
	db.queue.addConstraintSlot()
}

// LastSolved returns the last value set v held while solved, used for
// phase-saving decisions (spec §3 "last-solved value set").
func (db *Database) LastSolved(v VariableID) ValueSet { return db.lastSolved[v] }

// CauseOf returns the constraint currently recorded as the reason for v's
// latest narrowing, or nil if v was never narrowed or was narrowed by a
// decision. Used by clauses to implement Locked (spec §4.5).
func (db *Database) CauseOf(v VariableID) Constraint {
	ts := db.trail.lastModification[v]
	if ts < 0 {
		return nil
	}
	return db.trail.entries[ts].cause
}
