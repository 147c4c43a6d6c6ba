package fd

// VariablePropagator is the uniform contract every watch-list
// specialisation exposes (spec §4.3). Four implementations are selected by
// domain width when a variable is created: stub (d==1), bool (d==2), word
// (2<d<=64) and generic (d>64).
type VariablePropagator interface {
	AddWatcher(sink WatchSink, kind WatchKind) WatcherHandle
	AddValueWatcher(sink WatchSink, watchMask ValueSet) WatcherHandle
	SetWatcherEnabled(handle WatcherHandle, sink WatchSink, enabled bool) bool
	RemoveWatcher(handle WatcherHandle, sink WatchSink)
	// Trigger notifies watchers interested in the prev->current transition.
	// Returns false only if a sink reports an immediate, non-recoverable
	// failure (rare; see WatchSink).
	Trigger(v VariableID, prev, current ValueSet, db *Database) bool
	NumWatches() int
}

func newPropagatorForWidth(width int) VariablePropagator {
	switch {
	case width == 1:
		return &stubPropagator{}
	case width == 2:
		return newBoolPropagator()
	case width <= wordBits:
		return newWordPropagator()
	default:
		return newGenericPropagator()
	}
}

// kindsThatBecameTrue reports, for each of the four kind segments, whether
// the transition prev->current newly satisfies that kind's predicate (spec
// §4.3 trigger semantics: "determined from prev vs current: which flags
// became true for the first time").
func kindsThatBecameTrue(prev, current ValueSet) [numWatchKinds]bool {
	var out [numWatchKinds]bool
	out[WatchAnyChange] = !prev.Equal(current)
	becameSolvedPrev := prev.IsSingleton()
	becameSolvedCur := current.IsSingleton()
	out[WatchSolved] = !becameSolvedPrev && becameSolvedCur
	prevLo, _ := prev.IndexOf(true)
	curLo, _ := current.IndexOf(true)
	out[WatchLowerBoundChanged] = curLo != prevLo
	prevHi, _ := prev.LastIndexOf(true)
	curHi, _ := current.LastIndexOf(true)
	out[WatchUpperBoundChanged] = curHi != prevHi
	return out
}
