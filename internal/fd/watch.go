package fd

// WatchKind selects which transition a non-value watcher is interested in,
// per spec §4.3 ("any-change | solved | lower-bound | upper-bound").
type WatchKind int

const (
	WatchAnyChange WatchKind = iota
	WatchSolved
	WatchLowerBoundChanged
	WatchUpperBoundChanged
	numWatchKinds
)

// WatchSink is the narrow capability every watcher target implements (spec
// DESIGN NOTES: "Watcher sinks are also polymorphic over a narrow
// capability set... best expressed as an interface"). Built-in constraints
// implement it by enqueuing themselves onto the constraint-wakeup queue;
// returning false aborts propagation immediately as a conflict (used
// sparingly — most sinks always return true and let Constraint.Propagate
// do the real work, per spec §4.4).
type WatchSink interface {
	OnVariableNarrowed(db *Database, v VariableID, prev ValueSet) bool
}

// WatcherHandle is an opaque token encoding the watch segment and an
// in-segment id, per spec §4.3 ("opaque 32-bit tokens encoding the segment
// plus an id").
type WatcherHandle uint32

const handleSegmentShift = 28

func makeHandle(segment int, id int) WatcherHandle {
	return WatcherHandle(uint32(segment)<<handleSegmentShift | uint32(id))
}

func (h WatcherHandle) segment() int { return int(h >> handleSegmentShift) }
func (h WatcherHandle) id() int      { return int(h & ((1 << handleSegmentShift) - 1)) }
