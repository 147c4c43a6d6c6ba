package fd

// stubPropagator is the d==1 specialisation (spec §4.3): a domain of width
// one never changes after creation, so there is nothing to watch.
type stubPropagator struct{}

func (*stubPropagator) AddWatcher(WatchSink, WatchKind) WatcherHandle      { return 0 }
func (*stubPropagator) AddValueWatcher(WatchSink, ValueSet) WatcherHandle  { return 0 }
func (*stubPropagator) SetWatcherEnabled(WatcherHandle, WatchSink, bool) bool { return false }
func (*stubPropagator) RemoveWatcher(WatcherHandle, WatchSink)            {}
func (*stubPropagator) Trigger(VariableID, ValueSet, ValueSet, *Database) bool { return true }
func (*stubPropagator) NumWatches() int                                   { return 0 }
