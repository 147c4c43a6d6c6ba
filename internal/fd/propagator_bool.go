package fd

// boolPropagator is the d==2 specialisation (spec §4.3): "exactly three
// segments: became-false, became-true, any-change". A width-2 domain's only
// possible narrowing is to a singleton, so became-false/became-true are
// precisely the two possible outcomes and any-change covers both.
type boolPropagator struct {
	becameFalse []kindEntry // domain narrowed to {index 0}
	becameTrue  []kindEntry // domain narrowed to {index 1}
	anyChange   []kindEntry
	valueSeg    []valueEntry
	triggering  bool
}

func newBoolPropagator() *boolPropagator { return &boolPropagator{} }

func (p *boolPropagator) segmentFor(kind WatchKind) *[]kindEntry {
	switch kind {
	case WatchUpperBoundChanged:
		return &p.becameFalse
	case WatchLowerBoundChanged:
		return &p.becameTrue
	default: // WatchAnyChange, WatchSolved
		return &p.anyChange
	}
}

func (p *boolPropagator) AddWatcher(sink WatchSink, kind WatchKind) WatcherHandle {
	seg := p.segmentFor(kind)
	*seg = append(*seg, kindEntry{sink: sink, enabled: true})
	return makeHandle(int(kind), len(*seg)-1)
}

func (p *boolPropagator) AddValueWatcher(sink WatchSink, watchMask ValueSet) WatcherHandle {
	p.valueSeg = append(p.valueSeg, valueEntry{sink: sink, mask: watchMask, enabled: true})
	return makeHandle(int(numWatchKinds), len(p.valueSeg)-1)
}

func (p *boolPropagator) SetWatcherEnabled(handle WatcherHandle, sink WatchSink, enabled bool) bool {
	seg, idx := handle.segment(), handle.id()
	if seg == int(numWatchKinds) {
		e := &p.valueSeg[idx]
		if e.sink != sink || e.deleted || e.enabled == enabled {
			return false
		}
		e.enabled = enabled
		return true
	}
	e := &(*p.segmentFor(WatchKind(seg)))[idx]
	if e.sink != sink || e.deleted || e.enabled == enabled {
		return false
	}
	e.enabled = enabled
	return true
}

func (p *boolPropagator) RemoveWatcher(handle WatcherHandle, sink WatchSink) {
	seg, idx := handle.segment(), handle.id()
	if seg == int(numWatchKinds) {
		if p.valueSeg[idx].sink == sink {
			p.valueSeg[idx].deleted = true
			p.valueSeg[idx].sink = nil
		}
		return
	}
	e := &(*p.segmentFor(WatchKind(seg)))[idx]
	if e.sink == sink {
		e.deleted = true
		e.sink = nil
	}
}

func (p *boolPropagator) NumWatches() int {
	return len(p.becameFalse) + len(p.becameTrue) + len(p.anyChange) + len(p.valueSeg)
}

func (p *boolPropagator) Trigger(v VariableID, prev, current ValueSet, db *Database) bool {
	if prev.Equal(current) {
		return true
	}
	p.triggering = true
	ok := true

	for i := len(p.valueSeg) - 1; i >= 0; i-- {
		e := &p.valueSeg[i]
		if e.deleted || !e.enabled {
			continue
		}
		if prev.AnyPossible(e.mask) && !current.AnyPossible(e.mask) {
			if !e.sink.OnVariableNarrowed(db, v, prev) {
				ok = false
			}
		}
	}

	fireSeg := func(seg []kindEntry) {
		for i := len(seg) - 1; i >= 0; i-- {
			e := &seg[i]
			if e.deleted || !e.enabled {
				continue
			}
			if !e.sink.OnVariableNarrowed(db, v, prev) {
				ok = false
			}
		}
	}
	if current.bit(0) && !current.bit(1) {
		fireSeg(p.becameFalse)
	}
	if current.bit(1) && !current.bit(0) {
		fireSeg(p.becameTrue)
	}
	fireSeg(p.anyChange)

	p.triggering = false
	return ok
}
