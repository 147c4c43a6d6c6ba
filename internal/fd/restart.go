package fd

// ema is an exponential moving average, carried over near-verbatim from
// the teacher's (otherwise unused) sat/avg.go EMA.
type ema struct {
	decay float64
	value float64
	init  bool
}

func newEMA(decay float64) ema { return ema{decay: decay} }

func (e *ema) add(x float64) {
	if !e.init {
		e.init = true
		e.value = x
		return
	}
	e.value = e.decay*e.value + x*(1-e.decay)
}

func (e *ema) val() float64 { return e.value }

// RestartPolicy is the search driver's restart hook (spec §2/§4's "restart
// policy hook"; concrete restart schedules such as Luby are explicitly
// out of scope as named policies, referenced only through this interface).
// The default implementation below is a Glucose-style LBD-EMA trigger, not
// a Luby schedule, so it is provided as the shipped concrete satisfier
// rather than an abstract stand-in.
type RestartPolicy interface {
	// RecordConflict registers the LBD of a just-learned clause.
	RecordConflict(lbd int)
	// ShouldRestart reports whether the search driver should restart now.
	ShouldRestart() bool
	// OnRestart resets any per-run-of-conflicts state.
	OnRestart()
}

// glucoseRestart restarts whenever the fast (recent) LBD average exceeds
// the slow (long-run) LBD average scaled by a margin, the classic
// Glucose/MiniSat-style restart trigger built on the teacher's EMA.
type glucoseRestart struct {
	fast      ema
	slow      ema
	margin    float64
	minConfls int
	confls    int
}

// NewGlucoseRestart returns a restart policy comparing a fast (decay~0)
// and slow (decay~0.999) LBD moving average, restarting once fast exceeds
// slow*margin and at least minConfls conflicts have elapsed since the last
// restart.
func NewGlucoseRestart(margin float64, minConfls int) RestartPolicy {
	return &glucoseRestart{
		fast:      newEMA(0),
		slow:      newEMA(0.999),
		margin:    margin,
		minConfls: minConfls,
	}
}

func (r *glucoseRestart) RecordConflict(lbd int) {
	r.fast.add(float64(lbd))
	r.slow.add(float64(lbd))
	r.confls++
}

func (r *glucoseRestart) ShouldRestart() bool {
	if r.confls < r.minConfls {
		return false
	}
	return r.fast.val() > r.slow.val()*r.margin
}

func (r *glucoseRestart) OnRestart() {
	r.confls = 0
	r.fast = newEMA(0)
}
