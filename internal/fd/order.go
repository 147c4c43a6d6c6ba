package fd

import (
	"github.com/rhartert/yagh"
)

// VarOrder maintains the order in which undecided variables are offered to
// the search driver, generalising the teacher's internal/sat/ordering.go
// VarOrder: the yagh min-heap keyed by negative activity is kept verbatim,
// boolean LBool phase-saving becomes a per-variable remembered ValueSet
// (spec §3 "last-solved value set"), and NextDecision returns a finite-
// domain Literal instead of a polarity-only boolean literal.
type VarOrder struct {
	order *yagh.IntMap[float64]

	scores     []float64
	scoreInc   float64
	scoreDecay float64

	phaseSaving bool
	db          *Database
}

// NewVarOrder returns an order bound to db. decay is the per-conflict
// score-decay factor (teacher default 0.95); phaseSaving enables
// remembering each variable's last-solved value.
func NewVarOrder(db *Database, decay float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		scoreDecay:  decay,
		phaseSaving: phaseSaving,
		db:          db,
	}
}

// AddVar registers a freshly created variable with the given initial
// activity score.
func (vo *VarOrder) AddVar(v VariableID, initScore float64) {
	vo.scores = append(vo.scores, initScore)
	vo.order.GrowBy(1)
	vo.order.Put(int(v), -initScore)
}

// Reinsert adds v back to the candidate set, e.g. when a backtrack undoes
// its assignment.
func (vo *VarOrder) Reinsert(v VariableID) {
	vo.order.Put(int(v), -vo.scores[v])
}

// DecayScores slightly decreases every variable's effective score by
// bumping the shared increment, matching the teacher's DecayScores.
func (vo *VarOrder) DecayScores() {
	vo.scoreInc /= vo.scoreDecay
	if vo.scoreInc > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

// BumpScore increases v's activity, rescaling every score if it grows past
// the teacher's 1e100 threshold.
func (vo *VarOrder) BumpScore(v VariableID) {
	newScore := vo.scores[v] + vo.scoreInc
	vo.scores[v] = newScore
	if vo.order.Contains(int(v)) {
		vo.order.Put(int(v), -newScore)
	}
	if newScore > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

func (vo *VarOrder) rescaleScoresAndIncrement() {
	vo.scoreInc *= 1e-100
	for v, s := range vo.scores {
		newScore := s * 1e-100
		vo.scores[v] = newScore
		if vo.order.Contains(v) {
			vo.order.Put(v, -newScore)
		}
	}
}

// NextDecision pops the highest-activity still-undecided variable and
// returns a decision literal for it: the phase-saved last-solved value if
// it is still possible, otherwise the lowest still-possible index.
func (vo *VarOrder) NextDecision() (Literal, bool) {
	for {
		next, ok := vo.order.Pop()
		if !ok {
			return Literal{}, false
		}
		v := VariableID(next.Elem)
		current := vo.db.Current(v)
		if current.IsSingleton() {
			continue // already solved
		}

		if vo.phaseSaving {
			saved := vo.db.LastSolved(v)
			if saved.IsSingleton() && current.AnyPossible(saved) {
				return Literal{Var: v, Mask: saved}, true
			}
		}
		idx, _ := current.IndexOf(true)
		return Literal{Var: v, Mask: SingleValueSet(current.Width(), idx)}, true
	}
}
