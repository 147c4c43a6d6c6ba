package fd

// ConflictAnalyzer performs the 1-UIP cut construction of spec §4.5,
// generalising the teacher's solver.go analyze: the boolean seenVar set
// becomes a per-variable flag slice, negation-of-boolean-literal becomes
// ValueSet.Invert via Literal.Opposite, and "exactly one literal at the
// current decision level" is tested against Database.LevelOf instead of a
// single package-level level slice.
type ConflictAnalyzer struct {
	db   *Database
	seen []bool
}

// NewConflictAnalyzer returns an analyzer bound to db.
func NewConflictAnalyzer(db *Database) *ConflictAnalyzer {
	return &ConflictAnalyzer{db: db}
}

func (a *ConflictAnalyzer) ensureCap() {
	for len(a.seen) < a.db.NumVariables() {
		a.seen = append(a.seen, false)
	}
}

// Analyze walks the AssignmentStack backwards from the conflicting
// constraint, resolving on pivot variables until exactly one literal at
// the current decision level remains. It returns the learned clause's
// literals (the 1-UIP literal first), its LBD and the backjump level
// (spec §4.5 step 3).
func (a *ConflictAnalyzer) Analyze(conflict Constraint) (learned []Literal, lbd int, backjumpLevel int) {
	a.ensureCap()
	for i := range a.seen {
		a.seen[i] = false
	}

	level := a.db.DecisionLevel()
	pending := 0
	out := []Literal{{}} // out[0] reserved for the 1-UIP literal

	curLits := conflict.ExplainConflict(a.db)
	nextTS := a.db.Now() - 1

	var uipVar VariableID = -1
	for {
		for _, q := range curLits {
			v := q.Var
			if a.seen[v] {
				continue
			}
			a.seen[v] = true
			if a.db.LevelOf(v) == level {
				pending++
				continue
			}
			if a.db.LevelOf(v) > 0 {
				out = append(out, q.Opposite())
				if lvl := a.db.LevelOf(v); lvl > backjumpLevel {
					backjumpLevel = lvl
				}
			}
		}

		// Advance to the next trail entry belonging to the resolution front.
		var cause Constraint
		var explainer Explainer
		var v VariableID
		var ts Timestamp
		for {
			variable, _, c, exp := a.db.EntryAt(nextTS)
			ts = nextTS
			nextTS--
			if a.seen[variable] {
				v, cause, explainer = variable, c, exp
				break
			}
		}

		pending--
		if pending <= 0 {
			uipVar = v
			uipMask := a.db.ValueAfter(v, ts)
			if uipMask.IsZero() {
				// v is itself the contradicting variable (its narrowing
				// emptied its domain): there is no post-narrow value to
				// negate, so fall back to the value it held just before
				// the contradiction.
				_, prevVal, _, _ := a.db.EntryAt(ts)
				uipMask = prevVal
			}
			out[0] = Literal{Var: v, Mask: uipMask}.Opposite()
			break
		}

		switch {
		case explainer != nil:
			curLits = explainer()
		case cause != nil:
			curLits = cause.Explain(a.db, v)
		default:
			curLits = nil
		}
	}

	_ = uipVar
	return out, computeLBD(a.db, out), backjumpLevel
}
