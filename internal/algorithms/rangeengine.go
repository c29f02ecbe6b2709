package algorithms

import "eventcore/internal/domain"

// rangeInput is the shared decision input for every range-style algorithm
// (OutOfRange, DoubleOutOfRange, SignedOutOfRange, UnsignedOutOfRange,
// UnsignedRange, FloatingLimit). All arithmetic is done in float64 even for
// integer kinds; callers are responsible for converting their native kind
// in and the resulting state back out, and for pre-clamping Deadband for
// unsigned kinds via clampUnsignedDeadband.
type rangeInput struct {
	Current     domain.EventState
	Value       float64
	Low, High   float64
	Deadband    float64
	HighEnabled bool
	LowEnabled  bool
}

// evaluateRange implements the clause-13.3.6 predicate ordering,
// first-match-wins. NaN values never satisfy any Go float64 comparison,
// so a NaN Value falls through every clause and reports no transition.
func evaluateRange(in rangeInput) (domain.EventState, bool) {
	switch domain.GroupOf(in.Current) {
	case domain.GroupNormal:
		if in.HighEnabled && in.Value > in.High {
			return domain.EventStateHighLimit, true // (a)
		}
		if in.LowEnabled && in.Value < in.Low {
			return domain.EventStateLowLimit, true // (b)
		}
		return in.Current, false
	}

	switch in.Current {
	case domain.EventStateHighLimit:
		if !in.HighEnabled {
			return domain.EventStateNormal, true // (c)
		}
		if in.LowEnabled && in.Value < in.Low {
			return domain.EventStateLowLimit, true // (d)
		}
		if in.Value < in.High-in.Deadband {
			return domain.EventStateNormal, true // (e) hysteresis
		}
		return in.Current, false
	case domain.EventStateLowLimit:
		if !in.LowEnabled {
			return domain.EventStateNormal, true // (f)
		}
		if in.HighEnabled && in.Value > in.High {
			return domain.EventStateHighLimit, true // (g)
		}
		if in.Value > in.Low+in.Deadband {
			return domain.EventStateNormal, true // (h) hysteresis
		}
		return in.Current, false
	default:
		// Any other off-normal sub-state (e.g. one left behind by a
		// different algorithm sharing this initiating object) is treated
		// like Normal's entry clauses: only a fresh high/low crossing can
		// move it, never the bare hysteresis return.
		if in.HighEnabled && in.Value > in.High {
			return domain.EventStateHighLimit, true
		}
		if in.LowEnabled && in.Value < in.Low {
			return domain.EventStateLowLimit, true
		}
		return in.Current, false
	}
}

// clampUnsignedDeadband enforces the unsigned saturation rule: deadband is
// subtracted from high only when high >= deadband; otherwise the
// hysteresis term saturates to 0 (i.e. effective deadband == high).
func clampUnsignedDeadband(high, deadband float64) float64 {
	if deadband > high {
		return high
	}
	return deadband
}
