// Package fsm implements the per-peer connectivity state machine.
package fsm

// State is one of the four post-init connectivity states, plus Unset for
// a peer record that has not yet been stepped.
type State int

const (
	Unset State = iota
	Present
	JustReturned
	JustLost
	StillLost
)

func (s State) String() string {
	switch s {
	case Unset:
		return "Unset"
	case Present:
		return "Present"
	case JustReturned:
		return "JustReturned"
	case JustLost:
		return "JustLost"
	case StillLost:
		return "StillLost"
	default:
		return "State(?)"
	}
}

// Step computes the next state for a peer given its current state and
// whether it timed out this cycle. changed reports whether this counts as
// a state transition for scheduling purposes (spec.md §4.1).
func Step(current State, timedOut bool) (next State, changed bool) {
	switch current {
	case Unset:
		if timedOut {
			return StillLost, true
		}
		return Present, false
	case Present:
		if timedOut {
			return JustLost, true
		}
		return Present, false
	case JustReturned:
		if timedOut {
			return JustLost, true
		}
		return Present, false
	case JustLost:
		if timedOut {
			return StillLost, false
		}
		return JustReturned, true
	case StillLost:
		if timedOut {
			return StillLost, false
		}
		return JustReturned, true
	default:
		panic("fsm: unknown state")
	}
}
