// Package detection drives repeated job detection on a page: a bounded retry
// loop for late-rendering pages plus re-detection on DOM mutation, modelled as
// one state machine.
package detection

// State is the detector's lifecycle state.
type State int

const (
	// Idle means no detection pass has run yet.
	Idle State = iota
	// Detecting means passes are retried on every timer tick.
	Detecting
	// Detected means the slot holds a job.
	Detected
	// GaveUp means the retry budget ran out without a job.
	GaveUp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Detecting:
		return "detecting"
	case Detected:
		return "detected"
	case GaveUp:
		return "gave-up"
	default:
		return "unknown"
	}
}

// Event is an input to the state machine.
type Event int

const (
	// TimerTick fires on every retry interval.
	TimerTick Event = iota
	// MutationEvent fires (debounced) when job-indicative nodes are added.
	MutationEvent
	// ManualTrigger is an explicit request to detect now.
	ManualTrigger
)

func (e Event) String() string {
	switch e {
	case TimerTick:
		return "tick"
	case MutationEvent:
		return "mutation"
	case ManualTrigger:
		return "manual"
	default:
		return "unknown"
	}
}

// runsPass says which (state, event) pairs trigger a detection pass. Pairs not
// listed are ignored.
var runsPass = map[State]map[Event]bool{
	Idle:      {MutationEvent: true, ManualTrigger: true},
	Detecting: {TimerTick: true, MutationEvent: true, ManualTrigger: true},
	Detected:  {MutationEvent: true, ManualTrigger: true},
	GaveUp:    {MutationEvent: true, ManualTrigger: true},
}

// RunsPass reports whether event in state should run a detection pass.
func RunsPass(from State, ev Event) bool {
	return runsPass[from][ev]
}

// Next returns the state after a pass triggered by ev in from. exhausted is
// true when the retry budget is used up; only timer ticks spend it.
func Next(from State, ev Event, found, exhausted bool) State {
	if found {
		return Detected
	}
	switch from {
	case Idle:
		return Detecting
	case Detecting:
		if ev == TimerTick && exhausted {
			return GaveUp
		}
		return Detecting
	default:
		return from
	}
}
