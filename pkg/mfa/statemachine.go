package mfa

import "fmt"

// State is a verification session state. The machine is pure: transitions
// are a function of (state, event) with no timers or callbacks attached;
// time-dependent behavior (lockout expiry) is expressed by firing
// EventLockoutExpired when the orchestrator observes the cool-down has
// passed.
type State string

const (
	StateUnverified     State = "unverified"
	StateAwaitingFactor State = "awaiting_factor"
	StateVerified       State = "verified" // terminal success
	StateLocked         State = "locked"   // terminal until cool-down expiry
)

// Event triggers a state transition.
type Event string

const (
	EventFactorRequested   Event = "factor_requested"
	EventFactorVerified    Event = "factor_verified"
	EventFactorFailed      Event = "factor_failed"
	EventThresholdExceeded Event = "threshold_exceeded"
	EventLockoutExpired    Event = "lockout_expired"
)

// transitions is the complete transition table. Anything absent is invalid.
var transitions = map[State]map[Event]State{
	StateUnverified: {
		EventFactorRequested: StateAwaitingFactor,
	},
	StateAwaitingFactor: {
		EventFactorVerified:    StateVerified,
		EventFactorFailed:      StateAwaitingFactor,
		EventThresholdExceeded: StateLocked,
	},
	StateLocked: {
		EventLockoutExpired: StateUnverified,
	},
}

// InvalidTransitionError reports a (state, event) pair outside the table.
type InvalidTransitionError struct {
	State State
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no transition from state %q for event %q", e.State, e.Event)
}

// Transition returns the successor state for an event, or an
// InvalidTransitionError when the event is not legal in the given state.
func Transition(state State, event Event) (State, error) {
	if next, ok := transitions[state][event]; ok {
		return next, nil
	}
	return state, &InvalidTransitionError{State: state, Event: event}
}
