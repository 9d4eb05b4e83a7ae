package domain

// RunState tracks where a request execution sits in its lifecycle.
type RunState string

const (
	StatePending    RunState = "pending"
	StateAttempting RunState = "attempting"
	StateRetrying   RunState = "retrying"
	StateSucceeded  RunState = "succeeded"
	StateFailed     RunState = "failed"
)

// ValidTransitions defines allowed lifecycle transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[RunState][]RunState{
	StatePending:    {StateAttempting},
	StateAttempting: {StateRetrying, StateSucceeded, StateFailed},
	StateRetrying:   {StateAttempting},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to RunState) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a state ends the lifecycle.
func (s RunState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s RunState) string {
	switch s {
	case StatePending:
		return "Pending - request validated, no attempt made yet"
	case StateAttempting:
		return "Attempting - a transport call is in flight"
	case StateRetrying:
		return "Retrying - waiting out the backoff delay"
	case StateSucceeded:
		return "Succeeded - a 2xx response arrived"
	case StateFailed:
		return "Failed - no retry permitted, diagnosis attached"
	default:
		return "Unknown state"
	}
}
