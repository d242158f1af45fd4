package media

// State is the lifecycle state of a tracked item.
type State string

const (
	// StateRegistered is the entry state: identity known, metadata pending.
	StateRegistered State = "registered"
	// StateAwaiting means metadata is known but the release date has not
	// passed yet.
	StateAwaiting State = "awaiting"
	// StateAvailable means the item is released and eligible for scouting
	// and download.
	StateAvailable State = "available"
	// StateCollected is terminal: files delivered and pushed to the catalog.
	StateCollected State = "collected"
	// StateAbandoned is terminal: no acceptable candidate appeared within
	// the configured timeout.
	StateAbandoned State = "abandoned"
)

// validTransitions defines allowed state transitions.
// Key is the "from" state, value is the list of valid "to" states.
// Collected and Abandoned can only be left via Registered (manual restart).
var validTransitions = map[State][]State{
	StateRegistered: {StateAwaiting, StateAvailable, StateCollected, StateAbandoned},
	StateAwaiting:   {StateAvailable, StateCollected, StateAbandoned, StateRegistered},
	StateAvailable:  {StateCollected, StateAbandoned, StateRegistered},
	StateCollected:  {StateRegistered},
	StateAbandoned:  {StateRegistered},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this state ends the acquisition pipeline.
func (s State) IsTerminal() bool {
	return s == StateCollected || s == StateAbandoned
}

// Is reports whether s equals any of the given states.
func (s State) Is(states ...State) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}
