package media

// ChangeKind classifies a library mutation.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeState   ChangeKind = "state"
	ChangeRemoved ChangeKind = "removed"
	ChangeNone    ChangeKind = "none"
)

// Change describes one library mutation. OldState carries the state before
// a transition; Internal marks changes originating from the engine itself
// (delivery, abandon) rather than from catalog synchronization.
type Change struct {
	Media    *Media
	Kind     ChangeKind
	OldState State
	Internal bool
}

func (c Change) String() string {
	if c.Kind == ChangeState {
		return string(c.Kind) + " (" + string(c.OldState) + " -> " + string(c.Media.State()) + ")"
	}
	return string(c.Kind) + " (" + string(c.OldState) + ")"
}

// Observer receives library change notifications.
type Observer func(Change)
