package session

// ChangeKind tells what happened to a slot.
type ChangeKind string

const (
	ChangeSaved   ChangeKind = "saved"
	ChangeCleared ChangeKind = "cleared"
	// ChangeActivity reports user activity on a client. The slot itself is
	// unchanged.
	ChangeActivity ChangeKind = "activity"
)

// Change is published after a slot write completes, and on Touch.
type Change struct {
	Client   string     `json:"client"`
	Kind     ChangeKind `json:"kind"`
	Identity string     `json:"identity,omitempty"`
	Signal   string     `json:"signal,omitempty"`
	// Origin is the ID of the Store that published the change.
	Origin string `json:"origin,omitempty"`
}

// Present reports whether the slot holds a record after the change.
func (c Change) Present() bool {
	return c.Kind == ChangeSaved
}

// SlotChanged reports whether the change was a write to the slot.
func (c Change) SlotChanged() bool {
	return c.Kind == ChangeSaved || c.Kind == ChangeCleared
}
