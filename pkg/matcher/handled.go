package matcher

// Handled records which ids have been given an outcome in a run. Existing
// and incoming ids are tracked apart so an incoming record that reuses an
// existing id cannot shadow it. Passes never mutate the set they are given.
type Handled struct {
	Existing map[string]bool
	Incoming map[string]bool
}

// NewHandled returns an empty set.
func NewHandled() Handled {
	return Handled{Existing: map[string]bool{}, Incoming: map[string]bool{}}
}

// Clone returns an independent copy.
func (h Handled) Clone() Handled {
	out := NewHandled()
	for id := range h.Existing {
		out.Existing[id] = true
	}
	for id := range h.Incoming {
		out.Incoming[id] = true
	}
	return out
}

func (h Handled) mark(existingID, incomingID string) {
	h.Existing[existingID] = true
	h.Incoming[incomingID] = true
}

// Len returns the number of handled records on both sides.
func (h Handled) Len() int {
	return len(h.Existing) + len(h.Incoming)
}
