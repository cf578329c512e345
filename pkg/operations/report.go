package operations

import "github.com/agentstation/rostermerge/pkg/errors"

// Report summarizes a run.
type Report struct {
	Outcomes []Outcome
}

// Count returns how many operations of a kind ended in a state. An empty
// kind matches every kind.
func (r *Report) Count(kind Kind, state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if (kind == "" || o.Op.Kind() == kind) && o.State == state {
			n++
		}
	}
	return n
}

// Planned returns how many operations of a kind the run contained.
func (r *Report) Planned(kind Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Op.Kind() == kind {
			n++
		}
	}
	return n
}

// Failures returns every failed outcome.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State == Failed {
			out = append(out, o)
		}
	}
	return out
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
