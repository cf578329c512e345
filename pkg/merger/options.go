package merger

import (
	"fmt"
	"time"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// Policy decides which side wins when both documents set a scalar field
// to different non-empty values.
type Policy string

const (
	// KeepNew takes the incoming value. Reconciliation always uses it.
	KeepNew Policy = "new"
	// KeepOld keeps the existing value.
	KeepOld Policy = "old"
	// KeepError refuses to choose and reports a MergeConflictError.
	KeepError Policy = "error"
)

// ParsePolicy parses a --keep style argument.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case KeepNew, KeepOld, KeepError:
		return Policy(s), nil
	case "":
		return KeepError, nil
	}
	return "", errors.NewValidationError("keep", s, fmt.Sprintf("policy must be %q or %q", KeepOld, KeepNew))
}

type options struct {
	policy      Policy
	keepBothIDs bool
	asOf        string
	rules       map[string]Rule
}

func defaultOptions() *options {
	return &options{
		policy: KeepNew,
		asOf:   document.Today(time.Now()),
		rules: map[string]Rule{
			constants.FieldContactDetails: MergeByNote,
			constants.FieldRoles:          MergeRoles,
		},
	}
}

// Option configures a Merger.
type Option func(*options) error

// WithPolicy sets the scalar conflict policy.
func WithPolicy(policy Policy) Option {
	return func(o *options) error {
		if _, err := ParsePolicy(string(policy)); err != nil {
			return err
		}
		o.policy = policy
		return nil
	}
}

// WithKeepBothIDs records the incoming id under other_identifiers instead
// of dropping it.
func WithKeepBothIDs(enabled bool) Option {
	return func(o *options) error {
		o.keepBothIDs = enabled
		return nil
	}
}

// WithAsOf sets the date roles are judged active on (YYYY-MM-DD).
func WithAsOf(date string) Option {
	return func(o *options) error {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return errors.WrapValidation("as_of", err)
		}
		o.asOf = date
		return nil
	}
}

// WithRule installs or replaces the rule for a top-level field. A nil rule
// removes it, leaving the field to the default policy.
func WithRule(field string, rule Rule) Option {
	return func(o *options) error {
		if rule == nil {
			delete(o.rules, field)
			return nil
		}
		o.rules[field] = rule
		return nil
	}
}
