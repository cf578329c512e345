// Package merger folds an incoming person document into an existing one.
package merger

import (
	"sort"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/differ"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// Merger merges matched documents.
type Merger struct {
	options *options
}

// New creates a Merger. Without options it keeps the new side on conflict,
// merges contact_details by note and roles by seat.
func New(opts ...Option) (*Merger, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Merger{options: o}, nil
}

// Merge is shorthand for New(opts...) followed by Merge.
func Merge(existing, incoming document.Document, opts ...Option) (document.Document, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.Merge(existing, incoming)
}

// Merge returns existing with incoming folded in. Neither input is
// modified. The result always carries the existing id.
//
// Fields with a rule are merged by it. Everything else follows the
// difference set: a value only incoming has is taken, a value only
// existing has is kept, list elements only incoming has are appended and
// scalar conflicts go to the policy.
func (m *Merger) Merge(existing, incoming document.Document) (document.Document, error) {
	merged := existing.Clone()

	if m.options.keepBothIDs {
		addIdentifier(merged, incoming.ID())
	}

	ruled := make([]string, 0, len(m.options.rules))
	for field := range m.options.rules {
		ruled = append(ruled, field)
	}
	sort.Strings(ruled)
	for _, field := range ruled {
		next, ok := incoming[field]
		if !ok {
			continue
		}
		value, err := m.options.rules[field](merged[field], next, m.options.asOf)
		if err != nil {
			return nil, err
		}
		if value == nil {
			delete(merged, field)
			continue
		}
		merged[field] = value
	}

	for _, diff := range differ.Differences(existing, incoming, differ.WithIgnoredFields(ruled...)) {
		switch d := diff.(type) {
		case differ.ItemDifference:
			switch {
			case d.First == nil:
				merged.SetPath(d.Key, document.CloneValue(d.Second))
			case d.Second == nil:
			case m.options.policy == KeepOld:
			case m.options.policy == KeepNew:
				merged.SetPath(d.Key, document.CloneValue(d.Second))
			default:
				return nil, errors.NewMergeConflictError(d.Key, d.First, d.Second)
			}
		case differ.ListDifference:
			if d.Side != differ.Second {
				continue
			}
			current, _ := merged.GetPath(d.Key)
			list, _ := current.([]any)
			merged.SetPath(d.Key, append(list, document.CloneValue(d.Item)))
		}
	}

	merged[constants.FieldID] = existing[constants.FieldID]
	if existing[constants.FieldID] == nil {
		delete(merged, constants.FieldID)
	}
	return merged, nil
}

// NeedsUpdate reports whether incoming carries anything existing lacks.
func NeedsUpdate(existing, incoming document.Document) bool {
	return len(differ.Meaningful(existing, incoming)) > 0
}

// EndMovedRoles end-dates every role of doc that is active on asOf and
// whose seat differs from seat. It mutates doc and returns how many roles
// it ended.
func EndMovedRoles(doc document.Document, seat document.Seat, endDate, asOf string) (int, error) {
	ended := 0
	for _, role := range doc.Roles() {
		if !document.RoleActive(role, asOf) {
			continue
		}
		current, err := document.RoleSeat(role)
		if err != nil {
			return ended, err
		}
		if current != seat {
			role[constants.FieldEndDate] = endDate
			ended++
		}
	}
	return ended, nil
}

func addIdentifier(doc document.Document, id string) {
	if id == "" || id == doc.ID() {
		return
	}
	entry := map[string]any{
		constants.FieldScheme:     constants.IdentifierScheme,
		constants.FieldIdentifier: id,
	}
	list, _ := doc[constants.FieldOtherIdentifiers].([]any)
	if containsValue(list, entry) {
		return
	}
	doc[constants.FieldOtherIdentifiers] = append(list, entry)
}
