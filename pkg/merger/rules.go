package merger

import (
	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/differ"
	"github.com/agentstation/rostermerge/pkg/document"
)

// Rule merges one top-level field. It receives the existing and incoming
// values (either may be nil) and returns the merged value. A nil result
// deletes the field.
type Rule func(existing, incoming any, asOf string) (any, error)

// MergeByNote merges lists of contact-like entries keyed by their note.
// Existing entries keep their position, incoming entries are overlaid onto
// the entry with the same note and new notes are appended, so a contact
// the incoming pull missed is never dropped.
func MergeByNote(existing, incoming any, _ string) (any, error) {
	old, _ := existing.([]any)
	next, _ := incoming.([]any)
	if len(next) == 0 {
		return existing, nil
	}

	var order []string
	byNote := make(map[string]map[string]any)
	var loose []any
	add := func(entry any, overlay bool) {
		m, ok := entry.(map[string]any)
		if !ok {
			if !containsValue(loose, entry) {
				loose = append(loose, entry)
			}
			return
		}
		note, _ := m[constants.FieldNote].(string)
		current, seen := byNote[note]
		if !seen {
			current = map[string]any{}
			byNote[note] = current
			order = append(order, note)
		}
		for k, v := range m {
			if overlay || !seen {
				current[k] = document.CloneValue(v)
			}
		}
	}
	for _, entry := range old {
		add(entry, false)
	}
	for _, entry := range next {
		add(entry, true)
	}

	out := make([]any, 0, len(order)+len(loose))
	for _, note := range order {
		out = append(out, byNote[note])
	}
	return append(out, loose...), nil
}

// MergeRoles keeps role history. An incoming role for the same seat as an
// active existing role is overlaid onto it; any other incoming role not
// already present is appended, so the current seat stays last.
func MergeRoles(existing, incoming any, asOf string) (any, error) {
	old, _ := existing.([]any)
	next, _ := incoming.([]any)
	out := document.CloneValue(old).([]any)
	if out == nil {
		out = []any{}
	}

	for _, entry := range next {
		role, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if containsValue(out, role) {
			continue
		}
		seat, err := document.RoleSeat(role)
		if err != nil {
			return nil, err
		}
		target := -1
		for i, candidate := range out {
			current, ok := candidate.(map[string]any)
			if !ok || !document.RoleActive(current, asOf) {
				continue
			}
			if s, err := document.RoleSeat(current); err == nil && s == seat {
				target = i
				break
			}
		}
		if target < 0 {
			out = append(out, document.CloneValue(role))
			continue
		}
		current := out[target].(map[string]any)
		for k, v := range role {
			if !document.IsEmpty(v) {
				current[k] = document.CloneValue(v)
			}
		}
	}
	return out, nil
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if differ.Equal(item, v) {
			return true
		}
	}
	return false
}
