// Package document models person and committee records as semi-structured
// documents. Only a handful of fields are interpreted (id, name, roles,
// contact_details, memberships); everything else is carried opaquely through
// diffing and merging.
package document

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/rostermerge/pkg/constants"
)

// Document is a decoded person or committee record.
// Nested objects are map[string]any and lists are []any.
type Document map[string]any

// ID returns the document's stable identifier.
func (d Document) ID() string {
	return stringValue(d[constants.FieldID])
}

// Name returns the display name, the primary matching key.
func (d Document) Name() string {
	return stringValue(d[constants.FieldName])
}

// Roles returns the role entries in stored order. The returned maps are the
// document's own, so stamping them mutates the document.
func (d Document) Roles() []map[string]any {
	return maps(d[constants.FieldRoles])
}

// Memberships returns a committee document's membership entries.
func (d Document) Memberships() []map[string]any {
	return maps(d[constants.FieldMemberships])
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// NewPersonID generates a fresh person identifier.
func NewPersonID() string {
	return constants.PersonIDPrefix + uuid.NewString()
}

// EnsureID assigns a generated id when the document has none and reports
// whether it did.
func (d Document) EnsureID() bool {
	if d.ID() != "" {
		return false
	}
	d[constants.FieldID] = NewPersonID()
	return true
}

// Filename derives the base name a record is stored under:
// the name with spaces turned into dashes, then the id's uuid part.
func Filename(d Document) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(d.Name()) {
		switch {
		case r == ' ' || r == '-':
			sb.WriteRune('-')
		case r == '.' || r == ',' || r == '\'' || r == '"' || r == '/':
		default:
			sb.WriteRune(r)
		}
	}
	id := d.ID()
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if id != "" {
		sb.WriteRune('-')
		sb.WriteString(id)
	}
	return sb.String() + constants.FileExtension
}

// Today formats t as a document date.
func Today(t time.Time) string {
	return t.Format(constants.DateLayout)
}

// RoleActive reports whether a role or membership is still running on the
// given date: it has no end_date, or the end_date is after asOf.
// Dates are ISO formatted so string comparison orders them.
func RoleActive(role map[string]any, asOf string) bool {
	end := stringValue(role[constants.FieldEndDate])
	if end == "" {
		return true
	}
	return end > asOf
}

// ActiveRoles returns the document's roles that are active on asOf.
func (d Document) ActiveRoles(asOf string) []map[string]any {
	var active []map[string]any
	for _, role := range d.Roles() {
		if RoleActive(role, asOf) {
			active = append(active, role)
		}
	}
	return active
}

// Keys returns the document's keys sorted.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetPath returns the value at a dotted key path such as "extras.nickname".
func (d Document) GetPath(path string) (any, bool) {
	var current any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetPath stores value at a dotted key path, creating intermediate objects.
func (d Document) SetPath(path string, value any) {
	parts := strings.Split(path, ".")
	current := map[string]any(d)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// IsEmpty reports whether a value carries no information:
// nil, the empty string, or an empty list or object.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return formatScalar(val)
	}
}

func maps(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a decoded document value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Document:
		return Document(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return val
	}
}
