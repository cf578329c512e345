package differ

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
)

const defaultIgnored = constants.FieldID

// Differ walks two documents and reports how they differ.
// Key order and list order never produce a difference, and inputs are
// never mutated.
type Differ struct {
	ignore map[string]bool
}

// New creates a Differ that ignores id unless told otherwise.
func New(opts ...Option) *Differ {
	d := &Differ{ignore: map[string]bool{defaultIgnored: true}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Differences is shorthand for New(opts...).Differences(a, b).
func Differences(a, b document.Document, opts ...Option) []Difference {
	return New(opts...).Differences(a, b)
}

// Meaningful is shorthand for New(opts...).Meaningful(a, b).
func Meaningful(a, b document.Document, opts ...Option) []Difference {
	return New(opts...).Meaningful(a, b)
}

// Differences compares a with b. Keys are visited in sorted order so the
// result is deterministic.
func (d *Differ) Differences(a, b document.Document) []Difference {
	return d.compare(a, b, "")
}

// Meaningful returns only the differences where b supplies new
// information: list elements found only in b, and scalars b sets to a
// non-empty value. Fields b simply omits never count.
func (d *Differ) Meaningful(a, b document.Document) []Difference {
	var out []Difference
	for _, diff := range d.Differences(a, b) {
		switch v := diff.(type) {
		case ListDifference:
			if v.Side == Second {
				out = append(out, v)
			}
		case ItemDifference:
			if !document.IsEmpty(v.Second) {
				out = append(out, v)
			}
		}
	}
	return out
}

func (d *Differ) compare(a, b map[string]any, prefix string) []Difference {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []Difference
	for _, key := range sorted {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if d.ignored(key, path, prefix) {
			continue
		}
		v1, v2 := a[key], b[key]
		l1, isList1 := v1.([]any)
		l2, isList2 := v2.([]any)
		m1, isMap1 := v1.(map[string]any)
		m2, isMap2 := v2.(map[string]any)

		switch {
		case isList1 || isList2:
			for _, item := range l1 {
				if !contains(l2, item) {
					out = append(out, ListDifference{Key: path, Item: item, Side: First})
				}
			}
			for _, item := range l2 {
				if !contains(l1, item) {
					out = append(out, ListDifference{Key: path, Item: item, Side: Second})
				}
			}
		case isMap1 || isMap2:
			out = append(out, d.compare(m1, m2, path)...)
		case !Equal(v1, v2):
			out = append(out, ItemDifference{Key: path, First: v1, Second: v2})
		}
	}
	return out
}

func (d *Differ) ignored(key, path, prefix string) bool {
	if d.ignore[path] {
		return true
	}
	return prefix == "" && d.ignore[key]
}

func contains(list []any, item any) bool {
	for _, candidate := range list {
		if Equal(candidate, item) {
			return true
		}
	}
	return false
}

// Equal reports whether two document values are structurally equal.
func Equal(a, b any) bool {
	return cmp.Equal(a, b)
}
