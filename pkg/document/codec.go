package document

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// fieldOrder fixes the position of well known keys when a document is
// written. Keys not listed follow in alphabetical order.
var fieldOrder = rank(
	// person and committee
	"id", "name", "given_name", "family_name", "middle_name", "suffix", "other_names",
	"gender", "email", "biography", "birth_date", "death_date", "image",
	"classification", "parent", "jurisdiction", "party",
	"roles", "memberships", "contact_details", "offices",
	"links", "sources", "ids", "other_identifiers", "extras",
	// roles and memberships
	"type", "role", "district", "start_date", "end_date", "end_reason",
	// contacts and identifiers
	"note", "address", "voice", "fax", "scheme", "identifier", "url",
)

func rank(keys ...string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, ok := m[k]; !ok {
			m[k] = i
		}
	}
	return m
}

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := fieldOrder[keys[i]]
		rj, jok := fieldOrder[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Ordered converts a document value into yaml.MapSlice form so it is
// written with a stable key order.
func Ordered(v any) any {
	switch val := v.(type) {
	case Document:
		return Ordered(map[string]any(val))
	case map[string]any:
		out := make(yaml.MapSlice, 0, len(val))
		for _, k := range orderedKeys(val) {
			if val[k] == nil {
				continue
			}
			out = append(out, yaml.MapItem{Key: k, Value: Ordered(val[k])})
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Ordered(item)
		}
		return out
	default:
		return val
	}
}

// Marshal encodes a document as YAML with canonical key order.
func Marshal(d Document) ([]byte, error) {
	data, err := yaml.MarshalWithOptions(Ordered(d),
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return nil, errors.WrapParse("yaml", d.Name(), err)
	}
	return data, nil
}

// Unmarshal decodes a YAML document and normalizes its values.
func Unmarshal(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	normalized, ok := Normalize(raw).(map[string]any)
	if !ok {
		return nil, errors.NewParseError("yaml", "", "document is not a mapping", nil)
	}
	return Document(normalized), nil
}

// Normalize rewrites decoded values into the shapes the rest of the system
// expects: string keyed maps, []any lists, int for whole numbers and
// YYYY-MM-DD strings for dates.
func Normalize(v any) any {
	switch val := v.(type) {
	case Document:
		return Normalize(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case yaml.MapSlice:
		out := make(map[string]any, len(val))
		for _, item := range val {
			out[fmt.Sprint(item.Key)] = Normalize(item.Value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case int32:
		return int(val)
	case uint:
		return int(val)
	case time.Time:
		return val.Format(constants.DateLayout)
	default:
		return val
	}
}

func formatScalar(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(constants.DateLayout)
	default:
		return fmt.Sprint(val)
	}
}
