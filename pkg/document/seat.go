package document

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// District is a normalized district: an integer when the raw value is
// numeric, otherwise the raw label (for example "At-Large").
type District struct {
	number  int
	label   string
	numeric bool
}

// NumberDistrict returns a numeric district.
func NumberDistrict(n int) District {
	return District{number: n, numeric: true}
}

// LabelDistrict returns a district normalized from a raw label.
func LabelDistrict(label string) District {
	d, _ := ParseDistrict(label)
	return d
}

// ParseDistrict normalizes a raw district value.
func ParseDistrict(v any) (District, error) {
	switch val := v.(type) {
	case int:
		return NumberDistrict(val), nil
	case int64:
		return NumberDistrict(int(val)), nil
	case uint64:
		return NumberDistrict(int(val)), nil
	case float64:
		if val == float64(int(val)) {
			return NumberDistrict(int(val)), nil
		}
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			break
		}
		if isDigits(s) {
			n, err := strconv.Atoi(s)
			if err == nil {
				return NumberDistrict(n), nil
			}
		}
		return District{label: s}, nil
	}
	return District{}, errors.NewValidationError(constants.FieldDistrict, v, fmt.Sprintf("unparseable district %v", v))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// IsNumeric reports whether the district normalized to an integer.
func (d District) IsNumeric() bool { return d.numeric }

// Number returns the numeric district, or 0 for labels.
func (d District) Number() int { return d.number }

func (d District) String() string {
	if d.numeric {
		return strconv.Itoa(d.number)
	}
	return d.label
}

// Compare orders numeric districts ascending and before any label;
// labels compare lexicographically.
func (d District) Compare(o District) int {
	switch {
	case d.numeric && o.numeric:
		return cmp.Compare(d.number, o.number)
	case d.numeric:
		return -1
	case o.numeric:
		return 1
	default:
		return strings.Compare(d.label, o.label)
	}
}

// Seat identifies an electable position.
type Seat struct {
	Type     string
	District District
}

func (s Seat) String() string {
	return s.Type + "/" + s.District.String()
}

// IsZero reports whether the seat is unset.
func (s Seat) IsZero() bool {
	return s == Seat{}
}

// Compare orders seats by chamber, then district.
func (s Seat) Compare(o Seat) int {
	if c := strings.Compare(s.Type, o.Type); c != 0 {
		return c
	}
	return s.District.Compare(o.District)
}

// RoleSeat derives the seat of a single role entry.
func RoleSeat(role map[string]any) (Seat, error) {
	district, err := ParseDistrict(role[constants.FieldDistrict])
	if err != nil {
		return Seat{}, err
	}
	return Seat{Type: stringValue(role[constants.FieldType]), District: district}, nil
}

// Seat derives the document's current seat from its last role entry.
func (d Document) Seat() (Seat, error) {
	roles := d.Roles()
	if len(roles) == 0 {
		return Seat{}, errors.NewValidationError(constants.FieldRoles, d.Name(), fmt.Sprintf("%s has no roles", d.Name()))
	}
	return RoleSeat(roles[len(roles)-1])
}
