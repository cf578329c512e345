// Package seats loads per-jurisdiction seat settings and turns them into
// expected seat counts.
package seats

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// Chambers are the chamber prefixes a jurisdiction may configure.
var Chambers = []string{"upper", "lower", "legislature"}

// Vacancy is a seat known to be empty until a date.
type Vacancy struct {
	Chamber     string `yaml:"chamber"`
	District    any    `yaml:"district"`
	VacantUntil any    `yaml:"vacant_until"`
}

// Jurisdiction is one jurisdiction's seat settings. Each chamber spec is
// a count of numbered districts, a list of district labels with one seat
// each, or a map of district to seat count.
type Jurisdiction struct {
	UpperSeats       any       `yaml:"upper_seats"`
	LowerSeats       any       `yaml:"lower_seats"`
	LegislatureSeats any       `yaml:"legislature_seats"`
	Vacancies        []Vacancy `yaml:"vacancies"`
}

func (j Jurisdiction) spec(chamber string) any {
	switch chamber {
	case "upper":
		return j.UpperSeats
	case "lower":
		return j.LowerSeats
	default:
		return j.LegislatureSeats
	}
}

// Settings maps jurisdiction abbreviations to their seat settings.
type Settings map[string]Jurisdiction

// Load reads a settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("settings file", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes settings YAML. name is used in error messages.
func Parse(data []byte, name string) (Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	if settings == nil {
		settings = Settings{}
	}
	return settings, nil
}

// Get returns one jurisdiction's settings.
func (s Settings) Get(jurisdiction string) (Jurisdiction, error) {
	j, ok := s[jurisdiction]
	if !ok {
		return Jurisdiction{}, errors.NewNotFoundError("settings", jurisdiction)
	}
	return j, nil
}

// Seats holds seat counts per chamber and district.
type Seats map[string]map[document.District]int

// Expand computes seat counts for a jurisdiction, removing vacancies that
// are still open on asOf. An unrecognized chamber spec is an input error.
func Expand(j Jurisdiction, asOf time.Time) (Seats, error) {
	expanded := Seats{}
	for _, chamber := range Chambers {
		spec := j.spec(chamber)
		if document.IsEmpty(spec) {
			continue
		}
		counts, err := expandSpec(chamber, spec)
		if err != nil {
			return nil, err
		}
		if len(counts) > 0 {
			expanded[chamber] = counts
		}
	}

	today := document.Today(asOf)
	for _, v := range j.Vacancies {
		until, _ := document.Normalize(v.VacantUntil).(string)
		if until == "" || today >= until {
			continue
		}
		counts, ok := expanded[v.Chamber]
		if !ok {
			return nil, errors.NewValidationError("vacancies", v.Chamber, fmt.Sprintf("vacancy in unconfigured chamber %q", v.Chamber))
		}
		district, err := document.ParseDistrict(document.Normalize(v.District))
		if err != nil {
			return nil, err
		}
		counts[district]--
	}
	return expanded, nil
}

func expandSpec(chamber string, spec any) (map[document.District]int, error) {
	field := chamber + "_seats"
	counts := map[document.District]int{}
	switch val := document.Normalize(spec).(type) {
	case int:
		for d := 1; d <= val; d++ {
			counts[document.NumberDistrict(d)] = 1
		}
	case []any:
		for _, raw := range val {
			district, err := document.ParseDistrict(raw)
			if err != nil {
				return nil, errors.NewValidationError(field, raw, "unparseable district in seat list")
			}
			counts[district] = 1
		}
	case map[string]any:
		for raw, n := range val {
			district, err := document.ParseDistrict(raw)
			if err != nil {
				return nil, errors.NewValidationError(field, raw, "unparseable district in seat map")
			}
			count, ok := n.(int)
			if !ok {
				return nil, errors.NewValidationError(field, n, fmt.Sprintf("seat count for %s must be an integer", raw))
			}
			counts[district] = count
		}
	default:
		return nil, errors.NewValidationError(field, spec, fmt.Sprintf("unrecognized seat specification %v", spec))
	}
	return counts, nil
}

// Expected is the total number of seats.
func (s Seats) Expected() int {
	total := 0
	for _, counts := range s {
		for _, n := range counts {
			total += n
		}
	}
	return total
}

// Count returns the seats configured for one seat.
func (s Seats) Count(seat document.Seat) int {
	return s[seat.Type][seat.District]
}

// Districts lists a chamber's districts in seat order.
func (s Seats) Districts(chamber string) []document.District {
	out := make([]document.District, 0, len(s[chamber]))
	for d := range s[chamber] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// Check is the outcome of an incoming-volume check.
type Check struct {
	Expected int
	Incoming int
	Ratio    float64
	OK       bool
}

// CheckIncoming passes when the incoming record count is within the
// tolerated band around the expected seat count.
func CheckIncoming(expected, incoming int) (Check, error) {
	if expected <= 0 {
		return Check{}, errors.NewValidationError("expected", expected, "jurisdiction has no seats configured")
	}
	ratio := float64(incoming) / float64(expected)
	return Check{
		Expected: expected,
		Incoming: incoming,
		Ratio:    ratio,
		OK:       constants.IncomingRatio < ratio && ratio < 1/constants.IncomingRatio,
	}, nil
}
