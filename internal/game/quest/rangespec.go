package quest

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RollRange is an outcome tier's roll band: either a bare integer ("1", "20",
// "7") matching one exact total, or an inclusive "min-max" span. The bare
// strings "1" and "20" are reserved for critical results and are matched by
// natural roll, ignoring the modifier.
type RollRange struct {
	Raw   string
	Min   int
	Max   int
	Exact bool // bare integer form
}

// ParseRollRange parses "N" or "min-max" into a RollRange.
//
// Postcondition: Min <= Max; Exact == true iff the input was a bare integer.
func ParseRollRange(raw string) (RollRange, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RollRange{}, fmt.Errorf("quest: empty roll range")
	}

	if i := strings.Index(s, "-"); i > 0 {
		min, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil {
			return RollRange{}, fmt.Errorf("quest: bad roll range %q: %w", raw, err)
		}
		max, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err != nil {
			return RollRange{}, fmt.Errorf("quest: bad roll range %q: %w", raw, err)
		}
		if min < 1 || max < min {
			return RollRange{}, fmt.Errorf("quest: bad roll range %q: need 1 <= min <= max", raw)
		}
		return RollRange{Raw: s, Min: min, Max: max}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return RollRange{}, fmt.Errorf("quest: bad roll range %q: %w", raw, err)
	}
	if n < 1 {
		return RollRange{}, fmt.Errorf("quest: bad roll range %q: must be >= 1", raw)
	}
	return RollRange{Raw: s, Min: n, Max: n, Exact: true}, nil
}

// Contains reports whether the range matches the given total under normal
// (non-critical) rules: bare integers match only the exact value, spans match
// inclusively.
func (r RollRange) Contains(total int) bool {
	if r.Exact {
		return total == r.Min
	}
	return total >= r.Min && total <= r.Max
}

// IsCriticalSuccess reports whether this is the reserved natural-20 tier.
func (r RollRange) IsCriticalSuccess() bool { return r.Exact && r.Min == 20 }

// IsCriticalFailure reports whether this is the reserved natural-1 tier.
func (r RollRange) IsCriticalFailure() bool { return r.Exact && r.Min == 1 }

func (r RollRange) String() string { return r.Raw }

// UnmarshalYAML parses the range from its string form so tier tables can be
// authored as `range: "15-19"`.
func (r *RollRange) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseRollRange(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML renders the range back to its string form.
func (r RollRange) MarshalYAML() (interface{}, error) {
	return r.Raw, nil
}
