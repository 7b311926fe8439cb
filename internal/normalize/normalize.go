// Package normalize turns raw company and person names into canonical keys
// that can be compared across datasets with inconsistent spelling,
// legal-form suffixes or name ordering.
//
// Each Mode owns an ordered rewrite table (see Rules). Keys contain no
// whitespace and re-normalizing a key under the same mode returns it unchanged.
package normalize

import (
	"fmt"
	"strings"
)

// Mode selects the rule set applied to names.
type Mode string

const (
	CompanyUS            Mode = "company-us"
	CompanyInternational Mode = "company-int"
	Person               Mode = "person"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{CompanyUS, CompanyInternational, Person}

var modeAliases = map[string]Mode{
	"company-us":  CompanyUS,
	"us":          CompanyUS,
	"firm (us)":   CompanyUS,
	"company-int": CompanyInternational,
	"int":         CompanyInternational,
	"firm (int)":  CompanyInternational,
	"person":      Person,
}

// ParseMode resolves a mode name. The web form labels
// ("Firm (US)", "Firm (Int)", "Person") are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	mode, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown normalization mode %q (supported: %s, %s, %s)", s, CompanyUS, CompanyInternational, Person)
	}
	return mode, nil
}

// Valid reports whether m has a rule table.
func (m Mode) Valid() bool {
	_, ok := ruleTable[m]
	return ok
}

func (m Mode) String() string {
	return string(m)
}

// Normalize maps raw to its canonical key under mode. It never fails: values
// that are not strings are formatted with fmt first, nil becomes the empty
// string, and an unknown mode returns the trimmed input unchanged.
func Normalize(raw any, mode Mode) string {
	s := coerce(raw)

	steps, ok := ruleTable[mode]
	if !ok {
		return strings.TrimSpace(s)
	}

	for _, step := range steps {
		s = step.Apply(s)
	}

	return s
}

// Trace returns the intermediate value after every step, useful for
// debugging why two names did or did not collide.
func Trace(raw any, mode Mode) []TraceStep {
	s := coerce(raw)
	steps := ruleTable[mode]

	trace := make([]TraceStep, 0, len(steps))
	for _, step := range steps {
		s = step.Apply(s)
		trace = append(trace, TraceStep{Rule: step.Name, Value: s})
	}

	return trace
}

// TraceStep records the value produced by one rule.
type TraceStep struct {
	Rule  string
	Value string
}

func coerce(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
