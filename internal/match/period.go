package match

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PeriodLevel is how strictly candidates are restricted to the query's period.
type PeriodLevel int

const (
	PeriodNone PeriodLevel = iota
	PeriodYear
	PeriodYearQuarter
)

func (l PeriodLevel) String() string {
	switch l {
	case PeriodYear:
		return "year"
	case PeriodYearQuarter:
		return "year+quarter"
	default:
		return "none"
	}
}

// Period is a parsed fiscal year and, for PeriodYearQuarter, quarter.
type Period struct {
	Year    int
	Quarter int
}

// ResolvePeriodLevel derives the filtering level from which period columns
// are configured on each side: year and quarter on both sides filters by
// both, year on both sides filters by year, anything else disables filtering.
func ResolvePeriodLevel(query, reference Columns) PeriodLevel {
	switch {
	case query.Year != "" && query.Quarter != "" && reference.Year != "" && reference.Quarter != "":
		return PeriodYearQuarter
	case query.Year != "" && reference.Year != "":
		return PeriodYear
	default:
		return PeriodNone
	}
}

// ParsePeriod parses the raw period cells of r at the given level.
func ParsePeriod(r Record, level PeriodLevel) (Period, error) {
	var p Period
	if level == PeriodNone {
		return p, nil
	}

	year, err := parseInt(r.Year)
	if err != nil {
		return p, fmt.Errorf("%w: year %q: %v", ErrMalformedPeriod, r.Year, err)
	}
	p.Year = year

	if level == PeriodYearQuarter {
		quarter, err := parseQuarter(r.Quarter)
		if err != nil {
			return p, fmt.Errorf("%w: quarter %q: %v", ErrMalformedPeriod, r.Quarter, err)
		}
		p.Quarter = quarter
	}

	return p, nil
}

func (p Period) key(level PeriodLevel) string {
	switch level {
	case PeriodYear:
		return strconv.Itoa(p.Year)
	case PeriodYearQuarter:
		return strconv.Itoa(p.Year) + "Q" + strconv.Itoa(p.Quarter)
	default:
		return ""
	}
}

// parseInt accepts integers and integral floats such as "2020.0", which is
// how many statistical exports write integer columns that contain gaps.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}

	return int(f), nil
}

func parseQuarter(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Q"), "q")

	q, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if q < 1 || q > 4 {
		return 0, fmt.Errorf("out of range 1-4")
	}

	return q, nil
}
