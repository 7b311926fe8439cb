// Package match links query records to the best-matching reference records
// by canonical name key, optionally restricted to the same reporting period.
package match

import (
	"errors"
	"strings"
)

var (
	ErrEmptyDataset    = errors.New("dataset has no rows")
	ErrMissingColumn   = errors.New("column not found")
	ErrInvalidMode     = errors.New("invalid normalization mode")
	ErrMalformedPeriod = errors.New("malformed period")
)

// Record is one row of a dataset as seen by the engine. Year and Quarter
// hold the raw period cell values and are ignored when the run does not
// filter by period.
type Record struct {
	Name    string
	ID      string
	Year    string
	Quarter string
}

// Result is the outcome for one query record. A result with Matched false
// has no key, score, ids or names; Err carries the row-level reason when the
// row could not be scored at all.
type Result struct {
	Row      int
	QueryKey string
	Matched  bool
	MatchKey string
	Score    float64
	IDs      []string
	Names    []string
	Err      error

	processed bool
}

// Processed reports whether the row was reached before the run ended.
func (r Result) Processed() bool {
	return r.processed
}

// ID renders the aggregated reference identifiers: the value itself when a
// single reference row shares the key, a ", " joined list otherwise.
func (r Result) ID() string {
	return render(r.IDs)
}

// Name renders the aggregated reference names like ID.
func (r Result) Name() string {
	return render(r.Names)
}

// Multi reports whether more than one reference row shares the matched key.
func (r Result) Multi() bool {
	return len(r.IDs) > 1
}

func render(values []string) string {
	if len(values) == 1 {
		return values[0]
	}
	return strings.Join(values, ", ")
}
