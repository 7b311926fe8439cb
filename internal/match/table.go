package match

import (
	"fmt"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
)

// Columns names the table columns holding each record attribute. Year and
// Quarter are optional; ID is optional on the query side.
type Columns struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Year    string `yaml:"year"`
	Quarter string `yaml:"quarter"`
}

// Validate checks the mapping against the table header. It reports structural
// problems only and never looks at cell values.
func (c Columns) Validate(t *dataset.Table, requireID bool) error {
	if t == nil || t.Len() == 0 {
		return ErrEmptyDataset
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name column not configured", ErrMissingColumn)
	}
	if requireID && c.ID == "" {
		return fmt.Errorf("%w: id column not configured", ErrMissingColumn)
	}
	if c.Quarter != "" && c.Year == "" {
		return fmt.Errorf("%w: quarter column %q configured without a year column", ErrMissingColumn, c.Quarter)
	}

	for _, col := range []string{c.ID, c.Name, c.Year, c.Quarter} {
		if col == "" {
			continue
		}
		if t.Index(col) < 0 {
			return fmt.Errorf("%w: %q (available: %v)", ErrMissingColumn, col, t.Columns)
		}
	}

	return nil
}

// Records validates the mapping and projects every table row onto a Record.
func Records(t *dataset.Table, c Columns, requireID bool) ([]Record, error) {
	if err := c.Validate(t, requireID); err != nil {
		return nil, err
	}

	idx := func(col string) int {
		if col == "" {
			return -1
		}
		return t.Index(col)
	}
	idCol, nameCol, yearCol, quarterCol := idx(c.ID), idx(c.Name), idx(c.Year), idx(c.Quarter)

	records := make([]Record, t.Len())
	for i := range records {
		records[i] = Record{
			ID:      t.Cell(i, idCol),
			Name:    t.Cell(i, nameCol),
			Year:    t.Cell(i, yearCol),
			Quarter: t.Cell(i, quarterCol),
		}
	}

	return records, nil
}
