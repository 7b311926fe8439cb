// Package dataset reads and writes the tabular files matched by fuzzymatch.
// Every format is loaded into a Table of string cells; an empty cell stands
// for a missing value.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is a header plus rows of string cells. Rows may be shorter than the
// header; missing trailing cells read as empty.
type Table struct {
	Columns []string
	Rows    [][]string

	// Literal marks columns whose JSONL values were numbers, booleans or
	// nested JSON rather than strings. The JSONL writer emits them unquoted.
	Literal map[string]bool
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row, col or "" when col is out of range.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Column returns a copy of the values of column name.
func (t *Table) Column(name string) ([]string, error) {
	col := t.Index(name)
	if col < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}

	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, col)
	}
	return values, nil
}

// SetColumn replaces the values of column name, appending the column when it
// does not exist yet. len(values) must equal Len().
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.Rows))
	}

	col := t.Index(name)
	if col < 0 {
		t.Columns = append(t.Columns, name)
		col = len(t.Columns) - 1
	}

	for i := range t.Rows {
		for len(t.Rows[i]) <= col {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i][col] = values[i]
	}

	return nil
}

// Format identifies a file encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
	FormatSQLite  Format = "sqlite"
)

// DetectFormat maps a file extension to its format.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".jsonl", ".json", ".ndjson":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".dta":
		return "", fmt.Errorf("unsupported file format: %s (convert Stata files to .csv or .parquet first)", ext)
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: .csv, .tsv, .jsonl, .parquet, .db, .sqlite)", ext)
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSONL, FormatParquet, FormatSQLite:
		return f, nil
	case "json", "ndjson":
		return FormatJSONL, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Extension returns the default file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatSQLite:
		return ".db"
	default:
		return "." + string(f)
	}
}
