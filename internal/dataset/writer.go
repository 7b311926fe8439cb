package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultDelimiter separates CSV output fields.
const DefaultDelimiter = ';'

// DefaultTable is the SQLite output table name.
const DefaultTable = "merge"

// Target describes where and how a table is written.
type Target struct {
	Path      string
	Format    Format // empty: detect from Path
	Table     string // SQLite only
	Delimiter rune   // CSV only, zero selects DefaultDelimiter
}

// Write stores t at target, creating parent directories as needed.
func Write(ctx context.Context, t *Table, target Target) error {
	format := target.Format
	if format == "" {
		f, err := DetectFormat(target.Path)
		if err != nil {
			return err
		}
		format = f
	}

	if dir := filepath.Dir(target.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if format == FormatSQLite {
		table := target.Table
		if table == "" {
			table = DefaultTable
		}
		return writeSQLite(ctx, t, target.Path, table)
	}

	file, err := os.Create(target.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatCSV:
		err = writeCSV(t, file, target.Delimiter)
	case FormatJSONL:
		err = writeJSONL(t, file)
	case FormatParquet:
		err = writeParquet(t, file)
	default:
		err = fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}

	return file.Close()
}

func writeCSV(t *Table, w io.Writer, delimiter rune) error {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(t.Columns))
	for r := range t.Rows {
		for i := range t.Columns {
			row[i] = t.Cell(r, i)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeJSONL writes one object per row with keys in column order. Empty
// cells are written as null. Cells of Literal columns are written as raw
// JSON when they parse as JSON; everything else is a string.
func writeJSONL(t *Table, w io.Writer) error {
	bw := bufio.NewWriter(w)

	keys := make([][]byte, len(t.Columns))
	literal := make([]bool, len(t.Columns))
	for i, c := range t.Columns {
		literal[i] = t.Literal[c]
		k, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode column name %q: %w", c, err)
		}
		keys[i] = k
	}

	for r := range t.Rows {
		_ = bw.WriteByte('{')
		for i := range t.Columns {
			if i > 0 {
				_ = bw.WriteByte(',')
			}
			_, _ = bw.Write(keys[i])
			_ = bw.WriteByte(':')

			cell := t.Cell(r, i)
			if cell == "" {
				_, _ = bw.WriteString("null")
				continue
			}
			if literal[i] && json.Valid([]byte(cell)) {
				_, _ = bw.WriteString(cell)
				continue
			}
			v, err := json.Marshal(cell)
			if err != nil {
				return fmt.Errorf("failed to encode row %d: %w", r, err)
			}
			_, _ = bw.Write(v)
		}
		_, _ = bw.WriteString("}\n")
	}

	return bw.Flush()
}
