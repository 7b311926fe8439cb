package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// loadParquet loads a flat Parquet file. Nested leaf columns are addressed
// by their dotted path and repeated values are joined with ",".
func (l *Loader) loadParquet(limit int) (*Table, error) {
	slog.Debug("Opening Parquet file", "path", l.source.Path)

	file, err := os.Open(l.source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	// Get file info for size
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	t := &Table{}
	for _, path := range pf.Schema().Columns() {
		t.Columns = append(t.Columns, strings.Join(path, "."))
	}

	buf := make([]parquet.Row, 128) // Read in batches
	for _, rg := range pf.RowGroups() {
		if limit > 0 && t.Len() >= limit {
			break
		}
		if err := readRowGroup(t, rg, buf, limit); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func readRowGroup(t *Table, rg parquet.RowGroup, buf []parquet.Row, limit int) error {
	rows := rg.Rows()
	defer rows.Close()

	for limit <= 0 || t.Len() < limit {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			if limit > 0 && t.Len() >= limit {
				break
			}
			t.Rows = append(t.Rows, rowToCells(row, len(t.Columns)))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return nil
}

func rowToCells(row parquet.Row, width int) []string {
	cells := make([]string, width)
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= width || v.IsNull() {
			continue
		}
		s := valueString(v)
		if cells[col] != "" {
			s = cells[col] + "," + s
		}
		cells[col] = s
	}
	return cells
}

func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return fmt.Sprint(v)
	}
}

// writeParquet writes every column as an optional UTF-8 string; empty cells
// are stored as nulls.
func writeParquet(t *Table, w io.Writer) error {
	group := make(parquet.Group, len(t.Columns))
	for _, c := range t.Columns {
		if _, dup := group[c]; dup {
			return fmt.Errorf("duplicate column %q cannot be written to parquet", c)
		}
		group[c] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("fuzzymatch", group)

	// Group fields are stored in name order, so map each table column to its leaf index.
	leaf := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		col, ok := schema.Lookup(c)
		if !ok {
			return fmt.Errorf("column %q missing from parquet schema", c)
		}
		leaf[i] = col.ColumnIndex
	}

	writer := parquet.NewWriter(w, schema)

	rows := make([]parquet.Row, 0, len(t.Rows))
	for r := range t.Rows {
		row := make(parquet.Row, len(t.Columns))
		for i := range t.Columns {
			if cell := t.Cell(r, i); cell != "" {
				row[leaf[i]] = parquet.ByteArrayValue([]byte(cell)).Level(0, 1, leaf[i])
			} else {
				row[leaf[i]] = parquet.Value{}.Level(0, 0, leaf[i])
			}
		}
		rows = append(rows, row)
	}

	if _, err := writer.WriteRows(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return nil
}
