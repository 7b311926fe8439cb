package matchcmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
)

type inspectOptions struct {
	path  string
	table string
	limit int
	name  string
	mode  string
}

// maxCellWidth truncates long cells in the preview.
const maxCellWidth = 40

func executeInspect(ctx context.Context, w io.Writer, opts inspectOptions) error {
	var mode normalize.Mode
	if opts.name != "" {
		m, err := normalize.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		mode = m
	}

	loader := dataset.NewLoader(dataset.Source{Path: opts.path, Table: opts.table})

	var table *dataset.Table
	var err error
	if opts.limit > 0 {
		table, err = loader.LoadSample(ctx, opts.limit)
	} else {
		table, err = loader.Load(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	nameCol := -1
	if opts.name != "" {
		if nameCol = table.Index(opts.name); nameCol < 0 {
			return fmt.Errorf("column %q not found (available: %s)", opts.name, strings.Join(table.Columns, ", "))
		}
	}

	fmt.Fprintf(w, "Loaded %d rows from %s\n", table.Len(), opts.path)
	fmt.Fprintf(w, "Columns (%d): %s\n", len(table.Columns), strings.Join(table.Columns, ", "))
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for i := range table.Rows {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "ROW %d/%d\n", i+1, table.Len())
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for c, col := range table.Columns {
			fmt.Fprintf(w, "%-20s %s\n", truncate(col, 20)+":", truncate(table.Cell(i, c), maxCellWidth))
		}
		if nameCol >= 0 {
			fmt.Fprintf(w, "%-20s %s\n", "key ("+mode.String()+"):", normalize.Normalize(table.Cell(i, nameCol), mode))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
