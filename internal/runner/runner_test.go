package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryCSV = `co_per_rol,coname,year,qtr
1,The Acme Corp,2020,1
2,Beta Holdings Inc,2020,1
3,Gamma LLC,2021,2
4,,2020,1
5,Delta,twenty,1
`

const referenceCSV = `gvkey;conm;fyear;fqtr
42;ACME Company;2020;1
43;Acme Corp;2020;1
44;Acme Inc;2019;1
50;Beta Holdings;2020;1
60;Gamma;2021;3
`

func writeInputs(t *testing.T) (dir string, cfg *config.Run) {
	t.Helper()
	dir = t.TempDir()

	q := filepath.Join(dir, "execucomp.csv")
	r := filepath.Join(dir, "compustat.csv")
	require.NoError(t, os.WriteFile(q, []byte(queryCSV), 0644))
	require.NoError(t, os.WriteFile(r, []byte(referenceCSV), 0644))

	cfg = config.Default()
	cfg.Workers = 2
	cfg.Query = config.Side{Path: q, Columns: match.Columns{ID: "co_per_rol", Name: "coname", Year: "year", Quarter: "qtr"}}
	cfg.Reference = config.Side{Path: r, Columns: match.Columns{ID: "gvkey", Name: "conm", Year: "fyear", Quarter: "fqtr"}}
	cfg.Output = config.Output{Path: filepath.Join(dir, "out", "merge.csv")}

	return dir, cfg
}

func loadOutput(t *testing.T, path string) *dataset.Table {
	t.Helper()
	table, err := dataset.NewLoader(dataset.Source{Path: path, Table: dataset.DefaultTable}).Load(context.Background())
	require.NoError(t, err)
	return table
}

func column(t *testing.T, table *dataset.Table, name string) []string {
	t.Helper()
	values, err := table.Column(name)
	require.NoError(t, err)
	return values
}

func TestRun(t *testing.T) {
	_, cfg := writeInputs(t)
	counter := &Counter{}

	summary, err := Run(context.Background(), cfg, counter)
	require.NoError(t, err)

	out := loadOutput(t, cfg.Output.Path)
	assert.Equal(t, []string{
		"co_per_rol", "coname", "year", "qtr",
		"coname_norm", "nn_match", "nn_score", "nn_gvkey", "nn_conm",
	}, out.Columns)

	assert.Equal(t, []string{"acme", "beta", "gamma", "", "delta"}, column(t, out, "coname_norm"))
	assert.Equal(t, []string{"acme", "beta", "", "", ""}, column(t, out, "nn_match"))
	assert.Equal(t, []string{"100.00", "100.00", "", "", ""}, column(t, out, "nn_score"))
	assert.Equal(t, []string{"42, 43", "50", "", "", ""}, column(t, out, "nn_gvkey"))
	assert.Equal(t, []string{"ACME Company, Acme Corp", "Beta Holdings", "", "", ""}, column(t, out, "nn_conm"))

	assert.Equal(t, 5, summary.QueryRows)
	assert.Equal(t, 5, summary.ReferenceRows)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 2, summary.Unmatched)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.MultiMatches)
	assert.Equal(t, "year+quarter", summary.PeriodLevel)
	assert.Equal(t, cfg.Output.Path, summary.Output)

	done, total := counter.Snapshot()
	assert.Equal(t, 5, done)
	assert.Equal(t, 5, total)
}

func TestRunYearOnlyAndJSONLOutput(t *testing.T) {
	dir, cfg := writeInputs(t)
	cfg.Query.Quarter = ""
	cfg.Output = config.Output{
		Path:    filepath.Join(dir, "merge.jsonl"),
		Summary: filepath.Join(dir, "summary.yaml"),
	}

	summary, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "year", summary.PeriodLevel)

	out := loadOutput(t, cfg.Output.Path)
	assert.Equal(t, "60", out.Cell(2, out.Index("nn_gvkey")))

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nn_score":null`)

	saved, err := results.Load(cfg.Output.Summary)
	require.NoError(t, err)
	assert.Equal(t, summary.Matched, saved.Matched)
}

func TestRunWithoutPeriods(t *testing.T) {
	_, cfg := writeInputs(t)
	cfg.Query.Year, cfg.Query.Quarter = "", ""
	cfg.Output.Format = "sqlite"
	cfg.Output.Path = strings.TrimSuffix(cfg.Output.Path, ".csv") + ".db"

	summary, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", summary.PeriodLevel)

	out := loadOutput(t, cfg.Output.Path)
	assert.Equal(t, "42, 43, 44", out.Cell(0, out.Index("nn_gvkey")))
}

func TestRunStructuralFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Run)
		is     error
	}{
		{name: "missing column", mutate: func(cfg *config.Run) { cfg.Reference.Name = "company" }, is: match.ErrMissingColumn},
		{name: "invalid mode", mutate: func(cfg *config.Run) { cfg.Mode = "firm" }, is: match.ErrInvalidMode},
		{name: "empty reference", mutate: func(cfg *config.Run) {
			require.NoError(t, os.WriteFile(cfg.Reference.Path, []byte("gvkey;conm;fyear;fqtr\n"), 0644))
		}, is: match.ErrEmptyDataset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := writeInputs(t)
			tt.mutate(cfg)

			summary, err := Run(context.Background(), cfg, nil)
			assert.ErrorIs(t, err, tt.is)
			assert.Nil(t, summary)
			assert.NoFileExists(t, cfg.Output.Path)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	_, cfg := writeInputs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Run(ctx, cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 0, summary.Processed)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestAttachOverwritesExistingColumns(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"name", "nn_score"},
		Rows:    [][]string{{"Acme", "stale"}},
	}
	res := []match.Result{{Row: 0, QueryKey: "acme", Matched: true, MatchKey: "acme", Score: 87.456, IDs: []string{"7"}, Names: []string{"Acme"}}}

	require.NoError(t, Attach(table, match.Columns{Name: "name"}, match.Columns{ID: "id", Name: "conm"}, res))

	assert.Equal(t, []string{"name", "nn_score", "name_norm", "nn_match", "nn_id", "nn_conm"}, table.Columns)
	assert.Equal(t, "87.46", table.Cell(0, 1))
	assert.Equal(t, "7", table.Cell(0, table.Index("nn_id")))

	assert.Error(t, Attach(table, match.Columns{Name: "name"}, match.Columns{ID: "id", Name: "conm"}, nil))
}

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, "matching")

	bar.Add(1)
	bar.Start(3)
	for range 3 {
		bar.Add(1)
	}
	bar.Finish()

	assert.Contains(t, buf.String(), "matching")
}
