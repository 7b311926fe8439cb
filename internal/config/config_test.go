package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mode: Firm (Int)
scorer: jaro-winkler
min_score: 80
workers: 3
query:
  path: execucomp.csv
  id: co_per_rol
  name: coname
  year: year
reference:
  path: compustat.parquet
  id: gvkey
  name: conm
  year: fyear
  quarter: fqtr
output:
  path: out/merge.jsonl
  summary: out/summary.yaml
`

func validRun() *Run {
	r := Default()
	r.Query = Side{Path: "q.csv", Columns: match.Columns{Name: "name"}}
	r.Reference = Side{Path: "r.csv", Columns: match.Columns{ID: "id", Name: "name"}}
	return r
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	r, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	assert.Equal(t, normalize.CompanyInternational, r.ModeValue())
	assert.Equal(t, "jaro-winkler", r.Scorer)
	assert.Equal(t, 80.0, r.MinScore)
	assert.Equal(t, 3, r.Workers)
	assert.Equal(t, "coname", r.Query.Name)
	assert.Equal(t, "fqtr", r.Reference.Quarter)
	assert.Empty(t, r.Query.Quarter)
	assert.Equal(t, match.PeriodYear, match.ResolvePeriodLevel(r.Query.Columns, r.Reference.Columns))

	target, err := r.Target()
	require.NoError(t, err)
	assert.Equal(t, dataset.FormatJSONL, target.Format)
	assert.Equal(t, "out/merge.jsonl", target.Path)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [unterminated"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	r := validRun()
	r.Reference.Year = "fyear"

	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.Reference, loaded.Reference)
	assert.Equal(t, r.Mode, loaded.Mode)
}

func TestDefaultReadsWorkersFromEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "6")
	assert.Equal(t, 6, Default().Workers)

	t.Setenv(EnvWorkers, "many")
	assert.Equal(t, 0, Default().Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Run)
		wantErr string
		is      error
	}{
		{name: "valid", mutate: func(r *Run) {}},
		{name: "bad mode", mutate: func(r *Run) { r.Mode = "firm" }, is: match.ErrInvalidMode},
		{name: "bad scorer", mutate: func(r *Run) { r.Scorer = "soundex" }, wantErr: "unknown scorer"},
		{name: "min score too high", mutate: func(r *Run) { r.MinScore = 101 }, wantErr: "min score"},
		{name: "negative workers", mutate: func(r *Run) { r.Workers = -1 }, wantErr: "workers"},
		{name: "missing query path", mutate: func(r *Run) { r.Query.Path = "" }, wantErr: "query: path is required"},
		{name: "stata input", mutate: func(r *Run) { r.Reference.Path = "r.dta" }, wantErr: "Stata"},
		{name: "missing reference id", mutate: func(r *Run) { r.Reference.ID = "" }, is: match.ErrMissingColumn},
		{name: "missing query name", mutate: func(r *Run) { r.Query.Name = "" }, is: match.ErrMissingColumn},
		{name: "quarter without year", mutate: func(r *Run) { r.Query.Quarter = "q" }, wantErr: "requires a year"},
		{name: "long delimiter", mutate: func(r *Run) { r.Query.Delimiter = ";;" }, wantErr: "single character"},
		{name: "bad output format", mutate: func(r *Run) { r.Output.Format = "xlsx" }, wantErr: "unknown format"},
		{name: "bad summary extension", mutate: func(r *Run) { r.Output.Summary = "summary.txt" }, wantErr: "summary file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRun()
			tt.mutate(r)
			err := r.Validate()

			switch {
			case tt.is != nil:
				assert.ErrorIs(t, err, tt.is)
			case tt.wantErr != "":
				assert.ErrorContains(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	r := &Run{Mode: "nope"}
	err := r.Validate()
	require.Error(t, err)

	assert.ErrorContains(t, err, "query: path is required")
	assert.ErrorContains(t, err, "reference: path is required")
	assert.ErrorIs(t, err, match.ErrInvalidMode)
}

func TestTargetDefaults(t *testing.T) {
	r := validRun()
	target, err := r.Target()
	require.NoError(t, err)
	assert.Equal(t, "merge.csv", target.Path)
	assert.Equal(t, dataset.FormatCSV, target.Format)
	assert.Equal(t, rune(0), target.Delimiter)

	r.Query.Path = "q.parquet"
	target, err = r.Target()
	require.NoError(t, err)
	assert.Equal(t, "merge.parquet", target.Path)

	r.Output = Output{Format: "sqlite", Table: "links", Delimiter: ","}
	target, err = r.Target()
	require.NoError(t, err)
	assert.Equal(t, "merge.db", target.Path)
	assert.Equal(t, "links", target.Table)
	assert.Equal(t, ',', target.Delimiter)
}

func TestSideSource(t *testing.T) {
	s := Side{Path: "a.csv", Delimiter: "\t"}
	assert.Equal(t, dataset.Source{Path: "a.csv", Delimiter: '\t'}, s.Source())

	s = Side{Path: "a.db", Table: "firms"}
	assert.Equal(t, dataset.Source{Path: "a.db", Table: "firms"}, s.Source())
}
