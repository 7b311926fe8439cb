// Package config holds the settings of one matching run. Values come from an
// optional YAML file, then environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/similarity"
	"gopkg.in/yaml.v3"
)

// EnvWorkers overrides the default worker count.
const EnvWorkers = "FUZZYMATCH_WORKERS"

// Side is one input dataset and its column mapping.
type Side struct {
	Path          string `yaml:"path"`
	Table         string `yaml:"table,omitempty"`
	Delimiter     string `yaml:"delimiter,omitempty"`
	match.Columns `yaml:",inline"`
}

// Source converts the side to a dataset source.
func (s Side) Source() dataset.Source {
	d, _ := utf8.DecodeRuneInString(s.Delimiter)
	if s.Delimiter == "" {
		d = 0
	}
	return dataset.Source{Path: s.Path, Table: s.Table, Delimiter: d}
}

// Output controls where results are written.
type Output struct {
	Path      string `yaml:"path,omitempty"`
	Format    string `yaml:"format,omitempty"`
	Table     string `yaml:"table,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty"`

	// Summary is an optional .yaml/.yml/.json file receiving run statistics.
	Summary string `yaml:"summary,omitempty"`
}

// Run is the complete configuration of a matching run.
type Run struct {
	Mode      string  `yaml:"mode"`
	Scorer    string  `yaml:"scorer,omitempty"`
	MinScore  float64 `yaml:"min_score,omitempty"`
	Workers   int     `yaml:"workers,omitempty"`
	Query     Side    `yaml:"query"`
	Reference Side    `yaml:"reference"`
	Output    Output  `yaml:"output,omitempty"`

	// Progress draws a progress bar on stderr. Not read from files.
	Progress bool `yaml:"-"`
}

// Default returns a run with defaults applied from the environment.
func Default() *Run {
	return &Run{
		Mode:    string(normalize.CompanyUS),
		Scorer:  similarity.ScorerRatio,
		Workers: WorkersFromEnv(),
	}
}

// WorkersFromEnv returns the worker count set in the environment, or 0.
func WorkersFromEnv() int {
	n, err := strconv.Atoi(os.Getenv(EnvWorkers))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Load reads a YAML run file on top of Default.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	r := Default()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return r, nil
}

// Save writes r as YAML.
func (r *Run) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports every structural problem found in r.
func (r *Run) Validate() error {
	var errs []error

	if _, err := normalize.ParseMode(r.Mode); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", match.ErrInvalidMode, err))
	}
	if _, err := similarity.ParseScorer(r.Scorer); err != nil {
		errs = append(errs, err)
	}
	if r.MinScore < 0 || r.MinScore > 100 {
		errs = append(errs, fmt.Errorf("min score %v outside [0, 100]", r.MinScore))
	}
	if r.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}

	errs = append(errs, r.Query.validate("query", false)...)
	errs = append(errs, r.Reference.validate("reference", true)...)

	if r.Output.Format != "" {
		if _, err := dataset.ParseFormat(r.Output.Format); err != nil {
			errs = append(errs, fmt.Errorf("output: %w", err))
		}
	}
	if utf8.RuneCountInString(r.Output.Delimiter) > 1 {
		errs = append(errs, fmt.Errorf("output: delimiter %q must be a single character", r.Output.Delimiter))
	}
	if s := r.Output.Summary; s != "" {
		switch strings.ToLower(filepath.Ext(s)) {
		case ".yaml", ".yml", ".json":
		default:
			errs = append(errs, fmt.Errorf("output: summary file %q must end in .yaml, .yml or .json", s))
		}
	}

	return errors.Join(errs...)
}

func (s Side) validate(name string, requireID bool) []error {
	var errs []error

	if s.Path == "" {
		errs = append(errs, fmt.Errorf("%s: path is required", name))
	} else if _, err := dataset.DetectFormat(s.Path); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%s: %w: name column not configured", name, match.ErrMissingColumn))
	}
	if requireID && s.ID == "" {
		errs = append(errs, fmt.Errorf("%s: %w: id column not configured", name, match.ErrMissingColumn))
	}
	if s.Quarter != "" && s.Year == "" {
		errs = append(errs, fmt.Errorf("%s: quarter column requires a year column", name))
	}
	if utf8.RuneCountInString(s.Delimiter) > 1 {
		errs = append(errs, fmt.Errorf("%s: delimiter %q must be a single character", name, s.Delimiter))
	}

	return errs
}

// ModeValue returns the parsed mode. Call Validate first.
func (r *Run) ModeValue() normalize.Mode {
	mode, _ := normalize.ParseMode(r.Mode)
	return mode
}

// Target resolves the output location. Without an explicit path the result
// is written next to the working directory as merge.<ext> in the query's format.
func (r *Run) Target() (dataset.Target, error) {
	var format dataset.Format
	var err error

	switch {
	case r.Output.Format != "":
		format, err = dataset.ParseFormat(r.Output.Format)
	case r.Output.Path != "":
		format, err = dataset.DetectFormat(r.Output.Path)
	default:
		format, err = dataset.DetectFormat(r.Query.Path)
	}
	if err != nil {
		return dataset.Target{}, err
	}

	path := r.Output.Path
	if path == "" {
		path = "merge" + format.Extension()
	}

	d, _ := utf8.DecodeRuneInString(r.Output.Delimiter)
	if r.Output.Delimiter == "" {
		d = 0
	}

	return dataset.Target{Path: path, Format: format, Table: r.Output.Table, Delimiter: d}, nil
}
