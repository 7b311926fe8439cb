package matchcmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/normalize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewMatchCmd creates the match command
func NewMatchCmd() *cobra.Command {
	var configPath string
	var noProgress bool
	flagged := config.Default()

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match query names against a reference dataset",
		Long: `Match every row of a query dataset to the reference row with the most similar
canonical name key.

Names on both sides are normalized (legal forms, punctuation, titles and
word order removed depending on --mode) before scoring. When both datasets
configure a year column, only reference rows from the same year are
considered; with year and quarter on both sides the quarter must match too.

The query dataset is written back with five extra columns: <name>_norm,
nn_match, nn_score, nn_<reference id> and nn_<reference name>. When several
reference rows share the best key their ids and names are joined with ", ".

Settings can be read from a YAML file with --config; flags given on the
command line override the file.`,
		Example: `  # Link ExecuComp firms to Compustat by fiscal year and quarter
  fuzzymatch match \
    --query execucomp.csv --query-name coname --query-year year --query-quarter qtr \
    --reference compustat.parquet --reference-id gvkey --reference-name conm \
    --reference-year fyear --reference-quarter fqtr

  # Person names, JSON summary, no progress bar
  fuzzymatch match --mode person --query people.csv --query-name name \
    --reference directors.db --reference-table directors \
    --reference-id director_id --reference-name full_name \
    --summary summary.json --no-progress

  # Run from a YAML file and override the output
  fuzzymatch match --config run.yaml --output links.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flagged
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if err := overrideChanged(cmd.Flags(), loaded); err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.Progress = !noProgress

			return executeMatch(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML run file")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")
	bindRunFlags(cmd.Flags(), flagged)

	return cmd
}

func bindRunFlags(fs *pflag.FlagSet, r *config.Run) {
	fs.StringVarP(&r.Mode, "mode", "m", r.Mode, "Normalization mode (company-us, company-int, person)")
	fs.StringVar(&r.Scorer, "scorer", r.Scorer, "Similarity scorer (ratio, levenshtein, jaro-winkler)")
	fs.Float64Var(&r.MinScore, "min-score", r.MinScore, "Minimum score (0-100) for a candidate to count as a match")
	fs.IntVarP(&r.Workers, "workers", "w", r.Workers, "Parallel workers (0 uses all CPUs, env "+config.EnvWorkers+")")

	bindSideFlags(fs, "query", &r.Query)
	bindSideFlags(fs, "reference", &r.Reference)

	fs.StringVarP(&r.Output.Path, "output", "o", r.Output.Path, "Output file (default merge.<query extension>)")
	fs.StringVar(&r.Output.Format, "output-format", r.Output.Format, "Output format (csv, jsonl, parquet, sqlite)")
	fs.StringVar(&r.Output.Table, "output-table", r.Output.Table, "SQLite output table (default merge)")
	fs.StringVar(&r.Output.Delimiter, "output-delimiter", r.Output.Delimiter, "CSV output delimiter (default ;)")
	fs.StringVar(&r.Output.Summary, "summary", r.Output.Summary, "Write run statistics to a .yaml or .json file")
}

func bindSideFlags(fs *pflag.FlagSet, side string, s *config.Side) {
	fs.StringVar(&s.Path, side, s.Path, fmt.Sprintf("Path to the %s dataset", side))
	fs.StringVar(&s.Table, side+"-table", s.Table, "SQLite table (required when the database has several)")
	fs.StringVar(&s.Delimiter, side+"-delimiter", s.Delimiter, "CSV delimiter (sniffed when empty)")
	fs.StringVar(&s.ID, side+"-id", s.ID, "Identifier column")
	fs.StringVar(&s.Name, side+"-name", s.Name, "Name column")
	fs.StringVar(&s.Year, side+"-year", s.Year, "Year column (enables period filtering)")
	fs.StringVar(&s.Quarter, side+"-quarter", s.Quarter, "Quarter column (requires a year column)")
}

// overrideChanged copies every flag set on the command line onto r.
func overrideChanged(flags *pflag.FlagSet, r *config.Run) error {
	target := pflag.NewFlagSet("override", pflag.ContinueOnError)
	bindRunFlags(target, r)

	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil || target.Lookup(f.Name) == nil {
			return
		}
		err = target.Set(f.Name, f.Value.String())
	})

	return err
}

// NewNormalizeCmd creates the normalize command
func NewNormalizeCmd() *cobra.Command {
	var mode string
	var trace bool

	cmd := &cobra.Command{
		Use:   "normalize [name...]",
		Short: "Print the canonical key of names",
		Long: `Print the canonical key of each name given as an argument, or of each line
read from stdin when no arguments are given. Output is tab separated: the
original name followed by its key.

With --trace every rewrite step is printed, which helps explain why two
names did or did not end up with the same key.`,
		Example: `  fuzzymatch normalize "The Acme Corp" "ACME Company"

  fuzzymatch normalize --mode person --trace "Smith, John Q CFA"

  cut -d, -f2 firms.csv | fuzzymatch normalize --mode company-int`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := normalize.ParseMode(mode)
			if err != nil {
				return err
			}
			return executeNormalize(cmd.InOrStdin(), cmd.OutOrStdout(), m, args, trace)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(normalize.CompanyUS), "Normalization mode (company-us, company-int, person)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print the value after every rewrite step")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <dataset>",
		Short: "Inspect the columns and first rows of a dataset",
		Long: `Inspect a csv, jsonl, parquet or sqlite dataset before matching.

Prints the columns, the rows loaded and a preview of the first rows. With
--name the canonical key of that column is shown next to each row, which is
useful for checking a mode against real data.`,
		Example: `  # Show the first 10 rows
  fuzzymatch inspect compustat.parquet

  # Preview keys of the conm column under the international rules
  fuzzymatch inspect compustat.parquet --name conm --mode company-int --limit 25

  # Inspect one table of a SQLite database
  fuzzymatch inspect links.db --table merge`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			return executeInspect(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Number of rows to show (0 for all)")
	cmd.Flags().StringVar(&opts.table, "table", "", "SQLite table")
	cmd.Flags().StringVar(&opts.name, "name", "", "Name column to preview canonical keys for")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(normalize.CompanyUS), "Normalization mode used with --name")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <summary file>",
		Short: "Print a saved run summary",
		Long: `Print a run summary written by "fuzzymatch match --summary" as text, JSON
or YAML.`,
		Example: `  fuzzymatch report summary.yaml

  fuzzymatch report summary.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")

	return cmd
}
