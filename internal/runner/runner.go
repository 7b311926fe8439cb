// Package runner executes a complete matching run: it loads both datasets,
// matches every query row and writes the query table extended with the
// match columns.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/similarity"
	"golang.org/x/sync/errgroup"
)

// Output column names. Reference columns are prefixed with ColumnPrefix.
const (
	ColumnPrefix = "nn_"
	ColumnMatch  = ColumnPrefix + "match"
	ColumnScore  = ColumnPrefix + "score"
	NormSuffix   = "_norm"
)

// Progress receives row completion updates. Add is never called concurrently.
type Progress interface {
	Start(total int)
	Add(n int)
	Finish()
}

// Run executes cfg. A cancelled ctx abandons the run between rows; nothing is
// written and the returned summary reports the rows processed so far.
func Run(ctx context.Context, cfg *config.Run, progress Progress) (*results.Summary, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scorer, err := similarity.ParseScorer(cfg.Scorer)
	if err != nil {
		return nil, err
	}

	target, err := cfg.Target()
	if err != nil {
		return nil, err
	}

	queryTable, referenceTable, err := loadTables(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queryRecords, err := match.Records(queryTable, cfg.Query.Columns, false)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	referenceRecords, err := match.Records(referenceTable, cfg.Reference.Columns, true)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	level := match.ResolvePeriodLevel(cfg.Query.Columns, cfg.Reference.Columns)

	opts := match.Options{
		Mode:     cfg.ModeValue(),
		Level:    level,
		Scorer:   scorer,
		MinScore: cfg.MinScore,
		Workers:  cfg.Workers,
	}
	if progress != nil {
		opts.Progress = func() { progress.Add(1) }
	}

	engine, err := match.NewEngine(referenceRecords, opts)
	if err != nil {
		return nil, err
	}

	slog.Info("Matching rows", "rows", len(queryRecords), "reference_rows", len(referenceRecords), "workers", cfg.Workers)
	if progress != nil {
		progress.Start(len(queryRecords))
	}
	res, matchErr := engine.Match(ctx, queryRecords)
	if progress != nil {
		progress.Finish()
	}

	summary := results.Summarize(res)
	summary.Mode = cfg.ModeValue().String()
	summary.Scorer = cfg.Scorer
	summary.PeriodLevel = level.String()
	summary.ReferenceRows = len(referenceRecords)
	summary.StartedAt = started

	if matchErr != nil {
		summary.Duration = time.Since(started)
		if errors.Is(matchErr, context.Canceled) || errors.Is(matchErr, context.DeadlineExceeded) {
			summary.Cancelled = true
			slog.Warn("Run abandoned, no output written", "processed", summary.Processed, "rows", summary.QueryRows)
		}
		return summary, matchErr
	}

	if err := Attach(queryTable, cfg.Query.Columns, cfg.Reference.Columns, res); err != nil {
		return nil, err
	}

	slog.Info("Writing output", "path", target.Path, "format", target.Format)
	if err := dataset.Write(ctx, queryTable, target); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	summary.Output = target.Path
	summary.Duration = time.Since(started)

	if cfg.Output.Summary != "" {
		if err := results.Save(cfg.Output.Summary, summary); err != nil {
			return summary, err
		}
	}

	slog.Info("Run complete", "matched", summary.Matched, "unmatched", summary.Unmatched, "failed", summary.Failed, "duration", summary.Duration)

	return summary, nil
}

func loadTables(ctx context.Context, cfg *config.Run) (query, reference *dataset.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := dataset.NewLoader(cfg.Query.Source()).Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load query dataset: %w", err)
		}
		query = t
		slog.Info("Query dataset loaded", "path", cfg.Query.Path, "rows", t.Len())
		return nil
	})
	g.Go(func() error {
		t, err := dataset.NewLoader(cfg.Reference.Source()).Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load reference dataset: %w", err)
		}
		reference = t
		slog.Info("Reference dataset loaded", "path", cfg.Reference.Path, "rows", t.Len())
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return query, reference, nil
}

// Attach adds the match columns to the query table: <name>_norm with the
// query key, nn_match with the matched reference key, nn_score, and the
// aggregated reference id and name as nn_<id> and nn_<name>. Unmatched rows
// get empty cells. Existing columns with the same names are overwritten.
func Attach(t *dataset.Table, query, reference match.Columns, res []match.Result) error {
	if len(res) != t.Len() {
		return fmt.Errorf("have %d results for %d rows", len(res), t.Len())
	}

	norm := make([]string, len(res))
	keys := make([]string, len(res))
	scores := make([]string, len(res))
	ids := make([]string, len(res))
	names := make([]string, len(res))

	for i, r := range res {
		norm[i] = r.QueryKey
		if !r.Matched {
			continue
		}
		keys[i] = r.MatchKey
		scores[i] = strconv.FormatFloat(r.Score, 'f', 2, 64)
		ids[i] = r.ID()
		names[i] = r.Name()
	}

	columns := []struct {
		name   string
		values []string
	}{
		{query.Name + NormSuffix, norm},
		{ColumnMatch, keys},
		{ColumnScore, scores},
		{ColumnPrefix + reference.ID, ids},
		{ColumnPrefix + reference.Name, names},
	}
	for _, c := range columns {
		if err := t.SetColumn(c.name, c.values); err != nil {
			return fmt.Errorf("failed to attach column %s: %w", c.name, err)
		}
	}

	return nil
}
