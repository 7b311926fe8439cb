// Package matchcmd implements the fuzzymatch subcommands.
package matchcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/runner"
)

func executeMatch(ctx context.Context, cfg *config.Run, stdout, stderr io.Writer) error {
	if cfg.Workers == 0 {
		cfg.Workers = config.WorkersFromEnv()
	}

	slog.Info("Starting match run",
		"query", cfg.Query.Path,
		"reference", cfg.Reference.Path,
		"mode", cfg.Mode,
		"scorer", cfg.Scorer)

	var progress runner.Progress
	if cfg.Progress {
		progress = runner.NewBar(stderr, "matching")
	}

	summary, err := runner.Run(ctx, cfg, progress)
	if summary != nil {
		results.Print(stdout, summary)
	}
	if err != nil {
		return fmt.Errorf("match run failed: %w", err)
	}

	fmt.Fprintf(stdout, "\nResults saved to: %s\n", summary.Output)
	if cfg.Output.Summary != "" {
		fmt.Fprintf(stdout, "Summary saved to: %s\n", cfg.Output.Summary)
		fmt.Fprintf(stdout, "\nShow it again with:\n  fuzzymatch report %s\n", cfg.Output.Summary)
	}

	return nil
}
