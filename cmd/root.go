package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/matchcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "fuzzymatch",
		Short: "Fuzzy entity-name matching between tabular datasets",
		Long: `Fuzzymatch links company or person names in one dataset to the closest
names in a reference dataset.

Names are reduced to canonical keys (legal forms, punctuation, titles and
word order removed), optionally restricted to the same fiscal year and
quarter, and scored with an edit-distance similarity. Every reference row
sharing the best key is reported.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if !cmd.Flags().Changed("log-level") {
				if env := os.Getenv(EnvLogLevel); env != "" {
					logLevel = env
				}
			}

			return setupLogging(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error), env "+EnvLogLevel)
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(matchcmd.NewMatchCmd())
	cmd.AddCommand(matchcmd.NewNormalizeCmd())
	cmd.AddCommand(matchcmd.NewInspectCmd())
	cmd.AddCommand(matchcmd.NewReportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
