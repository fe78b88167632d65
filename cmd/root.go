// Package cmd wires the askdocs CLI: ingest a documentation corpus, serve
// the answer API, chat against a running server, and batch-generate docs.
package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scrollab/askdocs/internal/log"
)

var (
	flagVerbose  bool
	flagJSONLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Retrieval-augmented Q&A over a documentation corpus",
	Long: `askdocs indexes a documentation tree into a pgvector store and answers
questions about it with streamed, cited responses.

Typical usage:

  askdocs ingest ./docs        index a documentation tree
  askdocs serve                start the answer API
  askdocs chat                 talk to a running server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// bare invocation drops into chat
		return runChat()
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "emit logs as JSON")
}

// newLogger builds the process logger from the global flags. Logs go to
// stderr so stdout stays clean for command output.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level: level,
		JSON:  flagJSONLogs,
	})
}
