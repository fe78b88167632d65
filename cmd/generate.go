package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrollab/askdocs/internal/answer"
	"github.com/scrollab/askdocs/internal/docgen"
)

var (
	flagGenerateOut string
	flagGenerateExt string
)

var generateCmd = &cobra.Command{
	Use:   "generate <directory>",
	Short: "Generate markdown documentation for a source tree",
	Long: `generate asks the model to document every matching source file under
the directory. The markdown files land in the output directory together with
an output.json manifest that can be fed back into ingestion.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(args[0])
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagGenerateOut, "out", "", "output directory (default from config)")
	generateCmd.Flags().StringVar(&flagGenerateExt, "ext", "", "source file extension (default from config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(root string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := setupBackend(ctx, logger, false)
	if err != nil {
		return err
	}

	outDir := b.cfg.DocgenOutputDir
	if flagGenerateOut != "" {
		outDir = flagGenerateOut
	}
	ext := b.cfg.DocgenExtension
	if flagGenerateExt != "" {
		ext = flagGenerateExt
	}

	model := answer.NewGenkitGenerator(b.genkit, b.cfg.FullModelName(), b.cfg.Temperature,
		logger.With("component", "docgen"))

	gen, err := docgen.New(model, docgen.Options{
		Extension: ext,
		OutputDir: outDir,
	}, logger)
	if err != nil {
		return fmt.Errorf("configuring generator: %w", err)
	}

	result, err := gen.Run(ctx, root)
	if err != nil {
		return err
	}

	fmt.Printf("Generated documentation for %d files in %s\n", result.Generated, outDir)
	if len(result.Failed) > 0 {
		paths := make([]string, 0, len(result.Failed))
		for path := range result.Failed {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		fmt.Printf("Failed %d files:\n", len(paths))
		for _, path := range paths {
			fmt.Printf("  %s: %v\n", path, result.Failed[path])
		}
	}
	return nil
}
