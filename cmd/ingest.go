package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrollab/askdocs/internal/ingest"
)

var (
	flagIngestNamespace string
	flagIngestReset     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Index a documentation tree into the vector store",
	Long: `ingest walks the directory, splits matching files into overlapping
chunks, embeds them and upserts them into the index. Chunk identifiers are
derived from file path and offset, so re-running over an unchanged tree is a
no-op for the queryable content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVar(&flagIngestNamespace, "namespace", "", "index namespace (default from config)")
	ingestCmd.Flags().BoolVar(&flagIngestReset, "reset", false, "delete the namespace before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(root string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := setupBackend(ctx, logger, true)
	if err != nil {
		return err
	}
	defer b.Close()

	namespace := b.cfg.Namespace
	if flagIngestNamespace != "" {
		namespace = flagIngestNamespace
	}

	if flagIngestReset {
		deleted, err := b.store.DeleteNamespace(ctx, namespace)
		if err != nil {
			return fmt.Errorf("resetting namespace: %w", err)
		}
		logger.Info("namespace reset", "namespace", namespace, "deleted", deleted)
	}

	pipeline, err := ingest.New(b.embedder, b.store, ingest.Options{
		Extensions: b.cfg.FileExtensions,
		ChunkSize:  b.cfg.ChunkSize,
		Overlap:    b.cfg.ChunkOverlap,
		Namespace:  namespace,
		Workers:    b.cfg.IngestWorkers,
	}, logger)
	if err != nil {
		return fmt.Errorf("configuring pipeline: %w", err)
	}

	result, err := pipeline.Run(ctx, root)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d documents (%d chunks) into namespace %q\n",
		result.Documents, result.Chunks, namespace)
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d files with non-matching extensions\n", result.Skipped)
	}
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
