package cmd

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/scrollab/askdocs/internal/config"
	"github.com/scrollab/askdocs/internal/embed"
	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

// backend bundles the resources shared by the ingest, serve and generate
// commands.
type backend struct {
	cfg      *config.Config
	logger   log.Logger
	genkit   *genkit.Genkit
	embedder *embed.GenkitEmbedder
	store    *index.Store
}

// setupBackend loads configuration, initializes Genkit with the Google AI
// plugin, migrates the schema and opens the store. withStore=false skips the
// database for commands that never touch it.
func setupBackend(ctx context.Context, logger log.Logger, withStore bool) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder, err := embed.New(g, cfg.EmbedderModel, logger)
	if err != nil {
		return nil, fmt.Errorf("resolving embedder: %w", err)
	}

	b := &backend{
		cfg:      cfg,
		logger:   logger,
		genkit:   g,
		embedder: embedder,
	}

	if withStore {
		if err := index.Migrate(cfg.PostgresURL(), logger); err != nil {
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
		store, err := index.Open(ctx, cfg.PostgresConnectionString(), logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to index: %w", err)
		}
		b.store = store
	}

	return b, nil
}

// Close releases the store connection.
func (b *backend) Close() {
	if b.store != nil {
		b.store.Close()
	}
}
