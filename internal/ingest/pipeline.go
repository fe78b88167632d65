// Package ingest runs the indexing pipeline: load documents, split them into
// chunks, embed the chunks and upsert them into the vector index.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scrollab/askdocs/internal/corpus"
	"github.com/scrollab/askdocs/internal/embed"
	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

// Store is the index surface the pipeline writes to.
type Store interface {
	Upsert(ctx context.Context, records []index.Record) error
}

// Result summarizes one ingestion run.
type Result struct {
	// Documents is the number of files successfully ingested.
	Documents int
	// Chunks is the total number of chunks written to the index.
	Chunks int
	// Skipped counts files whose extension did not match.
	Skipped int
	// Failed maps paths to the error that prevented their ingestion. Load
	// and per-document failures both land here.
	Failed map[string]error
}

// Options configures a Pipeline.
type Options struct {
	Extensions []string
	ChunkSize  int
	Overlap    int
	Namespace  string
	// Workers bounds the number of documents processed concurrently.
	// Values below 1 run sequentially.
	Workers int
}

// Pipeline ingests a documentation tree into the vector index.
type Pipeline struct {
	loader   *corpus.Loader
	chunker  *corpus.Chunker
	embedder embed.Embedder
	store    Store
	opts     Options
	logger   log.Logger
}

// New builds a Pipeline. Chunk geometry is validated here so a
// misconfiguration fails before any file is touched.
func New(embedder embed.Embedder, store Store, opts Options, logger log.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("namespace must not be empty")
	}

	chunker, err := corpus.NewChunker(opts.ChunkSize, opts.Overlap)
	if err != nil {
		return nil, fmt.Errorf("configuring chunker: %w", err)
	}

	return &Pipeline{
		loader:   corpus.NewLoader(opts.Extensions, logger),
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Run ingests all matching files under root. Documents are processed by a
// bounded worker pool; a failure in one document is recorded and does not
// stop the others. Run returns an error only when the corpus itself cannot
// be loaded or the context is canceled.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	loaded, err := p.loader.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	result := &Result{
		Skipped: loaded.Skipped,
		Failed:  make(map[string]error, len(loaded.Failed)),
	}
	for path, loadErr := range loaded.Failed {
		result.Failed[path] = loadErr
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for _, doc := range loaded.Documents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := p.ingestDocument(gctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Context errors abort the run; anything else is contained
				// to this document.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn("document ingestion failed", "path", doc.Path, "error", err)
				result.Failed[doc.Path] = err
				return nil
			}
			result.Documents++
			result.Chunks += chunks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingesting corpus: %w", err)
	}

	p.logger.Info("ingestion complete",
		"root", root,
		"documents", result.Documents,
		"chunks", result.Chunks,
		"skipped", result.Skipped,
		"failed", len(result.Failed))

	return result, nil
}

// ingestDocument chunks, embeds and stores one document, returning the
// number of chunks written.
func (p *Pipeline) ingestDocument(ctx context.Context, doc corpus.Document) (int, error) {
	chunks := p.chunker.Split(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]index.Record, len(chunks))
	for i, c := range chunks {
		records[i] = index.Record{
			ID:        index.RecordID(c.Source, c.Offset),
			Namespace: p.opts.Namespace,
			Source:    c.Source,
			Offset:    c.Offset,
			Content:   c.Text,
			Embedding: vectors[i],
		}
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}
	return len(records), nil
}
