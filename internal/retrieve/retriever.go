// Package retrieve answers "which chunks are relevant to this question" by
// embedding the question and querying the vector index.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrollab/askdocs/internal/embed"
	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

// Searcher is the index surface the retriever reads from.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, k int, namespace string) ([]index.Match, error)
}

// Retriever finds the chunks most similar to a question.
type Retriever struct {
	embedder  embed.Embedder
	searcher  Searcher
	topK      int
	namespace string
	logger    log.Logger
}

// New creates a Retriever returning at most topK matches per question.
func New(embedder embed.Embedder, searcher Searcher, topK int, namespace string, logger log.Logger) (*Retriever, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if topK < 1 {
		return nil, fmt.Errorf("top-k must be positive, got %d", topK)
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace must not be empty")
	}
	return &Retriever{
		embedder:  embedder,
		searcher:  searcher,
		topK:      topK,
		namespace: namespace,
		logger:    logger,
	}, nil
}

// Retrieve embeds the question and returns the nearest chunks in descending
// similarity order. The same question against an unchanged index returns the
// same chunks in the same order.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]index.Match, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one question", len(vectors))
	}

	matches, err := r.searcher.Query(ctx, vectors[0], r.topK, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	r.logger.Debug("chunks retrieved",
		"question_len", len(question),
		"matches", len(matches))

	return matches, nil
}
