// Package embed turns text into fixed-width vectors via a Genkit embedder.
package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/scrollab/askdocs/internal/index"
	"github.com/scrollab/askdocs/internal/log"
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	// EmbedTexts embeds a batch of texts, returning one vector per input in
	// the same order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// GenkitEmbedder wraps a Genkit ai.Embedder and normalizes its output to the
// index's vector width.
type GenkitEmbedder struct {
	embedder ai.Embedder
	logger   log.Logger
}

// New resolves the named embedder model from the Google AI plugin.
func New(g *genkit.Genkit, model string, logger log.Logger) (*GenkitEmbedder, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	embedder := googlegenai.GoogleAIEmbedder(g, model)
	if embedder == nil {
		return nil, fmt.Errorf("embedder model %q not found", model)
	}
	return &GenkitEmbedder{embedder: embedder, logger: logger}, nil
}

// EmbedTexts embeds texts in one request. Vectors wider than the index
// dimension are truncated and re-normalized; gemini-embedding-001 emits 3072
// dimensions by default and its leading components carry the signal (MRL),
// so truncation preserves ranking quality.
func (e *GenkitEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts",
			len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vec, err := fitDimension(emb.Embedding)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// fitDimension truncates a vector to the index width and re-normalizes it.
func fitDimension(vec []float32) ([]float32, error) {
	if len(vec) < index.VectorDimension {
		return nil, fmt.Errorf("embedding has %d dimensions, need at least %d",
			len(vec), index.VectorDimension)
	}
	if len(vec) == index.VectorDimension {
		return vec, nil
	}

	out := make([]float32, index.VectorDimension)
	copy(out, vec[:index.VectorDimension])

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range out {
			out[i] *= inv
		}
	}
	return out, nil
}
