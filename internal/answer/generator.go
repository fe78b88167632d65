package answer

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/scrollab/askdocs/internal/log"
)

// GenkitGenerator streams completions from a Genkit model.
type GenkitGenerator struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	logger      log.Logger
}

// NewGenkitGenerator creates a Generator for the provider-qualified model
// name, e.g. "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, modelName string, temperature float32, logger log.Logger) *GenkitGenerator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitGenerator{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate runs the model with streaming enabled and forwards each chunk's
// text to onToken.
func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string, onToken func(token string) error) error {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithConfig(map[string]any{"temperature": gg.temperature}),
		ai.WithStreaming(func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return onToken(text)
		}),
	)
	if err != nil {
		return fmt.Errorf("model generation: %w", err)
	}

	gg.logger.Debug("generation finished", "model", gg.modelName, "answer_len", len(resp.Text()))
	return nil
}
