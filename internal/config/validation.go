package config

import (
	"fmt"
	"os"
	"strings"
)

// Chunking bounds. Oversized chunks would exceed the embedder's token limit;
// overlap must stay strictly below the chunk size or the splitter cannot
// make progress.
const (
	MinChunkSize = 100
	MaxChunkSize = 8192
)

// Retrieval bounds.
const (
	MinTopK = 1
	MaxTopK = 20
)

// validSSLModes are the PostgreSQL SSL modes accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for correctness, fail-fast.
// Returns sentinel errors wrapped with context for errors.Is matching.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY for provider %q", ErrMissingAPIKey, c.Provider)
		}
	default:
		return fmt.Errorf("%w: %q (supported: gemini, googleai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidChunkSize, c.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d (must be 0 <= overlap < chunk size %d)", ErrInvalidChunkOverlap, c.ChunkOverlap, c.ChunkSize)
	}

	if c.TopK < MinTopK || c.TopK > MaxTopK {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidTopK, c.TopK, MinTopK, MaxTopK)
	}

	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalidNamespace)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
