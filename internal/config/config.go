// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.askdocs/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: generative model, embedder model, provider
//   - Ingestion: chunk size, chunk overlap, file extensions, namespace
//   - Retrieval: top-k
//   - Storage: PostgreSQL connection (see storage.go)
//   - Serve: listen address, per-IP rate limit
//   - Citations: source path rewriting for public documentation links
//
// Validation uses sentinel errors so callers can match with errors.Is;
// sensitive values are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the chunk overlap is out of range.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidNamespace indicates the index namespace is empty.
	ErrInvalidNamespace = errors.New("invalid namespace")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// Its output is truncated to 768 dimensions to match the pgvector schema;
	// see index.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultChunkSize and DefaultChunkOverlap mirror the ingestion defaults
	// the corpus was originally indexed with (1000/200 characters).
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 4

	// DefaultNamespace is the index partition documents are ingested into.
	DefaultNamespace = "docs"

	// MaxHistoryTurns caps how many prior question/answer pairs are folded
	// into the prompt context.
	MaxHistoryTurns = 10
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`

	// Ingestion configuration
	ChunkSize      int      `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap   int      `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	FileExtensions []string `mapstructure:"file_extensions" json:"file_extensions"`
	Namespace      string   `mapstructure:"namespace" json:"namespace"`
	IngestWorkers  int      `mapstructure:"ingest_workers" json:"ingest_workers"`

	// Retrieval configuration
	TopK int `mapstructure:"top_k" json:"top_k"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	RatePerSecond float64 `mapstructure:"rate_per_second" json:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy    bool    `mapstructure:"trust_proxy" json:"trust_proxy"`

	// Chat client configuration
	ServerURL string `mapstructure:"server_url" json:"server_url"`

	// Citation rewriting (see chatclient.SourceRewriter)
	DocsPathPrefix string `mapstructure:"docs_path_prefix" json:"docs_path_prefix"`
	DocsBaseURL    string `mapstructure:"docs_base_url" json:"docs_base_url"`
	CorpusMarker   string `mapstructure:"corpus_marker" json:"corpus_marker"`
	CorpusDocsURL  string `mapstructure:"corpus_docs_url" json:"corpus_docs_url"`

	// Batch documentation generator (askdocs generate)
	DocgenExtension string `mapstructure:"docgen_extension" json:"docgen_extension"`
	DocgenOutputDir string `mapstructure:"docgen_output_dir" json:"docgen_output_dir"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".askdocs")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.2)

	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("file_extensions", []string{".adoc", ".md"})
	viper.SetDefault("namespace", DefaultNamespace)
	viper.SetDefault("ingest_workers", 4)

	viper.SetDefault("top_k", DefaultTopK)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "askdocs")
	viper.SetDefault("postgres_password", "askdocs_dev_password")
	viper.SetDefault("postgres_db_name", "askdocs")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("rate_per_second", 1.0)
	viper.SetDefault("rate_burst", 5)
	viper.SetDefault("trust_proxy", false)

	viper.SetDefault("server_url", "http://localhost:8080")

	// Citation rewriting defaults match the corpus the service was built for.
	viper.SetDefault("docs_path_prefix", "/home/os/Documents/GPT/master-scroll-v3/pages")
	viper.SetDefault("docs_base_url", "https://scroll.bibliothecadao.xyz")
	viper.SetDefault("corpus_marker", "starknet-docs")
	viper.SetDefault("corpus_docs_url", "https://docs.starknet.io/documentation")

	viper.SetDefault("docgen_extension", ".cairo")
	viper.SetDefault("docgen_output_dir", "docs")
}

// bindEnvVariables binds every configuration key to its ASKDOCS_* variable.
// Two overrides live elsewhere: GEMINI_API_KEY is read directly by the
// Genkit plugin (Validate only checks its presence) and DATABASE_URL is
// applied by parseDatabaseURL after unmarshal.
func bindEnvVariables() {
	keys := []string{
		"provider",
		"model_name",
		"embedder_model",
		"temperature",
		"chunk_size",
		"chunk_overlap",
		"file_extensions",
		"namespace",
		"ingest_workers",
		"top_k",
		"postgres_host",
		"postgres_port",
		"postgres_user",
		"postgres_password",
		"postgres_db_name",
		"postgres_ssl_mode",
		"rate_per_second",
		"rate_burst",
		"trust_proxy",
		"server_url",
		"docs_path_prefix",
		"docs_base_url",
		"corpus_marker",
		"corpus_docs_url",
		"docgen_extension",
		"docgen_output_dir",
	}
	for _, key := range keys {
		envVar := "ASKDOCS_" + strings.ToUpper(key)
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of eight bytes
// or fewer are fully masked so the output never contains a substring of the
// real value.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". If ModelName already contains a "/",
// it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
