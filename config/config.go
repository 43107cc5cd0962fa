package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Provider      ProviderConfig
	Retrieval     RetrievalConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig holds context store configuration. Backend selects between
// the in-memory store and Postgres/pgvector; DatabaseURL is required for
// the latter.
type StoreConfig struct {
	Backend      string
	DatabaseURL  string
	EmbeddingDim int
	MaxOpenConns int
	MaxIdleConns int
}

// ProviderConfig holds embedding/generation provider configuration
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	EmbedModel     string
	GenModel       string
	EmbedTimeout   time.Duration
	GenTimeout     time.Duration
	MaxBatchSize   int
	RetryBaseDelay time.Duration
}

// RetrievalConfig holds the retrieval and reranking knobs. Passed by value
// into each pipeline invocation so runs stay deterministic and testable.
type RetrievalConfig struct {
	TopK            int
	RerankK         int
	MaxContextChars int
	DiversityMargin float64
	SparsePenalty   float64
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend:      getEnv("STORE_BACKEND", StoreBackendMemory),
			DatabaseURL:  getEnv("DATABASE_URL", ""),
			EmbeddingDim: getEnvAsInt("EMBEDDING_DIM", 1536),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Provider: ProviderConfig{
			APIKey:         getEnv("PROVIDER_API_KEY", ""),
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://api.openai.com/v1"),
			EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-3-small"),
			GenModel:       getEnv("GEN_MODEL", "gpt-4o-mini"),
			EmbedTimeout:   getEnvAsDuration("EMBED_TIMEOUT", 5*time.Second),
			GenTimeout:     getEnvAsDuration("GEN_TIMEOUT", 45*time.Second),
			MaxBatchSize:   getEnvAsInt("EMBED_MAX_BATCH", 64),
			RetryBaseDelay: getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Retrieval: RetrievalConfig{
			TopK:            getEnvAsInt("TOP_K", 5),
			RerankK:         getEnvAsInt("RERANK_K", 3),
			MaxContextChars: getEnvAsInt("MAX_CONTEXT_CHARS", 3000),
			DiversityMargin: getEnvAsFloat("DIVERSITY_MARGIN", 0.05),
			SparsePenalty:   getEnvAsFloat("SPARSE_PENALTY", 0.8),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Store.Backend != StoreBackendMemory && c.Store.Backend != StoreBackendPostgres {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreBackendPostgres && c.Store.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres store backend")
	}
	if c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	if c.IsProduction() && c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required in production")
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.Retrieval.RerankK <= 0 || c.Retrieval.RerankK > c.Retrieval.TopK {
		return fmt.Errorf("rerank_k must be in [1, top_k]")
	}
	if c.Retrieval.SparsePenalty <= 0 || c.Retrieval.SparsePenalty > 1 {
		return fmt.Errorf("sparse penalty must be in (0, 1]")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
