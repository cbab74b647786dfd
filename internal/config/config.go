// ABOUTME: Centralized configuration for the ragdoc service
// ABOUTME: Loads an optional YAML file, then environment variables, with validation and defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/harper/ragdoc/internal/models"
)

// Store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Embedder kinds
const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Config holds all configuration. It is fixed at startup.
type Config struct {
	// Chunking and retrieval
	ChunkSize       int `yaml:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	MinChunkLength  int `yaml:"min_chunk_length"`
	TopK            int `yaml:"top_k"`
	VectorDimension int `yaml:"vector_dimension"`
	MaxSessions     int `yaml:"max_sessions"`

	// Persistence
	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"`

	// Model settings
	Embedder          string        `yaml:"embedder"`
	OpenAIKey         string        `yaml:"-"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	ChatModel         string        `yaml:"chat_model"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	EmbedBatchSize    int           `yaml:"embed_batch_size"`
	EmbedRateLimit    float64       `yaml:"embed_rate_limit"`

	// Surfaces
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ChunkSize:         800,
		ChunkOverlap:      200,
		MinChunkLength:    20,
		TopK:              5,
		VectorDimension:   1536,
		MaxSessions:       1000,
		StoreBackend:      BackendFile,
		StorePath:         DefaultDataDir(),
		Embedder:          EmbedderOpenAI,
		ChatModel:         "gpt-4o-mini",
		EmbeddingModel:    "text-embedding-3-small",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        2 * time.Second,
		GenerationTimeout: 30 * time.Second,
		MaxTokens:         300,
		Temperature:       0,
		EmbedBatchSize:    64,
		EmbedRateLimit:    0,
		ListenAddr:        ":8000",
		LogLevel:          "info",
	}
}

// Load reads the YAML file at path (RAG_CONFIG when path is empty), then
// applies environment variables on top
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RAG_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading config file: %w", models.ErrInvalidConfiguration, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parsing config file %s: %w", models.ErrInvalidConfiguration, path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ChunkSize = getEnvInt("RAG_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("RAG_CHUNK_OVERLAP", c.ChunkOverlap)
	c.MinChunkLength = getEnvInt("RAG_MIN_CHUNK_LENGTH", c.MinChunkLength)
	c.TopK = getEnvInt("RAG_TOP_K", c.TopK)
	c.VectorDimension = getEnvInt("RAG_VECTOR_DIMENSION", c.VectorDimension)
	c.MaxSessions = getEnvInt("RAG_MAX_SESSIONS", c.MaxSessions)
	c.StoreBackend = getEnv("RAG_STORE_BACKEND", c.StoreBackend)
	c.StorePath = getEnv("RAG_STORE_PATH", c.StorePath)
	c.Embedder = getEnv("RAG_EMBEDDER", c.Embedder)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("RAG_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("RAG_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.GenerationTimeout = getEnvDuration("RAG_GENERATION_TIMEOUT", c.GenerationTimeout)
	c.MaxTokens = getEnvInt("RAG_MAX_TOKENS", c.MaxTokens)
	c.Temperature = getEnvFloat("RAG_TEMPERATURE", c.Temperature)
	c.EmbedBatchSize = getEnvInt("RAG_EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedRateLimit = getEnvFloat("RAG_EMBED_RATE_LIMIT", c.EmbedRateLimit)
	c.ListenAddr = getEnv("RAG_LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getEnv("RAG_LOG_LEVEL", c.LogLevel)
	c.LogJSON = getEnvBool("RAG_LOG_JSON", c.LogJSON)
}

// Validate reports every out-of-range value, each wrapped in ErrInvalidConfiguration
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.ChunkSize > 0, "RAG_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	check(c.ChunkOverlap >= 0 && c.ChunkOverlap < c.ChunkSize, "RAG_CHUNK_OVERLAP must be in [0, chunk size), got %d", c.ChunkOverlap)
	check(c.MinChunkLength >= 0, "RAG_MIN_CHUNK_LENGTH must not be negative, got %d", c.MinChunkLength)
	check(c.TopK >= 1, "RAG_TOP_K must be at least 1, got %d", c.TopK)
	check(c.VectorDimension >= 1, "RAG_VECTOR_DIMENSION must be at least 1, got %d", c.VectorDimension)
	check(c.MaxSessions >= 0, "RAG_MAX_SESSIONS must not be negative, got %d", c.MaxSessions)
	check(c.StoreBackend == BackendFile || c.StoreBackend == BackendSQLite || c.StoreBackend == BackendMemory,
		"RAG_STORE_BACKEND must be file, sqlite, or memory, got %q", c.StoreBackend)
	check(c.StoreBackend == BackendMemory || c.StorePath != "", "RAG_STORE_PATH must be set for the %s backend", c.StoreBackend)
	check(c.Embedder == EmbedderOpenAI || c.Embedder == EmbedderHash, "RAG_EMBEDDER must be openai or hash, got %q", c.Embedder)
	check(c.MaxRetries >= 0 && c.MaxRetries <= 10, "OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	check(c.Timeout > 0, "OPENAI_TIMEOUT must be positive, got %v", c.Timeout)
	check(c.GenerationTimeout > 0, "RAG_GENERATION_TIMEOUT must be positive, got %v", c.GenerationTimeout)
	check(c.MaxTokens > 0, "RAG_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	check(c.Temperature >= 0 && c.Temperature <= 2, "RAG_TEMPERATURE must be 0-2, got %f", c.Temperature)
	check(c.EmbedBatchSize >= 1, "RAG_EMBED_BATCH_SIZE must be at least 1, got %d", c.EmbedBatchSize)
	check(c.EmbedRateLimit >= 0, "RAG_EMBED_RATE_LIMIT must not be negative, got %f", c.EmbedRateLimit)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrInvalidConfiguration, errors.Join(errs...))
}

// RequireOpenAIKey fails when the OpenAI embedder or generator needs a key that is missing
func (c *Config) RequireOpenAIKey() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", models.ErrInvalidConfiguration)
	}
	return nil
}

// DefaultDataDir returns the XDG data directory for ragdoc.
// XDG_DATA_HOME is read on every call so tests can redirect it.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "ragdoc")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
