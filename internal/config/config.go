// Package config loads Ariadne's runtime configuration from environment
// variables, per the ARIADNE_* surface fixed by the specification.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLMProvider enumerates the supported summarization backends.
type LLMProvider string

const (
	ProviderOpenAI   LLMProvider = "openai"
	ProviderDeepSeek LLMProvider = "deepseek"
	ProviderOllama   LLMProvider = "ollama"
)

// EmbeddingProvider enumerates the supported vector-embedding backends.
// This is independent of LLMProvider: a deployment can summarize with
// OpenAI while embedding locally through Ollama, or vice versa.
type EmbeddingProvider string

const (
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
	EmbeddingProviderGenAI  EmbeddingProvider = "genai"
)

// LogFormat selects the zap encoder used by internal/logging.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LLMConfig holds the active LLM provider's connection settings.
type LLMConfig struct {
	Provider       LLMProvider
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	RequestTimeout time.Duration
}

// EmbeddingConfig holds the active embedding backend's connection settings.
type EmbeddingConfig struct {
	Provider EmbeddingProvider
	APIKey   string
	BaseURL  string
	Model    string
}

// Config is the complete process configuration, assembled once at startup.
type Config struct {
	DBPath            string
	VectorPath        string
	ProjectRoot       string
	ASMServiceURL     string
	LLM               LLMConfig
	Embedding         EmbeddingConfig
	RateLimitEnabled  bool
	LogLevel          string
	LogFormat         LogFormat
	IngestTimeout     time.Duration
	IngestBulkTimeout time.Duration
	MaxSummaryWorkers int
	BackupRetention   int
}

// Default returns the baseline configuration named by the spec before any
// environment overrides are applied.
func Default() *Config {
	return &Config{
		DBPath:            "ariadne.db",
		VectorPath:        "ariadne_vectors",
		ProjectRoot:       ".",
		ASMServiceURL:     "http://localhost:8088",
		RateLimitEnabled:  true,
		LogLevel:          "info",
		LogFormat:         LogFormatJSON,
		IngestTimeout:     60 * time.Second,
		IngestBulkTimeout: 600 * time.Second,
		MaxSummaryWorkers: 10,
		BackupRetention:   3,
		LLM: LLMConfig{
			Provider:       ProviderOllama,
			BaseURL:        "http://localhost:11434",
			Model:          "llama3.1",
			EmbeddingModel: "nomic-embed-text",
			RequestTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider: EmbeddingProviderOllama,
			BaseURL:  "http://localhost:11434",
			Model:    "embeddinggemma",
		},
	}
}

// FromEnv builds a Config starting from Default() and overlaying any
// recognized ARIADNE_* environment variables.
func FromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv("ARIADNE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ARIADNE_VECTOR_PATH"); v != "" {
		cfg.VectorPath = v
	}
	if v := os.Getenv("ARIADNE_PROJECT_ROOT"); v != "" {
		cfg.ProjectRoot = v
	}
	if v := os.Getenv("ARIADNE_ASM_SERVICE_URL"); v != "" {
		cfg.ASMServiceURL = v
	}
	if v := os.Getenv("ARIADNE_RATE_LIMIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ARIADNE_RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.RateLimitEnabled = b
	}
	if v := os.Getenv("ARIADNE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("ARIADNE_LOG_FORMAT"); v != "" {
		switch LogFormat(strings.ToLower(v)) {
		case LogFormatJSON:
			cfg.LogFormat = LogFormatJSON
		case LogFormatText:
			cfg.LogFormat = LogFormatText
		default:
			return nil, fmt.Errorf("invalid ARIADNE_LOG_FORMAT: %q (want json|text)", v)
		}
	}

	if v := os.Getenv("ARIADNE_LLM_PROVIDER"); v != "" {
		switch LLMProvider(strings.ToLower(v)) {
		case ProviderOpenAI:
			cfg.LLM.Provider = ProviderOpenAI
		case ProviderDeepSeek:
			cfg.LLM.Provider = ProviderDeepSeek
		case ProviderOllama:
			cfg.LLM.Provider = ProviderOllama
		default:
			return nil, fmt.Errorf("invalid ARIADNE_LLM_PROVIDER: %q", v)
		}
	}

	prefix := strings.ToUpper(string(cfg.LLM.Provider))
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(prefix + "_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}

	if v := os.Getenv("ARIADNE_EMBEDDING_PROVIDER"); v != "" {
		switch EmbeddingProvider(strings.ToLower(v)) {
		case EmbeddingProviderOllama:
			cfg.Embedding.Provider = EmbeddingProviderOllama
		case EmbeddingProviderGenAI:
			cfg.Embedding.Provider = EmbeddingProviderGenAI
		default:
			return nil, fmt.Errorf("invalid ARIADNE_EMBEDDING_PROVIDER: %q", v)
		}
	}
	embedPrefix := "ARIADNE_EMBEDDING_" + strings.ToUpper(string(cfg.Embedding.Provider))
	if v := os.Getenv(embedPrefix + "_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(embedPrefix + "_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv(embedPrefix + "_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	return cfg, nil
}
