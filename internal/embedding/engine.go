// Package embedding generates vector embeddings for summaries, glossary
// entries, and constraints, backed by either a local Ollama server or
// Google's GenAI API.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/jersy/ariadne/internal/config"
	"github.com/jersy/ariadne/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// NewEngine builds an Engine from the resolved embedding configuration.
// Ollama is the local/offline backend, GenAI the cloud option.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	logging.Get(logging.CategoryEmbedding).Infow("creating embedding engine", "provider", cfg.Provider, "model", cfg.Model)

	switch cfg.Provider {
	case config.EmbeddingProviderGenAI:
		return NewGenAIEngine(cfg.APIKey, cfg.Model)
	default:
		return NewOllamaEngine(cfg.BaseURL, cfg.Model), nil
	}
}

// CosineSimilarity computes similarity in [-1, 1] between two equal-length
// vectors, used by the vector store's brute-force fallback path.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding: vector dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		magA += float64(a[i] * a[i])
		magB += float64(b[i] * b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
