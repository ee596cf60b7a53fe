// Package llm implements the summarization side of component L's external
// contract: `summarize(code, ctx) -> string`. Provider selection, retry,
// and timeout handling live here; the prompt-construction and fallback
// logic that consumes this interface lives in internal/summarizer (4.G).
package llm

import (
	"context"
	"time"

	"github.com/jersy/ariadne/internal/config"
	"github.com/jersy/ariadne/internal/logging"
)

// Client is the summarization contract every provider implements.
type Client interface {
	// Summarize produces an L1 business summary for code given
	// surrounding context (e.g. the symbol's kind and FQN).
	Summarize(ctx context.Context, code, contextHint string) (string, error)
}

// NewClient builds the configured provider's Client.
func NewClient(cfg config.LLMConfig) Client {
	logging.Get(logging.CategoryLLM).Infow("creating llm client", "provider", cfg.Provider, "model", cfg.Model)
	switch cfg.Provider {
	case config.ProviderDeepSeek:
		return newOpenAICompatClient(orDefault(cfg.BaseURL, "https://api.deepseek.com/v1"), cfg.APIKey, cfg.Model, cfg.RequestTimeout)
	case config.ProviderOllama:
		return newOllamaClient(orDefault(cfg.BaseURL, "http://localhost:11434"), cfg.Model, cfg.RequestTimeout)
	default:
		return newOpenAICompatClient(orDefault(cfg.BaseURL, "https://api.openai.com/v1"), cfg.APIKey, cfg.Model, cfg.RequestTimeout)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

const summarizeSystemPrompt = "You write concise, one-to-three-sentence business-level summaries of source code for an architecture knowledge graph. State what the code does in plain language; do not restate the signature."

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
