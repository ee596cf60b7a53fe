package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jersy/ariadne/internal/apperr"
)

// ollamaClient implements Client against a local Ollama server's
// /api/generate endpoint.
type ollamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newOllamaClient(baseURL, model string, timeout time.Duration) *ollamaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ollamaClient{baseURL: baseURL, model: model, httpClient: &http.Client{Timeout: timeout}}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *ollamaClient) Summarize(ctx context.Context, code, contextHint string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.httpClient.Timeout)
	defer cancel()

	prompt := code
	if contextHint != "" {
		prompt = fmt.Sprintf("Context: %s\n\nCode:\n%s", contextHint, code)
	}

	body, err := json.Marshal(ollamaGenerateRequest{Model: c.model, Prompt: prompt, System: summarizeSystemPrompt, Stream: false})
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "llm: marshal ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "llm: build ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.Unavailable, err, "llm: ollama unreachable at %s", c.baseURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.Unavailable, err, "llm: read ollama response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.Unavailable, "llm: ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", apperr.Wrap(apperr.Fatal, err, "llm: decode ollama response")
	}
	if parsed.Error != "" {
		return "", apperr.New(apperr.Unavailable, "llm: ollama error: %s", parsed.Error)
	}

	return strings.TrimSpace(parsed.Response), nil
}
