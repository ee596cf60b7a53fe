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
	"github.com/jersy/ariadne/internal/logging"
)

// openAICompatClient implements Client against the OpenAI chat-completions
// API shape, shared by the openai and deepseek providers (DeepSeek's API
// is OpenAI-compatible).
type openAICompatClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func newOpenAICompatClient(baseURL, apiKey, model string, timeout time.Duration) *openAICompatClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &openAICompatClient{
		baseURL: baseURL, apiKey: apiKey, model: model, timeout: timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAICompatClient) Summarize(ctx context.Context, code, contextHint string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if c.apiKey == "" {
		return "", apperr.New(apperr.Unavailable, "llm: no API key configured")
	}

	userPrompt := code
	if contextHint != "" {
		userPrompt = fmt.Sprintf("Context: %s\n\nCode:\n%s", contextHint, code)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizeSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
		MaxTokens:   512,
	}

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return "", apperr.Wrap(apperr.Fatal, err, "llm: marshal request")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", apperr.Wrap(apperr.Fatal, err, "llm: build request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = apperr.New(apperr.Transient, "llm: rate limited")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", apperr.New(apperr.Unavailable, "llm: request failed with status %d: %s", resp.StatusCode, string(respBody))
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", apperr.Wrap(apperr.Fatal, err, "llm: decode response")
		}
		if parsed.Error != nil {
			return "", apperr.New(apperr.Unavailable, "llm: provider error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", apperr.New(apperr.Unavailable, "llm: no completion returned")
		}

		return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
	}

	logging.Get(logging.CategoryLLM).Warnw("llm call exhausted retries", "error", lastErr)
	return "", apperr.Wrap(apperr.Unavailable, lastErr, "llm: max retries exceeded")
}
