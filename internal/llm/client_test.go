package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/apperr"
)

func TestOpenAICompatClient_Summarize_ReturnsTrimmedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Content: "  does the thing  "}}},
		})
	}))
	defer srv.Close()

	c := newOpenAICompatClient(srv.URL, "key", "gpt-test", 5*time.Second)
	out, err := c.Summarize(context.Background(), "func foo() {}", "class Foo")
	require.NoError(t, err)
	require.Equal(t, "does the thing", out)
}

func TestOpenAICompatClient_Summarize_MissingAPIKeyIsUnavailable(t *testing.T) {
	c := newOpenAICompatClient("http://unused", "", "gpt-test", 5*time.Second)
	_, err := c.Summarize(context.Background(), "code", "")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.Unavailable))
}

func TestOllamaClient_Summarize_ReturnsResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "a summary"})
	}))
	defer srv.Close()

	c := newOllamaClient(srv.URL, "llama3.1", 5*time.Second)
	out, err := c.Summarize(context.Background(), "code", "")
	require.NoError(t, err)
	require.Equal(t, "a summary", out)
}
