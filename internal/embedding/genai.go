package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/jersy/ariadne/internal/logging"
)

// genaiMaxBatch caps a single EmbedContent call; the API errors above 100.
const genaiMaxBatch = 100

// genaiDimensions is the fixed output width of gemini-embedding-001.
const genaiDimensions = 3072

// GenAIEngine generates embeddings through Google's Gemini API.
type GenAIEngine struct {
	client *genai.Client
	model  string
}

// NewGenAIEngine builds a GenAI-backed engine. Requires an API key.
func NewGenAIEngine(apiKey, model string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: genai api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("embedding: create genai client: %w", err)
	}
	return &GenAIEngine{client: client, model: model}, nil
}

func outputDims() *int32 {
	d := int32(genaiDimensions)
	return &d
}

// Embed generates an embedding for a single text.
func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "genai.embed")
	defer timer.Stop()

	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: outputDims()})
	if err != nil {
		return nil, fmt.Errorf("embedding: genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding: genai returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

// EmbedBatch chunks texts into genaiMaxBatch-sized groups and calls
// EmbedContent's native batch support per chunk.
func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float32
	for start := 0; start < len(texts); start += genaiMaxBatch {
		end := start + genaiMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunk, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding: genai batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (e *GenAIEngine) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: outputDims()})
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// Dimensions reports gemini-embedding-001's fixed output width.
func (e *GenAIEngine) Dimensions() int { return genaiDimensions }

// Name identifies this engine for logs and metrics labels.
func (e *GenAIEngine) Name() string { return fmt.Sprintf("genai:%s", e.model) }
