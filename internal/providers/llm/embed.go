package llm

import (
	"context"

	"google.golang.org/genai"
)

// EmbeddingDims is the width of the conversation_logs.embedding column.
const EmbeddingDims = 768

const defaultEmbedModel = "text-embedding-004"

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func embedText(ctx context.Context, c *genai.Client, text string) ([]float32, error) {
	dims := int32(EmbeddingDims)
	resp, err := c.Models.EmbedContent(ctx, defaultEmbedModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Embeddings[0].Values, nil
}

var (
	_ Embedder = (*GeminiAPI)(nil)
	_ Embedder = (*VertexGemini)(nil)
)
