package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/genai"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	embedder  *genai.Client // the vertexai package has no embeddings API
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	e, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-001"
	}
	return &VertexGemini{client: c, embedder: e, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedText(ctx, v.embedder, text)
}

func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		it := v.client.GenerativeModel(v.modelName).GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			for _, t := range vertexText(resp) {
				out <- t
			}
		}
	}()

	return out, errs
}

func (v *VertexGemini) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error) {
	// GenerativeModel carries its config by value; one per request keeps
	// concurrent calls from sharing a schema.
	m := v.client.GenerativeModel(v.modelName)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toVertexSchema(schema)

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	text := strings.Join(vertexText(resp), "")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func vertexText(resp *vertexgenai.GenerateContentResponse) []string {
	var out []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
				out = append(out, string(t))
			}
		}
	}
	return out
}

func toVertexSchema(s *Schema) *vertexgenai.Schema {
	if s == nil {
		return nil
	}
	out := &vertexgenai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toVertexSchema(s.Items),
	}
	switch s.Type {
	case TypeObject:
		out.Type = vertexgenai.TypeObject
	case TypeArray:
		out.Type = vertexgenai.TypeArray
	case TypeNumber:
		out.Type = vertexgenai.TypeNumber
	case TypeInteger:
		out.Type = vertexgenai.TypeInteger
	case TypeBoolean:
		out.Type = vertexgenai.TypeBoolean
	default:
		out.Type = vertexgenai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = toVertexSchema(p)
		}
	}
	return out
}
