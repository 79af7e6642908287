package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiAPI talks to the Gemini Developer API with an API key, for
// deployments without a GCP project.
type GeminiAPI struct {
	client    *genai.Client
	modelName string
}

func NewGeminiAPI(ctx context.Context, apiKey, modelName string) (*GeminiAPI, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiAPI{client: c, modelName: modelName}, nil
}

func (g *GeminiAPI) Close() error { return nil }

func (g *GeminiAPI) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedText(ctx, g.client, text)
}

func (g *GeminiAPI) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, genai.Text(prompt), nil) {
			if err != nil {
				errs <- err
				return
			}
			if t := resp.Text(); t != "" {
				out <- t
			}
		}
	}()

	return out, errs
}

func (g *GeminiAPI) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(schema),
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, p := range s.Properties {
			out.Properties[k] = toGenaiSchema(p)
		}
	}
	return out
}
