package llm

import (
	"context"
	"strings"
)

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	// GenerateJSON asks for a single JSON document matching schema.
	GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error)
	Close() error
}

type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is the provider-neutral subset of an OpenAPI schema used for
// structured output.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

func Object(required []string, props map[string]*Schema) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

func ArrayOf(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

func String(desc string) *Schema { return &Schema{Type: TypeString, Description: desc} }

func Number(desc string) *Schema { return &Schema{Type: TypeNumber, Description: desc} }

// Complete drains StreamAnswer into one string.
func Complete(ctx context.Context, p Provider, prompt string) (string, error) {
	chunks, errs := p.StreamAnswer(ctx, prompt)

	var sb strings.Builder
	for c := range chunks {
		sb.WriteString(c)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}
