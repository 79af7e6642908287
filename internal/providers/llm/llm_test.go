package llm

import (
	"context"
	"errors"
	"testing"
)

type chunkProvider struct {
	chunks []string
	err    error
}

func (p *chunkProvider) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, len(p.chunks))
	errs := make(chan error, 1)
	for _, c := range p.chunks {
		out <- c
	}
	close(out)
	if p.err != nil {
		errs <- p.err
	}
	close(errs)
	return out, errs
}

func (p *chunkProvider) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (string, error) {
	return "", nil
}

func (p *chunkProvider) Close() error { return nil }

func TestCompleteJoinsChunks(t *testing.T) {
	t.Parallel()

	got, err := Complete(context.Background(), &chunkProvider{chunks: []string{"Great ", "answer. ", "Next question?\n"}}, "p")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if got != "Great answer. Next question?" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestCompleteReturnsStreamError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota")
	if _, err := Complete(context.Background(), &chunkProvider{chunks: []string{"x"}, err: boom}, "p"); !errors.Is(err, boom) {
		t.Fatalf("expected stream error, got %v", err)
	}
}

func TestDecodeJSONStripsFences(t *testing.T) {
	t.Parallel()

	var out struct {
		CoverLetter string `json:"coverLetter"`
	}
	if err := DecodeJSON("```json\n{\"coverLetter\":\"Dear team\"}\n```", &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.CoverLetter != "Dear team" {
		t.Fatalf("unexpected value: %q", out.CoverLetter)
	}

	if err := DecodeJSON("  ```  ", &out); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
