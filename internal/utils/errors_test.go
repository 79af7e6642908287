package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{E(CodeUnauthorized, "op", "no", nil), http.StatusUnauthorized},
		{E(CodeForbidden, "op", "no", nil), http.StatusForbidden},
		{E(CodeNotFound, "op", "missing", nil), http.StatusNotFound},
		{E(CodeFailedPrecondition, "op", "state", nil), http.StatusConflict},
		{E(CodeTooLarge, "op", "big", nil), http.StatusRequestEntityTooLarge},
		{E(CodeUnavailable, "op", "down", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("dial tcp: refused")
	err := E(CodeUnavailable, "FeedbackService.Generate", "llm unavailable", inner)

	if got := err.Error(); got != "FeedbackService.Generate: llm unavailable: dial tcp: refused" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected errors.Is to reach wrapped error")
	}
	if !IsCode(fmt.Errorf("ctx: %w", err), CodeUnavailable) {
		t.Fatalf("expected IsCode through wrapping")
	}
}
