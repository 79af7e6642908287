package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yoockh/mockmate/internal/utils"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	var store ObjectStore = NewMemoryStore()
	ctx := context.Background()

	key, err := store.Upload(ctx, "resumes/u1/cv.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil || key != "resumes/u1/cv.pdf" {
		t.Fatalf("upload: key=%q err=%v", key, err)
	}
	got, err := store.Download(ctx, key)
	if err != nil || string(got) != "%PDF" {
		t.Fatalf("download: %q %v", got, err)
	}
	if _, err := store.Download(ctx, "missing"); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
