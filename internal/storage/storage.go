package storage

import (
	"context"
	"io"
	"time"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Downloader interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// ObjectStore keeps uploaded resumes and job descriptions private; clients
// read them back through signed URLs.
type ObjectStore interface {
	Uploader
	Downloader
	Signer
	Close() error
}
