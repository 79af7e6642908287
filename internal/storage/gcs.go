package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (u *GCSStore) Close() error { return u.client.Close() }

// Upload writes the object and returns its key. Objects stay private.
func (u *GCSStore) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	obj := u.client.Bucket(u.bucket).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return objectName, nil
}

func (u *GCSStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := u.client.Bucket(u.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (u *GCSStore) SignedGetURL(_ context.Context, objectName string, ttl time.Duration) (string, error) {
	return u.client.Bucket(u.bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}
