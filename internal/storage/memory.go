package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/yoockh/mockmate/internal/utils"
)

// MemoryStore keeps objects in process. Used for local runs without cloud
// credentials and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Upload(_ context.Context, objectName string, _ string, r io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[objectName] = buf.Bytes()
	m.mu.Unlock()
	return objectName, nil
}

func (m *MemoryStore) Download(_ context.Context, objectName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[objectName]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "memory://" + objectName, nil
}
