package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// MemoryObject is an object held by MemoryStore.
type MemoryObject struct {
	Body        []byte
	ContentType string
}

// MemoryStore keeps objects in process memory. It backs local development when
// no bucket is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]MemoryObject
	publicURL string
}

var (
	_ ObjectStore  = (*MemoryStore)(nil)
	_ ObjectReader = (*MemoryStore)(nil)
)

// ObjectReader reads objects back from a store that has no public endpoint of
// its own.
type ObjectReader interface {
	Get(key string) (MemoryObject, bool)
}

// NewMemoryStore creates an empty store whose URLs start with publicURL.
func NewMemoryStore(publicURL string) *MemoryStore {
	return &MemoryStore{
		objects:   make(map[string]MemoryObject),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = MemoryObject{Body: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) URL(key string) string {
	return m.publicURL + "/" + key
}

// Get returns the object stored under key.
func (m *MemoryStore) Get(key string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
