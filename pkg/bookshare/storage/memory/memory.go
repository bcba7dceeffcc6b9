package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/openshelf/bookshare/pkg/bookshare"
)

type object struct {
	data     []byte
	mimeType string
	resource bookshare.ResourceType
}

// Backend is an in-memory implementation of the bookshare.BlobStore
// interface, used in tests and development.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Upload stores the stream in memory and returns a memory:// URL whose
// path mirrors the object key.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params bookshare.UploadParams) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{
		data:     data,
		mimeType: params.MimeType,
		resource: params.Resource,
	}

	return fmt.Sprintf("memory://blobs/%s", params.ObjectKey), nil
}

// Delete removes the blob stored under objectKey.
func (b *Backend) Delete(ctx context.Context, objectKey string, resource bookshare.ResourceType) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, objectKey)
	return nil
}

// Get returns a stored blob's bytes and MIME type. Test helper.
func (b *Backend) Get(objectKey string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, "", false
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.mimeType, true
}

// Len returns the number of stored blobs. Test helper.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
