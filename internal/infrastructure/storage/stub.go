package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/salesdesk/backend/internal/domain/shared"
)

var _ ObjectStorage = (*MemoryStorage)(nil)

// MemoryStorage keeps uploaded objects in process memory. Use it for
// development and tests; nothing is persisted across restarts.
type MemoryStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage(bucket string) *MemoryStorage {
	if bucket == "" {
		bucket = "dev"
	}
	return &MemoryStorage{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
	}
}

// Upload stores a copy of the object and returns a mem:// location
func (s *MemoryStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", shared.NewValidation("storage key is required")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()

	return fmt.Sprintf("mem://%s/%s", s.bucket, key), nil
}

// Object returns a stored object's bytes and content type
func (s *MemoryStorage) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, obj.contentType, true
}

// Len returns the number of stored objects
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
