package store

import (
	"context"
	"sync"
)

// ObjectStore persists call artifacts under bucket/key pairs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// Object is a stored artifact.
type Object struct {
	Body        []byte
	ContentType string
}

// MemoryStore is a map-backed ObjectStore used by the mock provider mode
// and by tests. Writes overwrite, matching object-store put semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, bucket, key string, body []byte, contentType string) error {
	buf := make([]byte, len(body))
	copy(buf, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = Object{Body: buf, ContentType: contentType}
	return nil
}

// Get returns a stored object and whether it exists.
func (s *MemoryStore) Get(bucket, key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[bucket+"/"+key]
	return obj, ok
}

// Keys lists stored keys in a bucket.
func (s *MemoryStore) Keys(bucket string) []string {
	prefix := bucket + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k[len(prefix):])
		}
	}
	return keys
}
