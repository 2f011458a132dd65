package memory

import (
	"context"
	"sync"
)

// ArtifactStore keeps rendered artifacts in memory and serves memory:// URLs.
type ArtifactStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

func NewArtifactStore(baseURL string) *ArtifactStore {
	if baseURL == "" {
		baseURL = "memory://artifacts"
	}
	return &ArtifactStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *ArtifactStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return s.baseURL + "/" + key, nil
}

func (s *ArtifactStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns a stored artifact.
func (s *ArtifactStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored artifacts.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
