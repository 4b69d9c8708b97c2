package store

import (
	"context"
	"sync"

	"joints/internal/models"
	"joints/internal/observability"
)

// MemoryStore is an in-memory implementation of Store. Collections are kept
// in their encoded form so callers never share maps with the store.
type MemoryStore struct {
	collections map[string][]byte
	mu          sync.RWMutex
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]byte),
	}
}

// Load returns a fresh copy of the named collection.
func (s *MemoryStore) Load(ctx context.Context, name string) ([]Document, error) {
	defer observability.TrackStore("load", name)()

	if err := checkName(name); err != nil {
		return nil, models.NewStorageError("load", name, err)
	}

	s.mu.RLock()
	data := s.collections[name]
	s.mu.RUnlock()

	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, models.NewStorageError("load", name, err)
	}
	return docs, nil
}

// Save replaces the named collection.
func (s *MemoryStore) Save(ctx context.Context, name string, docs []Document) error {
	defer observability.TrackStore("save", name)()

	if err := checkName(name); err != nil {
		return models.NewStorageError("save", name, err)
	}

	data, err := encodeDocuments(docs)
	if err != nil {
		return models.NewStorageError("save", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = data
	return nil
}
