// Package storage provides the key/value backends collections persist through.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/rs/zerolog"
)

// MemoryStorage keeps documents in process memory. Documents are copied on
// the way in and out so callers never share maps with the store.
type MemoryStorage struct {
	mu        sync.RWMutex
	locations map[string]map[string]domain.Document
	dirty     atomic.Bool
	logger    zerolog.Logger
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	o := applyOptions(opts)
	return &MemoryStorage{
		locations: make(map[string]map[string]domain.Document),
		logger:    o.logger,
	}
}

// CreateLocation creates location if it does not exist yet
func (m *MemoryStorage) CreateLocation(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[location]; !ok {
		m.locations[location] = make(map[string]domain.Document)
		m.dirty.Store(true)
	}
	return nil
}

func (m *MemoryStorage) GetList(_ context.Context, location string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, ok := m.locations[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
	}
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStorage) Read(_ context.Context, location, key string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, ok := m.locations[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
	}
	return docs[key].Clone(), nil
}

func (m *MemoryStorage) Write(_ context.Context, location, key string, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.locations[location]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
	}
	docs[key] = doc.Clone()
	m.dirty.Store(true)
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, location, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.locations[location]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
	}
	delete(docs, key)
	m.dirty.Store(true)
	return nil
}

// Locations returns the location names in sorted order
func (m *MemoryStorage) Locations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.locations))
	for name := range m.locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of documents across all locations
func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, docs := range m.locations {
		n += len(docs)
	}
	return n
}
