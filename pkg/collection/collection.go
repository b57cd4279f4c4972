// Package collection stores documents through a pluggable storage backend and
// keeps reduced indexes over declared fields to answer find queries.
package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/indexing"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Collection is a named set of documents living at one storage location.
//
// Writes hold the collection lock exclusively from unindexing the previous
// version to indexing the new one, so a find never observes a document that
// is stored but not indexed.
type Collection struct {
	mu      sync.RWMutex
	path    string
	name    string
	storage domain.Storage
	decls   domain.IndexDeclarations
	indexes *indexing.IndexManager
	keys    *xsync.MapOf[string, struct{}]
	loads   atomic.Int64

	logger          zerolog.Logger
	batchSize       int
	loadConcurrency int
}

// Stats reports counters of the last find
type Stats struct {
	Loads     int64 `json:"loads"`
	Documents int   `json:"documents"`
}

// New creates a collection at path. Index declarations are validated here;
// storage is only touched by Init.
func New(path string, storage domain.Storage, decls domain.IndexDeclarations, opts ...Option) (*Collection, error) {
	c := &Collection{
		path:            path,
		name:            domain.NameFromPath(path),
		storage:         storage,
		decls:           decls,
		indexes:         indexing.NewIndexManager(),
		keys:            xsync.NewMapOf[string, struct{}](),
		logger:          zerolog.Nop(),
		batchSize:       DefaultBatchSize,
		loadConcurrency: DefaultLoadConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, field := range decls.Fields() {
		if err := c.indexes.CreateIndex(field, decls[field]); err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.name, err)
		}
	}
	c.logger = c.logger.With().Str("collection", c.name).Logger()
	return c, nil
}

// Init creates the storage location, reads the key list and indexes every document
func (c *Collection) Init(ctx context.Context) error {
	if c.storage == nil {
		return domain.ErrStorageUndefined
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.storage.CreateLocation(ctx, c.path); err != nil {
		return fmt.Errorf("failed to create location %s: %w", c.path, err)
	}
	keys, err := c.storage.GetList(ctx, c.path)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", c.path, err)
	}

	c.keys.Clear()
	for _, k := range keys {
		c.keys.Store(k, struct{}{})
	}

	if err := c.indexAll(ctx); err != nil {
		return err
	}
	c.logger.Info().Int("documents", len(keys)).Strs("indexes", c.indexes.Fields()).Msg("collection initialized")
	return nil
}

// IndexAllDocuments rebuilds every index from storage
func (c *Collection) IndexAllDocuments(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexAll(ctx)
}

func (c *Collection) indexAll(ctx context.Context) error {
	c.indexes.ClearAll()
	keys := c.sortedKeys()

	for start := 0; start < len(keys); start += c.batchSize {
		end := min(start+c.batchSize, len(keys))
		batch := keys[start:end]
		docs, err := c.loadMany(ctx, batch)
		if err != nil {
			return err
		}
		for i, doc := range docs {
			if doc == nil {
				continue
			}
			if err := c.indexes.IndexDocument(batch[i], doc); err != nil {
				return fmt.Errorf("failed to index document %s: %w", batch[i], err)
			}
		}
		c.logger.Debug().Int("from", start).Int("to", end).Msg("indexed batch")
	}
	return nil
}

// Load reads a document, returning (nil, nil) when it does not exist
func (c *Collection) Load(ctx context.Context, key string) (domain.Document, error) {
	if !domain.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}
	return c.load(ctx, key)
}

func (c *Collection) load(ctx context.Context, key string) (domain.Document, error) {
	c.loads.Add(1)
	documentLoads.WithLabelValues(c.name).Inc()
	doc, err := c.storage.Read(ctx, c.path, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", c.path, key, err)
	}
	return doc, nil
}

// loadMany reads keys concurrently, returning documents aligned with keys
func (c *Collection) loadMany(ctx context.Context, keys []string) ([]domain.Document, error) {
	docs := make([]domain.Document, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.loadConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			doc, err := c.load(gctx, key)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Save validates doc against the indexes, then replaces any previous version
// under key in storage and in every index.
func (c *Collection) Save(ctx context.Context, key string, doc domain.Document) error {
	if !domain.ValidKey(key) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}
	if doc == nil {
		return fmt.Errorf("%w: nil document for %s", domain.ErrInvalidDocument, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.indexes.ValidateDocument(doc); err != nil {
		return err
	}

	old, err := c.load(ctx, key)
	if err != nil {
		return err
	}
	return c.replace(ctx, key, old, doc, "save")
}

// Update merges patch into the top level of the stored document under key
// and saves the result. The merged document must still satisfy the indexes.
func (c *Collection) Update(ctx context.Context, key string, patch domain.Document) (domain.Document, error) {
	if !domain.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, key)
	}

	merged := old.Clone()
	for k, v := range patch {
		merged[k] = v
	}
	if err := c.indexes.ValidateDocument(merged); err != nil {
		return nil, err
	}
	if err := c.replace(ctx, key, old, merged, "update"); err != nil {
		return nil, err
	}
	return merged, nil
}

// replace swaps old for doc in the indexes and storage. Callers hold the write lock.
func (c *Collection) replace(ctx context.Context, key string, old, doc domain.Document, op string) error {
	if old != nil {
		if err := c.indexes.UnindexDocument(key, old); err != nil {
			return fmt.Errorf("failed to unindex previous version of %s: %w", key, err)
		}
	}

	if err := c.storage.Write(ctx, c.path, key, doc); err != nil {
		c.restore(key, old)
		return fmt.Errorf("failed to write %s/%s: %w", c.path, key, err)
	}

	if err := c.indexes.IndexDocument(key, doc); err != nil {
		return fmt.Errorf("failed to index %s: %w", key, err)
	}
	c.keys.Store(key, struct{}{})
	documentWrites.WithLabelValues(c.name, op).Inc()
	return nil
}

// Remove deletes the document under key from storage and every index
func (c *Collection) Remove(ctx context.Context, key string) error {
	if !domain.ValidKey(key) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old, err := c.load(ctx, key)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, key)
	}
	if err := c.indexes.UnindexDocument(key, old); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", key, err)
	}

	if err := c.storage.Remove(ctx, c.path, key); err != nil {
		c.restore(key, old)
		return fmt.Errorf("failed to remove %s/%s: %w", c.path, key, err)
	}

	c.keys.Delete(key)
	documentWrites.WithLabelValues(c.name, "remove").Inc()
	return nil
}

// restore re-indexes the stored version after a failed storage call
func (c *Collection) restore(key string, old domain.Document) {
	if old == nil {
		return
	}
	if err := c.indexes.IndexDocument(key, old); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to restore index entries")
	}
}

// Keys returns every document key in sorted order
func (c *Collection) Keys() []string {
	return c.sortedKeys()
}

func (c *Collection) sortedKeys() []string {
	keys := make([]string, 0, c.keys.Size())
	c.keys.Range(func(k string, _ struct{}) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Path() string {
	return c.path
}

// Declarations returns the index declarations the collection was created with
func (c *Collection) Declarations() domain.IndexDeclarations {
	return c.decls
}

// Indexes describes the live indexes
func (c *Collection) Indexes() []domain.IndexInfo {
	return c.indexes.Info()
}

func (c *Collection) Stats() Stats {
	return Stats{
		Loads:     c.loads.Load(),
		Documents: c.keys.Size(),
	}
}
