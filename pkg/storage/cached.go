package storage

import (
	"context"
	"fmt"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStorage fronts another Storage with an LRU of recently read documents
type CachedStorage struct {
	inner domain.Storage
	cache *lru.Cache[string, domain.Document]
}

// NewCachedStorage caches up to size documents read through inner
func NewCachedStorage(inner domain.Storage, size int) (*CachedStorage, error) {
	cache, err := lru.New[string, domain.Document](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &CachedStorage{inner: inner, cache: cache}, nil
}

func cacheKey(location, key string) string {
	return location + "\x00" + key
}

func (c *CachedStorage) CreateLocation(ctx context.Context, location string) error {
	return c.inner.CreateLocation(ctx, location)
}

func (c *CachedStorage) GetList(ctx context.Context, location string) ([]string, error) {
	return c.inner.GetList(ctx, location)
}

func (c *CachedStorage) Read(ctx context.Context, location, key string) (domain.Document, error) {
	ck := cacheKey(location, key)
	if doc, ok := c.cache.Get(ck); ok {
		return doc.Clone(), nil
	}
	doc, err := c.inner.Read(ctx, location, key)
	if err != nil || doc == nil {
		return doc, err
	}
	c.cache.Add(ck, doc.Clone())
	return doc, nil
}

func (c *CachedStorage) Write(ctx context.Context, location, key string, doc domain.Document) error {
	ck := cacheKey(location, key)
	if err := c.inner.Write(ctx, location, key, doc); err != nil {
		c.cache.Remove(ck)
		return err
	}
	c.cache.Add(ck, doc.Clone())
	return nil
}

func (c *CachedStorage) Remove(ctx context.Context, location, key string) error {
	c.cache.Remove(cacheKey(location, key))
	return c.inner.Remove(ctx, location, key)
}

// Len returns the number of cached documents
func (c *CachedStorage) Len() int {
	return c.cache.Len()
}
