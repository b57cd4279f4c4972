// Package cursor walks the ordered keys of a find result, loading documents on demand.
package cursor

import (
	"context"
	"sort"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// FetchConcurrency bounds parallel loads in FetchAll
const FetchConcurrency = 16

// Loader loads a document by key, returning (nil, nil) when it no longer exists
type Loader interface {
	Load(ctx context.Context, key string) (domain.Document, error)
}

// Cursor is a position over an ordered key list. The position ranges from
// -1 (before the first key) to Count() (past the last one).
type Cursor struct {
	keys   []string
	loader Loader
	index  int
}

// New creates a cursor positioned before the first key
func New(keys []string, loader Loader) *Cursor {
	return &Cursor{keys: keys, loader: loader, index: -1}
}

// Keys returns the keys the cursor walks
func (c *Cursor) Keys() []string {
	return c.keys
}

func (c *Cursor) Count() int {
	return len(c.keys)
}

func (c *Cursor) Index() int {
	return c.index
}

// SetIndex moves the cursor, clamping to [-1, Count()]
func (c *Cursor) SetIndex(i int) {
	switch {
	case i < -1:
		i = -1
	case i > len(c.keys):
		i = len(c.keys)
	}
	c.index = i
}

// CurrentKey returns the key under the cursor, false when outside the keys
func (c *Cursor) CurrentKey() (string, bool) {
	if c.index < 0 || c.index >= len(c.keys) {
		return "", false
	}
	return c.keys[c.index], true
}

// Current loads the document under the cursor, nil when outside the keys
func (c *Cursor) Current(ctx context.Context) (domain.Document, error) {
	key, ok := c.CurrentKey()
	if !ok {
		return nil, nil
	}
	return c.loader.Load(ctx, key)
}

func (c *Cursor) First(ctx context.Context) (domain.Document, error) {
	c.SetIndex(0)
	return c.Current(ctx)
}

func (c *Cursor) Last(ctx context.Context) (domain.Document, error) {
	c.SetIndex(len(c.keys) - 1)
	return c.Current(ctx)
}

func (c *Cursor) Next(ctx context.Context) (domain.Document, error) {
	c.SetIndex(c.index + 1)
	return c.Current(ctx)
}

func (c *Cursor) Previous(ctx context.Context) (domain.Document, error) {
	c.SetIndex(c.index - 1)
	return c.Current(ctx)
}

// FetchAll loads the documents for keys[start:end] in key order. An end of
// zero or beyond Count() means the last key. Documents removed since the
// find are skipped.
func (c *Cursor) FetchAll(ctx context.Context, start, end int) ([]domain.Document, error) {
	_, docs, err := c.Fetch(ctx, start, end)
	return docs, err
}

// Fetch is FetchAll that also returns the key of each loaded document
func (c *Cursor) Fetch(ctx context.Context, start, end int) ([]string, []domain.Document, error) {
	if end <= 0 || end > len(c.keys) {
		end = len(c.keys)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return []string{}, []domain.Document{}, nil
	}

	keys := c.keys[start:end]
	docs := make([]domain.Document, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			doc, err := c.loader.Load(gctx, key)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	loadedKeys := make([]string, 0, len(keys))
	loaded := make([]domain.Document, 0, len(keys))
	for i, doc := range docs {
		if doc != nil {
			loadedKeys = append(loadedKeys, keys[i])
			loaded = append(loaded, doc)
		}
	}
	return loadedKeys, loaded, nil
}

// Merge returns a cursor over the sorted union of both cursors' keys, using c's loader
func (c *Cursor) Merge(other *Cursor) *Cursor {
	seen := make(map[string]struct{}, len(c.keys)+len(other.keys))
	keys := make([]string, 0, len(c.keys)+len(other.keys))
	for _, list := range [][]string{c.keys, other.keys} {
		for _, k := range list {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return New(keys, c.loader)
}
