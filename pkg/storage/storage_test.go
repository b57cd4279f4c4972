package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises the behaviour every backend must share
func runStorageContract(t *testing.T, s domain.Storage) {
	ctx := context.Background()

	_, err := s.GetList(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
	assert.ErrorIs(t, s.Write(ctx, "users", "a", domain.Document{"x": 1.0}), domain.ErrLocationNotFound)
	_, err = s.Read(ctx, "users", "a")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)

	require.NoError(t, s.CreateLocation(ctx, "users"))
	require.NoError(t, s.CreateLocation(ctx, "users"), "creating twice is allowed")
	require.NoError(t, s.CreateLocation(ctx, "data/books"))

	doc, err := s.Read(ctx, "users", "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, s.Write(ctx, "users", "b", domain.Document{"name": "Bran", "age": 10.0}))
	require.NoError(t, s.Write(ctx, "users", "a", domain.Document{"name": "Arya", "tags": []interface{}{"needle"}}))
	require.NoError(t, s.Write(ctx, "data/books", "a", domain.Document{"title": "Fire"}))

	keys, err := s.GetList(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	doc, err = s.Read(ctx, "users", "a")
	require.NoError(t, err)
	assert.Equal(t, "Arya", doc["name"])
	assert.Equal(t, []interface{}{"needle"}, doc["tags"])

	doc, err = s.Read(ctx, "data/books", "a")
	require.NoError(t, err)
	assert.Equal(t, "Fire", doc["title"])

	require.NoError(t, s.Write(ctx, "users", "b", domain.Document{"name": "Bran", "age": 11.0}))
	doc, err = s.Read(ctx, "users", "b")
	require.NoError(t, err)
	assert.Equal(t, 11.0, doc["age"])

	require.NoError(t, s.Remove(ctx, "users", "a"))
	doc, err = s.Read(ctx, "users", "a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	keys, err = s.GetList(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestMemoryStorage(t *testing.T) {
	runStorageContract(t, NewMemoryStorage())
}

func TestMemoryStorageCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.CreateLocation(ctx, "l"))

	doc := domain.Document{"n": 1.0}
	require.NoError(t, s.Write(ctx, "l", "k", doc))
	doc["n"] = 2.0

	read, err := s.Read(ctx, "l", "k")
	require.NoError(t, err)
	assert.Equal(t, 1.0, read["n"])
	read["n"] = 3.0

	again, _ := s.Read(ctx, "l", "k")
	assert.Equal(t, 1.0, again["n"])
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, []string{"l"}, s.Locations())
}

func TestDiskStorage(t *testing.T) {
	runStorageContract(t, NewDiskStorage(t.TempDir()))
}

func TestDiskStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := NewDiskStorage(dir)
	require.NoError(t, s.CreateLocation(ctx, "users"))
	require.NoError(t, s.Write(ctx, "users", "jon", domain.Document{"name": "Jon"}))
	assert.FileExists(t, filepath.Join(dir, "users", "jon"+FileExtension))

	reopened := NewDiskStorage(dir)
	doc, err := reopened.Read(ctx, "users", "jon")
	require.NoError(t, err)
	assert.Equal(t, "Jon", doc["name"])
}

func TestBadgerStorage(t *testing.T) {
	s, err := OpenBadgerStorage("")
	require.NoError(t, err)
	defer s.Close()
	runStorageContract(t, s)
}

func TestBadgerStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadgerStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.CreateLocation(ctx, "users"))
	require.NoError(t, s.Write(ctx, "users", "jon", domain.Document{"name": "Jon"}))
	require.NoError(t, s.Close())

	s, err = OpenBadgerStorage(dir)
	require.NoError(t, err)
	defer s.Close()
	keys, err := s.GetList(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"jon"}, keys)
}

func TestCachedStorage(t *testing.T) {
	inner := NewTestStorage()
	s, err := NewCachedStorage(inner, 8)
	require.NoError(t, err)
	runStorageContract(t, s)

	ctx := context.Background()
	inner.ResetCounters()
	for i := 0; i < 3; i++ {
		doc, err := s.Read(ctx, "users", "b")
		require.NoError(t, err)
		assert.Equal(t, "Bran", doc["name"])
	}
	// written documents are cached, so reads never reach the backend
	assert.EqualValues(t, 0, inner.Reads())

	_, err = NewCachedStorage(inner, 0)
	assert.Error(t, err)
}

func TestTestStorageCountsAndLatency(t *testing.T) {
	ctx := context.Background()
	s := NewTestStorage(WithLatency(2*time.Millisecond), WithPauseRate(1))
	require.NoError(t, s.CreateLocation(ctx, "l"))

	start := time.Now()
	require.NoError(t, s.Write(ctx, "l", "k", domain.Document{"a": true}))
	_, err := s.Read(ctx, "l", "k")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 4*time.Millisecond)
	assert.EqualValues(t, 1, s.Reads())
	assert.EqualValues(t, 1, s.Writes())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Read(cancelled, "l", "k")
	assert.ErrorIs(t, err, context.Canceled)
}
