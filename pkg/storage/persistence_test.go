package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) *MemoryStorage {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.CreateLocation(ctx, "characters"))
	require.NoError(t, s.Write(ctx, "characters", "p0001", domain.Document{
		"name":   "Eddard",
		"age":    40.0,
		"houses": []interface{}{"Stark"},
		"meta":   map[string]interface{}{"alive": false},
	}))
	require.NoError(t, s.Write(ctx, "characters", "p0002", domain.Document{"name": "Catelyn", "age": 35.0}))
	require.NoError(t, s.CreateLocation(ctx, "empty"))
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "snap"+FileExtension)
	s := seedMemory(t)
	assert.True(t, s.Dirty())

	require.NoError(t, s.SaveSnapshot(file))
	assert.False(t, s.Dirty())

	loaded := NewMemoryStorage()
	require.NoError(t, loaded.LoadSnapshot(file))
	assert.Equal(t, []string{"characters", "empty"}, loaded.Locations())

	doc, err := loaded.Read(context.Background(), "characters", "p0001")
	require.NoError(t, err)
	assert.Equal(t, "Eddard", doc["name"])
	assert.Equal(t, 40.0, doc["age"])
	assert.Equal(t, []interface{}{"Stark"}, doc["houses"])
	assert.Equal(t, map[string]interface{}{"alive": false}, doc["meta"])
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	s := seedMemory(t)
	require.NoError(t, s.LoadSnapshot(filepath.Join(t.TempDir(), "nope.godb")))
	assert.Equal(t, 2, s.Count())
}

func TestLoadSnapshotRejectsGarbage(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.godb")
	require.NoError(t, os.WriteFile(file, []byte("not a snapshot"), 0o644))
	assert.Error(t, NewMemoryStorage().LoadSnapshot(file))
}

func TestSnapshotWorker(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bg.godb")
	s := seedMemory(t)

	w := NewSnapshotWorker(s, file, 10*time.Millisecond, s.logger)
	w.Start()
	assert.Eventually(t, func() bool {
		_, err := os.Stat(file)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Write(context.Background(), "characters", "p0003", domain.Document{"name": "Robb"}))
	w.Stop()
	w.Stop()

	loaded := NewMemoryStorage()
	require.NoError(t, loaded.LoadSnapshot(file))
	assert.Equal(t, 3, loaded.Count())
}

func TestGetMemoryStats(t *testing.T) {
	stats := GetMemoryStats()
	assert.Contains(t, stats, "alloc_mb")
	assert.Contains(t, stats, "num_goroutines")
}
