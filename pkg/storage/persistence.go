package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// SaveSnapshot writes every location to filename. The file is written to a
// temporary sibling first and renamed into place. Stored documents are never
// mutated in place, so encoding runs without holding the lock.
func (m *MemoryStorage) SaveSnapshot(filename string) error {
	m.mu.RLock()
	snapshot := NewSnapshot()
	for location, docs := range m.locations {
		out := make(map[string]map[string]interface{}, len(docs))
		for key, doc := range docs {
			out[key] = map[string]interface{}(doc)
		}
		snapshot.Locations[location] = out
	}
	snapshot.Metadata["saved_at"] = time.Now().UTC().Format(time.RFC3339)
	snapshot.Metadata["documents"] = m.countLocked()
	m.dirty.Store(false)
	m.mu.RUnlock()

	if err := writeFileAtomic(filename, snapshot); err != nil {
		m.dirty.Store(true)
		m.logger.Error().Err(err).Str("file", filename).Msg("snapshot failed")
		return err
	}
	m.logger.Info().Str("file", filename).Int("locations", len(snapshot.Locations)).Msg("snapshot saved")
	return nil
}

// LoadSnapshot replaces the store's content with the snapshot in filename.
// A missing file leaves the store untouched.
func (m *MemoryStorage) LoadSnapshot(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Info().Str("file", filename).Msg("no snapshot found, starting empty")
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var snapshot Snapshot
	if err := decode(file, &snapshot); err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", filename, err)
	}

	locations := make(map[string]map[string]domain.Document, len(snapshot.Locations))
	for location, docs := range snapshot.Locations {
		in := make(map[string]domain.Document, len(docs))
		for key, doc := range docs {
			in[key] = domain.Document(doc)
		}
		locations[location] = in
	}

	m.mu.Lock()
	m.locations = locations
	m.dirty.Store(false)
	m.mu.Unlock()

	m.logger.Info().Str("file", filename).Int("locations", len(locations)).Msg("snapshot loaded")
	return nil
}

// Dirty reports whether the store changed since the last snapshot
func (m *MemoryStorage) Dirty() bool {
	return m.dirty.Load()
}

func (m *MemoryStorage) countLocked() int {
	n := 0
	for _, docs := range m.locations {
		n += len(docs)
	}
	return n
}

// writeFileAtomic encodes v to a temp file next to filename, then renames it
func writeFileAtomic(filename string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if err := encode(tmp, v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
