package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/rs/zerolog"
)

// DiskStorage stores each document in its own file under root/<location>/<key>.godb
type DiskStorage struct {
	root   string
	logger zerolog.Logger
}

func NewDiskStorage(root string, opts ...Option) *DiskStorage {
	o := applyOptions(opts)
	return &DiskStorage{root: root, logger: o.logger}
}

func (d *DiskStorage) dir(location string) string {
	return filepath.Join(d.root, filepath.FromSlash(location))
}

func (d *DiskStorage) file(location, key string) string {
	return filepath.Join(d.dir(location), key+FileExtension)
}

func (d *DiskStorage) checkLocation(location string) error {
	info, err := os.Stat(d.dir(location))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrLocationNotFound, location)
	}
	return nil
}

func (d *DiskStorage) CreateLocation(_ context.Context, location string) error {
	if err := os.MkdirAll(d.dir(location), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func (d *DiskStorage) GetList(_ context.Context, location string) ([]string, error) {
	if err := d.checkLocation(location); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.dir(location))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, FileExtension) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, FileExtension))
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *DiskStorage) Read(_ context.Context, location, key string) (domain.Document, error) {
	file, err := os.Open(d.file(location, key))
	if err != nil {
		if os.IsNotExist(err) {
			if err := d.checkLocation(location); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var doc domain.Document
	if err := decode(file, &doc); err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", location, key, err)
	}
	return doc, nil
}

func (d *DiskStorage) Write(_ context.Context, location, key string, doc domain.Document) error {
	if err := d.checkLocation(location); err != nil {
		return err
	}
	if err := writeFileAtomic(d.file(location, key), doc); err != nil {
		return err
	}
	d.logger.Debug().Str("location", location).Str("key", key).Msg("document written")
	return nil
}

func (d *DiskStorage) Remove(_ context.Context, location, key string) error {
	if err := d.checkLocation(location); err != nil {
		return err
	}
	if err := os.Remove(d.file(location, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s/%s: %w", location, key, err)
	}
	return nil
}
