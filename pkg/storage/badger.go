package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	locationPrefix = "loc/"
	documentPrefix = "doc/"
)

// BadgerStorage keeps documents as msgpack values in a badger database.
// A location exists once its marker key "loc/<location>" is set; documents
// live under "doc/<location>/<key>".
type BadgerStorage struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenBadgerStorage opens (or creates) a database in dir. An empty dir opens an in-memory database.
func OpenBadgerStorage(dir string, opts ...Option) (*BadgerStorage, error) {
	o := applyOptions(opts)
	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{o.logger})
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return &BadgerStorage{db: db, logger: o.logger}, nil
}

func (b *BadgerStorage) Close() error {
	return b.db.Close()
}

func locationKey(location string) []byte {
	return []byte(locationPrefix + location)
}

func documentKey(location, key string) []byte {
	return []byte(documentPrefix + location + "/" + key)
}

func checkLocation(txn *badger.Txn, location string) error {
	if _, err := txn.Get(locationKey(location)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, location)
		}
		return err
	}
	return nil
}

func (b *BadgerStorage) CreateLocation(_ context.Context, location string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(locationKey(location), []byte{})
	})
}

func (b *BadgerStorage) GetList(_ context.Context, location string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		if err := checkLocation(txn, location); err != nil {
			return err
		}
		prefix := []byte(documentPrefix + location + "/")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().KeyCopy(nil)[len(prefix):])
			// documents of nested locations share the prefix
			if strings.Contains(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *BadgerStorage) Read(_ context.Context, location, key string) (domain.Document, error) {
	var doc domain.Document
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(location, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return checkLocation(txn, location)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", location, key, err)
	}
	return doc, nil
}

func (b *BadgerStorage) Write(_ context.Context, location, key string, doc domain.Document) error {
	value, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := checkLocation(txn, location); err != nil {
			return err
		}
		return txn.Set(documentKey(location, key), value)
	})
}

func (b *BadgerStorage) Remove(_ context.Context, location, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := checkLocation(txn, location); err != nil {
			return err
		}
		return txn.Delete(documentKey(location, key))
	})
}

// badgerLogger routes badger's logging into zerolog
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}
