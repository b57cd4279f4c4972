package storage

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// TestStorage is a MemoryStorage that counts calls and can simulate a slow backend
type TestStorage struct {
	*MemoryStorage
	latency   time.Duration
	pauseRate float64

	reads  atomic.Int64
	writes atomic.Int64
}

func NewTestStorage(opts ...Option) *TestStorage {
	o := applyOptions(opts)
	return &TestStorage{
		MemoryStorage: NewMemoryStorage(opts...),
		latency:       o.latency,
		pauseRate:     o.pauseRate,
	}
}

// wait sleeps for a random share of the latency, or all of it on a pause
func (t *TestStorage) wait(ctx context.Context) error {
	if t.latency <= 0 {
		return nil
	}
	d := time.Duration(rand.Int63n(int64(t.latency)))
	if rand.Float64() < t.pauseRate {
		d = t.latency
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TestStorage) Read(ctx context.Context, location, key string) (domain.Document, error) {
	t.reads.Add(1)
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.MemoryStorage.Read(ctx, location, key)
}

func (t *TestStorage) Write(ctx context.Context, location, key string, doc domain.Document) error {
	t.writes.Add(1)
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.MemoryStorage.Write(ctx, location, key, doc)
}

func (t *TestStorage) Remove(ctx context.Context, location, key string) error {
	t.writes.Add(1)
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.MemoryStorage.Remove(ctx, location, key)
}

// Reads returns the number of Read calls
func (t *TestStorage) Reads() int64 {
	return t.reads.Load()
}

// Writes returns the number of Write and Remove calls
func (t *TestStorage) Writes() int64 {
	return t.writes.Load()
}

// ResetCounters zeroes the call counters
func (t *TestStorage) ResetCounters() {
	t.reads.Store(0)
	t.writes.Store(0)
}
