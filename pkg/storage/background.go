package storage

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// GetMemoryStats returns current process memory usage statistics
func GetMemoryStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"alloc_mb":       m.Alloc / 1024 / 1024,
		"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
		"sys_mb":         m.Sys / 1024 / 1024,
		"num_goroutines": runtime.NumGoroutine(),
	}
}

// SnapshotWorker periodically snapshots a MemoryStorage when it has changed
type SnapshotWorker struct {
	store    *MemoryStorage
	filename string
	interval time.Duration
	logger   zerolog.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSnapshotWorker creates a worker; call Start to run it
func NewSnapshotWorker(store *MemoryStorage, filename string, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		store:    store,
		filename: filename,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background save loop
func (w *SnapshotWorker) Start() {
	if w.interval <= 0 {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.saveIfDirty()
			case <-w.stopChan:
				return
			}
		}
	}()
	w.logger.Info().Dur("interval", w.interval).Str("file", w.filename).Msg("snapshot worker started")
}

// Stop ends the loop and writes a final snapshot if anything changed
func (w *SnapshotWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.saveIfDirty()
}

func (w *SnapshotWorker) saveIfDirty() {
	if !w.store.Dirty() {
		return
	}
	if err := w.store.SaveSnapshot(w.filename); err != nil {
		w.logger.Error().Err(err).Msg("background snapshot failed")
	}
}
