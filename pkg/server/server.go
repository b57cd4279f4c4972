// Package server wires configured collections, their storage and the HTTP API together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/api"
	"github.com/adfharrison1/go-docdb/pkg/collection"
	"github.com/adfharrison1/go-docdb/pkg/config"
	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/storage"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Server holds the storage backend, the collections and the router
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	router *mux.Router

	storage   domain.Storage
	memory    *storage.MemoryStorage
	badger    *storage.BadgerStorage
	snapshots *storage.SnapshotWorker

	mu          sync.RWMutex
	collections map[string]*collection.Collection
}

// New opens the configured storage and initializes every collection,
// indexing the documents already stored.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		router:      mux.NewRouter(),
		collections: make(map[string]*collection.Collection, len(cfg.Collections)),
	}

	if err := collection.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := s.openStorage(); err != nil {
		return nil, err
	}
	for _, cc := range cfg.Collections {
		if err := s.addCollection(ctx, cc); err != nil {
			s.Close()
			return nil, err
		}
	}
	if s.snapshots != nil {
		s.snapshots.Start()
	}

	api.NewHandler(s, logger).RegisterRoutes(s.router)
	s.router.Use(s.requestLoggerMiddleware)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("no route found")
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})

	return s, nil
}

func (s *Server) openStorage() error {
	sc := s.cfg.Storage
	opts := []storage.Option{storage.WithLogger(s.logger)}

	switch sc.Backend {
	case config.BackendMemory:
		s.memory = storage.NewMemoryStorage(opts...)
		s.storage = s.memory
		if sc.SnapshotFile != "" {
			if err := s.memory.LoadSnapshot(sc.SnapshotFile); err != nil {
				return fmt.Errorf("failed to load snapshot %s: %w", sc.SnapshotFile, err)
			}
			s.snapshots = storage.NewSnapshotWorker(s.memory, sc.SnapshotFile, sc.SnapshotInterval, s.logger)
		}
	case config.BackendDisk:
		s.storage = storage.NewDiskStorage(sc.Dir, opts...)
	case config.BackendBadger:
		db, err := storage.OpenBadgerStorage(sc.Dir, opts...)
		if err != nil {
			return err
		}
		s.badger = db
		s.storage = db
	default:
		return fmt.Errorf("unknown storage backend %q", sc.Backend)
	}

	if sc.CacheSize > 0 {
		cached, err := storage.NewCachedStorage(s.storage, sc.CacheSize)
		if err != nil {
			return err
		}
		s.storage = cached
	}

	s.logger.Info().Str("backend", sc.Backend).Int("cache_size", sc.CacheSize).Msg("storage ready")
	return nil
}

func (s *Server) addCollection(ctx context.Context, cc config.CollectionConfig) error {
	decls, err := cc.Declarations()
	if err != nil {
		return err
	}
	c, err := collection.New(cc.Path, s.storage, decls,
		collection.WithLogger(s.logger.With().Str("collection", cc.Name).Logger()))
	if err != nil {
		return fmt.Errorf("collection %s: %w", cc.Name, err)
	}

	start := time.Now()
	if err := c.Init(ctx); err != nil {
		return fmt.Errorf("collection %s: %w", cc.Name, err)
	}
	s.logger.Info().
		Str("collection", cc.Name).
		Int("documents", c.Stats().Documents).
		Int("indexes", len(decls)).
		Dur("took", time.Since(start)).
		Msg("collection initialized")

	s.mu.Lock()
	s.collections[cc.Name] = c
	s.mu.Unlock()
	return nil
}

// Collection returns the named collection
func (s *Server) Collection(name string) (*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return c, nil
}

// CollectionNames lists the configured collections in sorted order
func (s *Server) CollectionNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLoggerMiddleware logs the method, URL path, and duration for each request.
func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe serves the API on the configured port until ctx is done,
// then shuts down within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("starting go-docdb server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Close stops the snapshot worker, writing a final snapshot, and closes the storage backend
func (s *Server) Close() error {
	if s.snapshots != nil {
		s.snapshots.Stop()
	}
	if s.badger != nil {
		if err := s.badger.Close(); err != nil {
			return fmt.Errorf("failed to close badger: %w", err)
		}
	}
	s.logger.Info().Msg("server closed")
	return nil
}
