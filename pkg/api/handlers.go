// Package api exposes collections over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/collection"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// MaxBatchSize caps the number of documents or operations in one batch request
const MaxBatchSize = 1000

// Database resolves collections by name
type Database interface {
	Collection(name string) (*collection.Collection, error)
	CollectionNames() []string
}

// Handler provides HTTP handlers for the database API
type Handler struct {
	db     Database
	logger zerolog.Logger
}

// NewHandler creates a new API handler serving the collections of db
func NewHandler(db Database, logger zerolog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
	}
}

// collection resolves the {coll} route variable, writing an error response when it is unknown
func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (*collection.Collection, bool) {
	collName := mux.Vars(r)["coll"]
	c, err := h.db.Collection(collName)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collName).Msg("collection lookup failed")
		WriteError(w, err)
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
