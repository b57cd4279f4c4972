package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/collections", h.HandleListCollections).Methods("GET")

	// Document operations
	router.HandleFunc("/collections/{coll}/documents", h.HandleInsert).Methods("POST")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleGetById).Methods("GET")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleReplaceById).Methods("PUT")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleUpdateById).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleDeleteById).Methods("DELETE")

	// Batch operations
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchInsert).Methods("POST")
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchUpdate).Methods("PATCH")

	// Queries
	router.HandleFunc("/collections/{coll}/find", h.HandleFind).Methods("POST")
	router.HandleFunc("/collections/{coll}/find", h.HandleFindByParams).Methods("GET")
	router.HandleFunc("/collections/{coll}/stream", h.HandleStream).Methods("POST")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/collections/{coll}/reindex", h.HandleReindex).Methods("POST")
}
