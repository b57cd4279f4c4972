package api

import (
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/storage"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string                 `json:"status"`
	Message     string                 `json:"message"`
	Collections int                    `json:"collections"`
	Memory      map[string]interface{} `json:"memory"`
}

// HandleHealth handles GET requests to the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "healthy",
		Message:     "go-docdb is running",
		Collections: len(h.db.CollectionNames()),
		Memory:      storage.GetMemoryStats(),
	}

	writeJSON(w, http.StatusOK, response)
}
