package api

import (
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// IndexesResponse describes the indexes of one collection
type IndexesResponse struct {
	Success    bool               `json:"success"`
	Collection string             `json:"collection"`
	Indexes    []domain.IndexInfo `json:"indexes"`
	IndexCount int                `json:"index_count"`
	Documents  int                `json:"documents"`
}

// HandleGetIndexes handles GET requests to retrieve all indexes for a collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	indexes := c.Indexes()
	writeJSON(w, http.StatusOK, IndexesResponse{
		Success:    true,
		Collection: c.Name(),
		Indexes:    indexes,
		IndexCount: len(indexes),
		Documents:  c.Stats().Documents,
	})
}
