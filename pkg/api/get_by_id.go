package api

import (
	"fmt"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleGetById handles GET requests to retrieve a specific document by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	docId := mux.Vars(r)["id"]

	doc, err := c.Load(r.Context(), docId)
	if err == nil && doc == nil {
		err = fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docId)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Str("id", docId).Msg("get failed")
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
