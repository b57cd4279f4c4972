package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleReplaceById handles PUT requests to save a document under the given ID.
// The stored document, if any, is replaced entirely.
func (h *Handler) HandleReplaceById(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	docId := mux.Vars(r)["id"]

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	if err := c.Save(r.Context(), docId, doc); err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Str("id", docId).Msg("save failed")
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
