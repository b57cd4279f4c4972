package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDeleteById handles DELETE requests to remove a specific document by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	docId := mux.Vars(r)["id"]

	if err := c.Remove(r.Context(), docId); err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Str("id", docId).Msg("delete failed")
		WriteError(w, err)
		return
	}

	h.logger.Info().Str("collection", c.Name()).Str("id", docId).Msg("deleted document")
	w.WriteHeader(http.StatusNoContent)
}
