package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleUpdateById handles PATCH requests merging fields into a stored document
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	docId := mux.Vars(r)["id"]

	h.logger.Info().Str("collection", c.Name()).Str("id", docId).Msg("handleUpdateById called")

	var updates domain.Document
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.logger.Error().Err(err).Msg("decoding body failed")
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := c.Update(r.Context(), docId, updates)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Str("id", docId).Msg("update failed")
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
