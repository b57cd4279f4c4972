package api

import (
	"encoding/json"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/google/uuid"
)

// InsertResponse carries the key generated for an inserted document
type InsertResponse struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

// HandleInsert handles POST requests to insert a document under a generated key
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	h.logger.Info().Str("collection", c.Name()).Msg("handleInsert called")

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.logger.Error().Err(err).Msg("decoding body failed")
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	key := uuid.NewString()
	if err := c.Save(r.Context(), key, doc); err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Msg("insert failed")
		WriteError(w, err)
		return
	}

	h.logger.Info().Str("collection", c.Name()).Str("id", key).Msg("insert successful")
	writeJSON(w, http.StatusCreated, InsertResponse{ID: key, Collection: c.Name()})
}
