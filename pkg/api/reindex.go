package api

import (
	"net/http"
	"time"
)

// ReindexResponse reports a completed rebuild
type ReindexResponse struct {
	Success    bool   `json:"success"`
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
	Took       string `json:"took"`
}

// HandleReindex handles POST requests rebuilding every index of a collection from storage
func (h *Handler) HandleReindex(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if err := c.IndexAllDocuments(r.Context()); err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Msg("reindex failed")
		WriteError(w, err)
		return
	}

	took := time.Since(start)
	h.logger.Info().Str("collection", c.Name()).Dur("took", took).Msg("reindexed collection")
	writeJSON(w, http.StatusOK, ReindexResponse{
		Success:    true,
		Collection: c.Name(),
		Documents:  c.Stats().Documents,
		Took:       took.String(),
	})
}
