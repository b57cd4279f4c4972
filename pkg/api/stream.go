package api

import (
	"encoding/json"
	"net/http"
)

// HandleStream handles POST requests running the JSON query in the body and
// streaming every match as a JSON array, one document per flush.
// Pagination parameters are ignored.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	q, err := decodeQuery(r.Body)
	if err != nil {
		WriteError(w, err)
		return
	}
	cur, err := c.Find(r.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", c.Name()).Msg("find failed")
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte("[\n"))

	first := true
	docCount := 0
	for cur.Index() < cur.Count()-1 {
		doc, err := cur.Next(r.Context())
		if err != nil {
			// headers are gone; the truncated array tells the client
			h.logger.Error().Err(err).Str("collection", c.Name()).Msg("stream aborted")
			return
		}
		if doc == nil {
			continue
		}

		docJSON, err := json.Marshal(doc)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to marshal document")
			continue
		}
		if !first {
			w.Write([]byte(",\n"))
		}
		first = false

		if _, err := w.Write(docJSON); err != nil {
			h.logger.Error().Err(err).Msg("failed to write to response")
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		docCount++
	}

	w.Write([]byte("\n]"))

	h.logger.Info().Str("collection", c.Name()).Int("documents", docCount).Msg("streamed documents")
}
