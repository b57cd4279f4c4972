package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// BatchInsertRequest represents the request body for batch insert operations
type BatchInsertRequest struct {
	Documents map[string]domain.Document `json:"documents"`
}

// BatchInsertResponse represents the response for batch insert operations
type BatchInsertResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	InsertedCount int      `json:"inserted_count"`
	Collection    string   `json:"collection"`
	Keys          []string `json:"keys"`
}

// HandleBatchInsert handles POST requests saving many documents keyed by ID.
// Documents are saved in key order; the batch stops at the first failure and
// earlier saves stay applied.
func (h *Handler) HandleBatchInsert(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	h.logger.Info().Str("collection", c.Name()).Msg("handleBatchInsert called")

	var req BatchInsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("decoding body failed")
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Documents) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "No documents provided")
		return
	}
	if len(req.Documents) > MaxBatchSize {
		h.logger.Error().Int("count", len(req.Documents)).Msg("too many documents for batch insert")
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d documents allowed per batch", MaxBatchSize))
		return
	}

	keys := make([]string, 0, len(req.Documents))
	for key := range req.Documents {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		if err := c.Save(r.Context(), key, req.Documents[key]); err != nil {
			h.logger.Error().Err(err).Str("collection", c.Name()).Str("id", key).Int("inserted", i).Msg("batch insert failed")
			WriteJSONError(w, StatusFor(err), fmt.Sprintf("inserted %d of %d documents: %v", i, len(keys), err))
			return
		}
	}

	response := BatchInsertResponse{
		Success:       true,
		Message:       "Batch insert completed successfully",
		InsertedCount: len(keys),
		Collection:    c.Name(),
		Keys:          keys,
	}
	writeJSON(w, http.StatusCreated, response)

	h.logger.Info().Str("collection", c.Name()).Int("inserted", len(keys)).Msg("batch insert successful")
}
