package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// BatchUpdateRequest represents the request body for batch update operations
type BatchUpdateRequest struct {
	Operations []BatchUpdateOperation `json:"operations"`
}

// BatchUpdateOperation represents a single update operation in the request
type BatchUpdateOperation struct {
	ID      string          `json:"id"`
	Updates domain.Document `json:"updates"`
}

// BatchUpdateResponse represents the response for batch update operations
type BatchUpdateResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	UpdatedCount int               `json:"updated_count"`
	FailedCount  int               `json:"failed_count"`
	Collection   string            `json:"collection"`
	Documents    []domain.Document `json:"documents"`
	Errors       []string          `json:"errors,omitempty"`
}

// HandleBatchUpdate handles PATCH requests applying partial updates to many documents.
// Each operation succeeds or fails on its own.
func (h *Handler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}

	h.logger.Info().Str("collection", c.Name()).Msg("handleBatchUpdate called")

	var req BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("decoding body failed")
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Operations) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "No operations provided")
		return
	}
	if len(req.Operations) > MaxBatchSize {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d operations allowed per batch", MaxBatchSize))
		return
	}

	response := BatchUpdateResponse{
		Collection: c.Name(),
		Documents:  []domain.Document{},
	}
	for _, op := range req.Operations {
		doc, err := c.Update(r.Context(), op.ID, op.Updates)
		if err != nil {
			response.FailedCount++
			response.Errors = append(response.Errors, fmt.Sprintf("%s: %v", op.ID, err))
			continue
		}
		response.UpdatedCount++
		response.Documents = append(response.Documents, doc)
	}

	status := http.StatusOK
	switch {
	case response.UpdatedCount == 0:
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("all %d updates failed: %s", response.FailedCount, response.Errors[0]))
		return
	case response.FailedCount > 0:
		status = http.StatusPartialContent
		response.Message = "Batch update partially completed"
	default:
		response.Success = true
		response.Message = "Batch update completed successfully"
	}
	writeJSON(w, status, response)

	h.logger.Info().
		Str("collection", c.Name()).
		Int("updated", response.UpdatedCount).
		Int("failed", response.FailedCount).
		Msg("batch update completed")
}
