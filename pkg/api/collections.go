package api

import (
	"net/http"
)

// HandleListCollections handles GET requests listing collection names
func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	names := h.db.CollectionNames()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collections": names,
		"count":       len(names),
	})
}
