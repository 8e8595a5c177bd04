package server

import (
	"net/http"
	"strconv"

	"github.com/motivaitor/insight/internal/index"
)

// handleGetContext returns the formatted context block for prompt
// construction together with the raw hits it was built from.
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	docs := s.gateway.Documents(r.Context(), ownerParam(r), query, limit)
	if docs == nil {
		docs = []index.Result{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"context":   s.gateway.Format(docs),
		"documents": docs,
	})
}
