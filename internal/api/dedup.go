package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// dedupVolleys handles POST /api/v1/conversations/{conversationID}/dedup.
// Re-segmentation under adaptive timeouts can leave overlapping volley rows
// behind; this collapses each overlap cluster to its best row. Without
// execute=true it only reports what would be superseded.
func (s *Server) dedupVolleys(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	threshold := 0.5
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		t, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil || t <= 0 || t > 1 {
			http.Error(w, fmt.Sprintf(`{"error":"invalid threshold: %q"}`, thresholdStr), http.StatusBadRequest)
			return
		}
		threshold = t
	}

	execute := r.URL.Query().Get("execute") == "true"

	result, err := s.store.DeduplicateVolleys(r.Context(), conversationID, threshold, execute, slog.Default())
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"dedup failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
