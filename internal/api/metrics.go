package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/rapport/internal/metrics"
)

// conversationMetrics handles GET /api/v1/conversations/{conversationID}/metrics.
func (s *Server) conversationMetrics(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	since := time.Now().AddDate(0, -3, 0)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		t, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"invalid since: %q"}`, sinceStr), http.StatusBadRequest)
			return
		}
		since = t
	}

	annotated, err := s.store.RecentAnnotations(r.Context(), conversationID, since)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"load annotations: %v"}`, err), http.StatusInternalServerError)
		return
	}

	snapshot := metrics.BuildSnapshot(conversationID, annotated, time.Now())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
