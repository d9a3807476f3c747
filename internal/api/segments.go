package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/rapport/internal/segment"
)

// SegmentRequest carries raw messages for ad-hoc segmentation.
type SegmentRequest struct {
	Messages []struct {
		Sender    string `json:"sender"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"` // RFC3339
	} `json:"messages"`
}

// segmentMessages handles POST /api/v1/segment: run the full segmentation
// pipeline over the posted messages and return turns, volleys and sessions.
// Nothing is persisted; this is the inspection endpoint for tuning.
func (s *Server) segmentMessages(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}

	msgs := make([]segment.Message, 0, len(req.Messages))
	for i, m := range req.Messages {
		ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"message %d: invalid timestamp %q"}`, i, m.Timestamp), http.StatusBadRequest)
			return
		}
		msgs = append(msgs, segment.Message{
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: ts,
		})
	}

	result := segment.Full(msgs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// listVolleys handles GET /api/v1/conversations/{conversationID}/volleys.
func (s *Server) listVolleys(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf(`{"error":"invalid limit: %q"}`, limitStr), http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.store.ListVolleys(r.Context(), conversationID, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"list volleys: %v"}`, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversation_id": conversationID,
		"volleys":         records,
		"count":           len(records),
	})
}
