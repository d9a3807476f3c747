package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/rapport/internal/hermes"
	"github.com/MikeSquared-Agency/rapport/internal/insight"
	"github.com/MikeSquared-Agency/rapport/internal/store"
)

// InsightServer extends the base server with theme detection
type InsightServer struct {
	*Server
	hermes *hermes.Client
}

// ScanRequest represents the request payload for insight scans
type ScanRequest struct {
	ConversationID string   `json:"conversation_id"`
	Since          *string  `json:"since,omitempty"`     // ISO timestamp
	Threshold      *float64 `json:"threshold,omitempty"` // Topic overlap threshold
	DryRun         bool     `json:"dry_run"`             // Don't publish, just return results
}

// ScanResponse represents the response from insight scans
type ScanResponse struct {
	Clusters []insight.ThemeCluster `json:"clusters"`
	Count    int                    `json:"count"`
	DryRun   bool                   `json:"dry_run"`
}

// NewInsightServer creates a server with theme detection capabilities
func NewInsightServer(port int, apiToken string, db *store.Store, hermes *hermes.Client) *InsightServer {
	base := NewServer(port, apiToken, db)
	is := &InsightServer{
		Server: base,
		hermes: hermes,
	}

	base.router.Route("/api/v1/insights", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/scan", is.scanInsights)
		r.Get("/scan", is.scanInsightsDryRun)
	})

	return is
}

// scanInsights handles POST /api/v1/insights/scan
func (is *InsightServer) scanInsights(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" {
		http.Error(w, `{"error":"conversation_id is required"}`, http.StatusBadRequest)
		return
	}

	clusters, err := is.performScan(r.Context(), &req)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"scan failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	// If not dry run, publish theme proposals
	if !req.DryRun && len(clusters) > 0 {
		publisher := insight.NewPublisher(is.hermes)
		for _, cluster := range clusters {
			if err := publisher.PublishThemeProposal(req.ConversationID, cluster); err != nil {
				slog.Warn("failed to publish theme proposal",
					"topic", cluster.Topic,
					"cluster_size", cluster.Count,
					"error", err)
			}
		}
	}

	response := ScanResponse{
		Clusters: clusters,
		Count:    len(clusters),
		DryRun:   req.DryRun,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// scanInsightsDryRun handles GET /api/v1/insights/scan
func (is *InsightServer) scanInsightsDryRun(w http.ResponseWriter, r *http.Request) {
	req := ScanRequest{DryRun: true}

	req.ConversationID = r.URL.Query().Get("conversation_id")
	if req.ConversationID == "" {
		http.Error(w, `{"error":"conversation_id is required"}`, http.StatusBadRequest)
		return
	}

	if since := r.URL.Query().Get("since"); since != "" {
		req.Since = &since
	}

	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		threshold, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error":"invalid threshold: %v"}`, err), http.StatusBadRequest)
			return
		}
		req.Threshold = &threshold
	}

	clusters, err := is.performScan(r.Context(), &req)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"scan failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	response := ScanResponse{
		Clusters: clusters,
		Count:    len(clusters),
		DryRun:   true,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// performScan executes the theme detection and clustering logic
func (is *InsightServer) performScan(ctx context.Context, req *ScanRequest) ([]insight.ThemeCluster, error) {
	detector := insight.NewDetector(is.store)

	var since *time.Time
	if req.Since != nil {
		t, err := time.Parse(time.RFC3339, *req.Since)
		if err != nil {
			return nil, fmt.Errorf("invalid since timestamp: %w", err)
		}
		since = &t
	}

	threshold := 0.5 // Default topic overlap threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	return detector.FindThemes(ctx, req.ConversationID, since, threshold)
}
