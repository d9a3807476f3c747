package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result summarizes one dedup pass over a conversation's volleys.
type Result struct {
	ConversationID string          `json:"conversation_id"`
	Threshold      float64         `json:"threshold"`
	Execute        bool            `json:"execute"`
	Clusters       int             `json:"clusters"`
	TotalItems     int             `json:"total_items"`
	Superseded     int             `json:"superseded"`
	Survivors      int             `json:"survivors"`
	Details        []ClusterDetail `json:"details,omitempty"`
}

// ClusterDetail provides information about a specific overlap cluster.
type ClusterDetail struct {
	SurvivorID    uuid.UUID   `json:"survivor_id"`
	SupersededIDs []uuid.UUID `json:"superseded_ids"`
	Size          int         `json:"size"`
}

// Deduplicator sweeps stale volley rows left behind when re-segmentation
// shifted exchange boundaries.
type Deduplicator struct {
	pool    *pgxpool.Pool
	scanner *Scanner
	ranker  *Ranker
	logger  *slog.Logger
}

// New creates a new deduplicator instance.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		pool:    pool,
		scanner: NewScanner(pool),
		ranker:  NewRanker(pool),
		logger:  logger,
	}
}

// DeduplicateVolleys finds clusters of overlapping volley rows in a
// conversation and, when execute is set, marks everything but the survivor
// of each cluster as superseded.
func (d *Deduplicator) DeduplicateVolleys(ctx context.Context, conversationID string, threshold float64, execute bool) (*Result, error) {
	d.logger.Info("starting volley dedup", "conversation_id", conversationID, "threshold", threshold, "execute", execute)

	pairs, err := d.scanner.FindOverlappingVolleys(ctx, conversationID, threshold)
	if err != nil {
		return nil, fmt.Errorf("find overlapping volleys: %w", err)
	}

	d.logger.Info("found overlapping pairs", "count", len(pairs))

	result := &Result{
		ConversationID: conversationID,
		Threshold:      threshold,
		Execute:        execute,
	}
	if len(pairs) == 0 {
		return result, nil
	}

	clusters := d.clusterPairs(pairs)
	result.Clusters = len(clusters)
	d.logger.Info("clustered overlaps", "clusters", len(clusters))

	var allSurvivors []uuid.UUID
	var allSuperseded []uuid.UUID

	for _, cluster := range clusters {
		result.TotalItems += len(cluster)

		survivorID, err := d.ranker.RankVolleys(ctx, cluster)
		if err != nil {
			d.logger.Error("failed to rank cluster", "cluster", cluster, "error", err)
			continue
		}

		var supersededIDs []uuid.UUID
		for _, id := range cluster {
			if id != survivorID {
				supersededIDs = append(supersededIDs, id)
			}
		}

		allSurvivors = append(allSurvivors, survivorID)
		allSuperseded = append(allSuperseded, supersededIDs...)

		if execute {
			if err := d.markSuperseded(ctx, supersededIDs, survivorID); err != nil {
				d.logger.Error("failed to mark volleys superseded", "survivor", survivorID, "superseded", supersededIDs, "error", err)
				continue
			}
		}

		result.Details = append(result.Details, ClusterDetail{
			SurvivorID:    survivorID,
			SupersededIDs: supersededIDs,
			Size:          len(cluster),
		})
	}

	result.Survivors = len(allSurvivors)
	result.Superseded = len(allSuperseded)

	d.logger.Info("volley dedup completed", "survivors", result.Survivors, "superseded", result.Superseded)
	return result, nil
}

// clusterPairs groups overlapping pairs into connected components using union-find.
func (d *Deduplicator) clusterPairs(pairs []DuplicatePair) [][]uuid.UUID {
	if len(pairs) == 0 {
		return nil
	}

	parent := make(map[uuid.UUID]uuid.UUID)

	for _, pair := range pairs {
		if _, exists := parent[pair.ID1]; !exists {
			parent[pair.ID1] = pair.ID1
		}
		if _, exists := parent[pair.ID2]; !exists {
			parent[pair.ID2] = pair.ID2
		}
	}

	var find func(uuid.UUID) uuid.UUID
	find = func(id uuid.UUID) uuid.UUID {
		if parent[id] != id {
			parent[id] = find(parent[id]) // Path compression
		}
		return parent[id]
	}

	union := func(id1, id2 uuid.UUID) {
		root1 := find(id1)
		root2 := find(id2)
		if root1 != root2 {
			parent[root2] = root1
		}
	}

	for _, pair := range pairs {
		union(pair.ID1, pair.ID2)
	}

	groups := make(map[uuid.UUID][]uuid.UUID)
	for id := range parent {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	var clusters [][]uuid.UUID
	for _, cluster := range groups {
		if len(cluster) > 1 {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}

// markSuperseded updates stale volley rows to point at their survivor.
func (d *Deduplicator) markSuperseded(ctx context.Context, supersededIDs []uuid.UUID, survivorID uuid.UUID) error {
	if len(supersededIDs) == 0 {
		return nil
	}

	query := `
		UPDATE volleys
		SET superseded_at = now(), superseded_by = $1
		WHERE id = ANY($2)`

	_, err := d.pool.Exec(ctx, query, survivorID, supersededIDs)
	if err != nil {
		return fmt.Errorf("update volleys: %w", err)
	}

	return nil
}
