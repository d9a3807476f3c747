package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VolleyRow holds the fields used to rank overlapping volley rows.
type VolleyRow struct {
	ID           uuid.UUID
	MessageCount int
	Depth        int
	CreatedAt    time.Time
}

// Ranker picks survivors from clusters of overlapping volley rows.
type Ranker struct {
	pool *pgxpool.Pool
}

// NewRanker creates a new ranker instance.
func NewRanker(pool *pgxpool.Pool) *Ranker {
	return &Ranker{pool: pool}
}

// RankVolleys picks the best row from a cluster of overlapping volley IDs.
// The row covering the most messages wins; newer ingestion breaks ties,
// since a later segmentation run saw more of the conversation.
func (r *Ranker) RankVolleys(ctx context.Context, ids []uuid.UUID) (uuid.UUID, error) {
	if len(ids) == 0 {
		return uuid.Nil, fmt.Errorf("empty cluster")
	}
	if len(ids) == 1 {
		return ids[0], nil
	}

	query := `
		SELECT id, message_count, depth, created_at
		FROM volleys
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch volleys: %w", err)
	}
	defer rows.Close()

	var records []VolleyRow
	for rows.Next() {
		var rec VolleyRow
		if err := rows.Scan(&rec.ID, &rec.MessageCount, &rec.Depth, &rec.CreatedAt); err != nil {
			return uuid.Nil, fmt.Errorf("scan volley: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("rows error: %w", err)
	}

	if len(records) == 0 {
		return uuid.Nil, fmt.Errorf("no records found")
	}

	best := records[0]
	for _, rec := range records[1:] {
		if isVolleyBetter(rec, best) {
			best = rec
		}
	}

	return best.ID, nil
}

// isVolleyBetter determines if row a should survive over row b.
func isVolleyBetter(a, b VolleyRow) bool {
	if a.MessageCount != b.MessageCount {
		return a.MessageCount > b.MessageCount
	}
	if a.Depth != b.Depth {
		return a.Depth > b.Depth
	}
	return a.CreatedAt.After(b.CreatedAt)
}
