package dedup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DuplicatePair represents two volley rows covering overlapping time spans.
type DuplicatePair struct {
	ID1     uuid.UUID
	ID2     uuid.UUID
	Overlap float64 // fraction of the shorter span covered by the overlap
}

// Scanner finds overlapping volley rows. Adaptive timeouts mean a growing
// conversation can re-segment with shifted boundaries, leaving stale rows
// whose spans overlap the fresh ones under different volley keys.
type Scanner struct {
	pool *pgxpool.Pool
}

// NewScanner creates a new scanner instance.
func NewScanner(pool *pgxpool.Pool) *Scanner {
	return &Scanner{pool: pool}
}

// FindOverlappingVolleys finds volley pairs within one conversation whose
// time spans overlap by more than the threshold fraction.
func (s *Scanner) FindOverlappingVolleys(ctx context.Context, conversationID string, threshold float64) ([]DuplicatePair, error) {
	query := `
		SELECT a.id, b.id,
		       EXTRACT(EPOCH FROM (LEAST(a.end_time, b.end_time) - GREATEST(a.start_time, b.start_time)))
		         / GREATEST(EXTRACT(EPOCH FROM LEAST(a.end_time - a.start_time, b.end_time - b.start_time)), 1) AS overlap
		FROM volleys a, volleys b
		WHERE a.conversation_id = $1 AND b.conversation_id = $1
		  AND a.id < b.id
		  AND a.volley_key <> b.volley_key
		  AND a.superseded_at IS NULL AND b.superseded_at IS NULL
		  AND a.start_time <= b.end_time AND b.start_time <= a.end_time
		  AND EXTRACT(EPOCH FROM (LEAST(a.end_time, b.end_time) - GREATEST(a.start_time, b.start_time)))
		        / GREATEST(EXTRACT(EPOCH FROM LEAST(a.end_time - a.start_time, b.end_time - b.start_time)), 1) > $2
		ORDER BY overlap DESC`

	rows, err := s.pool.Query(ctx, query, conversationID, threshold)
	if err != nil {
		return nil, fmt.Errorf("query overlapping volleys: %w", err)
	}
	defer rows.Close()

	var pairs []DuplicatePair
	for rows.Next() {
		var pair DuplicatePair
		if err := rows.Scan(&pair.ID1, &pair.ID2, &pair.Overlap); err != nil {
			return nil, fmt.Errorf("scan duplicate pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return pairs, nil
}
