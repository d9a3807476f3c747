package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rapport/internal/segment"
)

// VolleyRecord is a persisted volley row.
type VolleyRecord struct {
	ID             uuid.UUID
	VolleyKey      string // content-addressed segment ID
	ConversationID string
	OwnerUUID      uuid.UUID
	Source         string
	StartTime      time.Time
	EndTime        time.Time
	Depth          int
	MessageCount   int
	Participants   []string
	PivotText      string
	CreatedAt      time.Time
}

// UpsertVolley inserts a volley row, keyed by (conversation_id, volley_key).
// Re-segmenting the same conversation produces identical keys for unchanged
// exchanges, so the conflict clause makes ingestion idempotent. Returns the
// row ID and whether a new row was written.
func (s *Store) UpsertVolley(ctx context.Context, ownerUUID uuid.UUID, conversationID, source string, v segment.Volley) (uuid.UUID, bool, error) {
	id := uuid.New()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO volleys (id, volley_key, conversation_id, owner_uuid, source, start_time, end_time, depth, message_count, participants, pivot_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (conversation_id, volley_key) DO NOTHING`,
		id, v.ID, conversationID, ownerUUID, source, v.StartTime, v.EndTime, v.Depth, v.MessageCount, v.Participants, v.PivotText,
	)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("insert volley: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already known; fetch the existing row ID.
		var existing uuid.UUID
		err := s.pool.QueryRow(ctx, `
			SELECT id FROM volleys WHERE conversation_id = $1 AND volley_key = $2`,
			conversationID, v.ID,
		).Scan(&existing)
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("fetch existing volley: %w", err)
		}
		return existing, false, nil
	}
	return id, true, nil
}

// ListVolleys returns non-superseded volleys for a conversation, newest first.
func (s *Store) ListVolleys(ctx context.Context, conversationID string, limit int) ([]VolleyRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, volley_key, conversation_id, owner_uuid, source, start_time, end_time, depth, message_count, participants, pivot_text, created_at
		FROM volleys
		WHERE conversation_id = $1 AND superseded_at IS NULL
		ORDER BY start_time DESC
		LIMIT $2`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query volleys: %w", err)
	}
	defer rows.Close()

	var out []VolleyRecord
	for rows.Next() {
		var r VolleyRecord
		if err := rows.Scan(&r.ID, &r.VolleyKey, &r.ConversationID, &r.OwnerUUID, &r.Source, &r.StartTime, &r.EndTime, &r.Depth, &r.MessageCount, &r.Participants, &r.PivotText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan volley: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// MarkVolleysSuperseded flags stale volley rows replaced by a survivor after
// re-segmentation shifted boundaries.
func (s *Store) MarkVolleysSuperseded(ctx context.Context, staleIDs []uuid.UUID, survivorID uuid.UUID) error {
	if len(staleIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE volleys
		SET superseded_at = now(), superseded_by = $1
		WHERE id = ANY($2)`,
		survivorID, staleIDs,
	)
	if err != nil {
		return fmt.Errorf("mark volleys superseded: %w", err)
	}
	return nil
}
