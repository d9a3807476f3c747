package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rapport/internal/segment"
)

// ReplaceSessions rewrites the session rows for a conversation. Sessions are
// coarse derived groupings with no stable identity of their own, so a fresh
// segmentation run simply replaces the previous set in one transaction.
func (s *Store) ReplaceSessions(ctx context.Context, ownerUUID uuid.UUID, conversationID string, sessions []segment.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	for _, sess := range sessions {
		_, err := tx.Exec(ctx, `
			INSERT INTO sessions (id, conversation_id, owner_uuid, start_time, end_time, duration_minutes, volley_count, participants, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
			uuid.New(), conversationID, ownerUUID, sess.StartTime, sess.EndTime, sess.DurationMinutes, len(sess.Volleys), sess.Participants,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
