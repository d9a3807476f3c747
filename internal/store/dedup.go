package store

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/rapport/internal/dedup"
)

// GetDeduplicator returns a deduplicator instance using the store's connection pool.
func (s *Store) GetDeduplicator(logger *slog.Logger) *dedup.Deduplicator {
	return dedup.New(s.pool, logger)
}

// DeduplicateVolleys removes overlapping volley rows left behind when
// adaptive timeouts shifted segmentation boundaries for a conversation.
func (s *Store) DeduplicateVolleys(ctx context.Context, conversationID string, threshold float64, execute bool, logger *slog.Logger) (*dedup.Result, error) {
	deduper := s.GetDeduplicator(logger)
	return deduper.DeduplicateVolleys(ctx, conversationID, threshold, execute)
}
