package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/rapport/internal/analyzer"
)

// AnnotationRecord is a persisted volley annotation.
type AnnotationRecord struct {
	ID           uuid.UUID
	VolleyKey    string
	Sentiment    string
	Warmth       float64
	Intensity    float64
	Topics       []string
	Summary      string
	ReviewStatus string
	CreatedAt    time.Time
}

// WriteAnnotation stores an annotation keyed by the volley's content hash.
// The unique key makes annotation idempotent: a volley that resurfaces
// through re-segmentation keeps its cached annotation.
func (s *Store) WriteAnnotation(ctx context.Context, ann analyzer.Annotation) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO annotations (id, volley_key, sentiment, warmth, intensity, topics, summary, review_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', now())
		ON CONFLICT (volley_key) DO NOTHING`,
		id, ann.VolleyID, ann.Sentiment, ann.Warmth, ann.Intensity, ann.Topics, ann.Summary,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert annotation: %w", err)
	}
	return id, nil
}

// GetAnnotation fetches the annotation for a volley key, or nil when the
// volley has not been annotated yet.
func (s *Store) GetAnnotation(ctx context.Context, volleyKey string) (*AnnotationRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, volley_key, sentiment, warmth, intensity, topics, summary, review_status, created_at
		FROM annotations
		WHERE volley_key = $1`,
		volleyKey,
	)

	var r AnnotationRecord
	err := row.Scan(&r.ID, &r.VolleyKey, &r.Sentiment, &r.Warmth, &r.Intensity, &r.Topics, &r.Summary, &r.ReviewStatus, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get annotation: %w", err)
	}
	return &r, nil
}

// UpdateAnnotationReviewStatus records a human verdict on an annotation.
func (s *Store) UpdateAnnotationReviewStatus(ctx context.Context, volleyKey, status, note string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE annotations SET review_status = $1, review_note = $2, reviewed_at = now()
		WHERE volley_key = $3`,
		status, note, volleyKey,
	)
	return err
}

// RecentAnnotations returns annotations created since the given time,
// joined with their volley metadata, for insight scans.
type AnnotatedVolley struct {
	Annotation AnnotationRecord
	Volley     VolleyRecord
}

func (s *Store) RecentAnnotations(ctx context.Context, conversationID string, since time.Time) ([]AnnotatedVolley, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.volley_key, a.sentiment, a.warmth, a.intensity, a.topics, a.summary, a.review_status, a.created_at,
		       v.id, v.conversation_id, v.owner_uuid, v.source, v.start_time, v.end_time, v.depth, v.message_count, v.participants, v.pivot_text, v.created_at
		FROM annotations a
		JOIN volleys v ON v.volley_key = a.volley_key
		WHERE v.conversation_id = $1
		  AND v.superseded_at IS NULL
		  AND a.review_status <> 'rejected'
		  AND a.created_at >= $2
		ORDER BY v.start_time ASC`,
		conversationID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent annotations: %w", err)
	}
	defer rows.Close()

	var out []AnnotatedVolley
	for rows.Next() {
		var av AnnotatedVolley
		err := rows.Scan(
			&av.Annotation.ID, &av.Annotation.VolleyKey, &av.Annotation.Sentiment, &av.Annotation.Warmth,
			&av.Annotation.Intensity, &av.Annotation.Topics, &av.Annotation.Summary, &av.Annotation.ReviewStatus, &av.Annotation.CreatedAt,
			&av.Volley.ID, &av.Volley.ConversationID, &av.Volley.OwnerUUID, &av.Volley.Source,
			&av.Volley.StartTime, &av.Volley.EndTime, &av.Volley.Depth, &av.Volley.MessageCount,
			&av.Volley.Participants, &av.Volley.PivotText, &av.Volley.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan annotated volley: %w", err)
		}
		av.Volley.VolleyKey = av.Annotation.VolleyKey
		out = append(out, av)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
