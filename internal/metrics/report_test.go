package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/store"
)

func annotated(sentiment string, intensity float64, depth, msgCount int, end time.Time) store.AnnotatedVolley {
	return store.AnnotatedVolley{
		Annotation: store.AnnotationRecord{Sentiment: sentiment, Intensity: intensity},
		Volley:     store.VolleyRecord{Depth: depth, MessageCount: msgCount, EndTime: end},
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	s := BuildSnapshot("alice-chen", nil, time.Now())

	if s.Volleys != 0 {
		t.Errorf("Volleys = %d, want 0", s.Volleys)
	}
	if s.Warmth != baselineWarmth {
		t.Errorf("Warmth = %f, want baseline %f", s.Warmth, baselineWarmth)
	}
}

func TestBuildSnapshot_FoldsInOrder(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	volleys := []store.AnnotatedVolley{
		annotated("warm", 1.0, 2, 3, now.Add(-2*time.Hour)),
		annotated("tense", 1.0, 4, 5, now.Add(-1*time.Hour)),
	}

	s := BuildSnapshot("alice-chen", volleys, now)

	// 0.5 + 0.04, then tense: -0.03 * 1.5 = -0.045
	want := 0.5 + 0.04 - 0.045
	if math.Abs(s.Warmth-want) > 0.0001 {
		t.Errorf("Warmth = %f, want %f", s.Warmth, want)
	}

	// Reciprocity: 2/2=1.0 and 4/4=1.0 → avg 1.0
	if math.Abs(s.AvgReciprocity-1.0) > 0.0001 {
		t.Errorf("AvgReciprocity = %f, want 1.0", s.AvgReciprocity)
	}

	// Engagement: 2/6 and 4/6 → avg 0.5
	if math.Abs(s.AvgEngagement-0.5) > 0.0001 {
		t.Errorf("AvgEngagement = %f, want 0.5", s.AvgEngagement)
	}

	if s.Sentiments["warm"] != 1 || s.Sentiments["tense"] != 1 {
		t.Errorf("Sentiments = %v", s.Sentiments)
	}
	if !s.LastVolleyAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("LastVolleyAt = %v", s.LastVolleyAt)
	}
}

func TestBuildSnapshot_IdleDecay(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	volleys := []store.AnnotatedVolley{
		annotated("warm", 1.0, 2, 3, now.AddDate(0, 0, -10)),
	}

	s := BuildSnapshot("alice-chen", volleys, now)

	// 0.54 decayed toward 0.5 over 10 days; still above neutral but below
	// the undecayed score.
	if s.Warmth >= 0.54 || s.Warmth <= 0.5 {
		t.Errorf("Warmth = %f, want decayed value in (0.5, 0.54)", s.Warmth)
	}
}
