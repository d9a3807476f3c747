package insight

import (
	"math"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/store"
)

func annotatedVolley(key, sentiment string, warmth float64, topics ...string) store.AnnotatedVolley {
	return store.AnnotatedVolley{
		Annotation: store.AnnotationRecord{
			VolleyKey: key,
			Sentiment: sentiment,
			Warmth:    warmth,
			Topics:    topics,
			Summary:   "summary for " + key,
		},
		Volley: store.VolleyRecord{
			VolleyKey: key,
			StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1.0},
		{"disjoint", []string{"x"}, []string{"y"}, 0.0},
		{"half overlap", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"empty a", nil, []string{"x"}, 0.0},
		{"both empty", nil, nil, 0.0},
		{"duplicate labels collapse", []string{"x", "x"}, []string{"x"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("jaccard(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClusterByTopics_RequiresRecurrence(t *testing.T) {
	d := &Detector{}

	// Two volleys with unrelated topics: no theme.
	annotated := []store.AnnotatedVolley{
		annotatedVolley("v1", "warm", 0.8, "weekend plans"),
		annotatedVolley("v2", "neutral", 0.5, "tax paperwork"),
	}
	clusters := d.clusterByTopics(annotated, 0.5)
	if len(clusters) != 0 {
		t.Errorf("expected 0 clusters for one-off topics, got %d", len(clusters))
	}
}

func TestClusterByTopics_GroupsRecurringTopic(t *testing.T) {
	d := &Detector{}

	annotated := []store.AnnotatedVolley{
		annotatedVolley("v1", "warm", 0.8, "weekend plans"),
		annotatedVolley("v2", "warm", 0.9, "weekend plans"),
		annotatedVolley("v3", "tense", 0.2, "money"),
		annotatedVolley("v4", "cold", 0.1, "money"),
		annotatedVolley("v5", "neutral", 0.5, "grocery run"),
	}
	clusters := d.clusterByTopics(annotated, 0.5)

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}

	byTopic := make(map[string]ThemeCluster)
	for _, c := range clusters {
		byTopic[c.Topic] = c
	}

	plans, ok := byTopic["weekend plans"]
	if !ok {
		t.Fatal("expected a 'weekend plans' cluster")
	}
	if plans.Count != 2 || plans.Sentiment != "warm" {
		t.Errorf("plans cluster = %+v", plans)
	}
	if math.Abs(plans.AvgWarmth-0.85) > 0.001 {
		t.Errorf("plans avg warmth = %f, want 0.85", plans.AvgWarmth)
	}

	money, ok := byTopic["money"]
	if !ok {
		t.Fatal("expected a 'money' cluster")
	}
	if money.Count != 2 {
		t.Errorf("money cluster count = %d, want 2", money.Count)
	}
	// Tie between tense and cold resolves alphabetically: cold.
	if money.Sentiment != "cold" {
		t.Errorf("money cluster sentiment = %q, want cold", money.Sentiment)
	}
}

func TestClusterByTopics_SkipsTopicless(t *testing.T) {
	d := &Detector{}

	annotated := []store.AnnotatedVolley{
		annotatedVolley("v1", "neutral", 0.5),
		annotatedVolley("v2", "neutral", 0.5),
	}
	clusters := d.clusterByTopics(annotated, 0.5)
	if len(clusters) != 0 {
		t.Errorf("expected 0 clusters for topicless volleys, got %d", len(clusters))
	}
}

func TestMaxKey_DeterministicTies(t *testing.T) {
	counts := map[string]int{"zebra": 2, "apple": 2, "mid": 1}
	if got := maxKey(counts); got != "apple" {
		t.Errorf("maxKey = %q, want alphabetical tie-break apple", got)
	}
}
