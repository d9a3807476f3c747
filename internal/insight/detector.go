package insight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/store"
)

// ThemeCluster represents a group of annotated volleys circling the same topic
type ThemeCluster struct {
	Topic         string        `json:"topic"`
	Count         int           `json:"count"`
	Sentiment     string        `json:"sentiment"` // dominant sentiment across the cluster
	DigestSection string        `json:"digest_section"`
	AvgWarmth     float64       `json:"avg_warmth"`
	Volleys       []ThemeVolley `json:"volleys"`
}

// ThemeVolley represents a single volley within a theme cluster
type ThemeVolley struct {
	VolleyKey string    `json:"volley_key"`
	Summary   string    `json:"summary"`
	Sentiment string    `json:"sentiment"`
	Warmth    float64   `json:"warmth"`
	StartTime time.Time `json:"start_time"`
}

// Detector finds recurring themes across a conversation's annotated volleys
type Detector struct {
	store *store.Store
}

// NewDetector creates a new theme detector
func NewDetector(store *store.Store) *Detector {
	return &Detector{store: store}
}

// FindThemes groups recently annotated volleys by topic overlap. A theme is
// worth surfacing once the same subject recurs across separate exchanges.
func (d *Detector) FindThemes(ctx context.Context, conversationID string, since *time.Time, threshold float64) ([]ThemeCluster, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5 // Default Jaccard overlap threshold
	}

	from := time.Now().AddDate(0, 0, -30)
	if since != nil {
		from = *since
	}

	annotated, err := d.store.RecentAnnotations(ctx, conversationID, from)
	if err != nil {
		return nil, fmt.Errorf("query recent annotations: %w", err)
	}

	clusters := d.clusterByTopics(annotated, threshold)

	mapper := NewMapper()
	for i := range clusters {
		sections := mapper.MapSentimentToSections(clusters[i].Sentiment)
		if len(sections) > 0 {
			clusters[i].DigestSection = sections[0]
		}
	}

	return clusters, nil
}

// clusterByTopics greedily groups volleys whose topic sets overlap above the
// threshold, seeding each cluster from the first unclustered volley.
func (d *Detector) clusterByTopics(annotated []store.AnnotatedVolley, threshold float64) []ThemeCluster {
	if len(annotated) == 0 {
		return nil
	}

	used := make(map[string]bool)
	var clusters []ThemeCluster

	for _, seed := range annotated {
		if used[seed.Annotation.VolleyKey] || len(seed.Annotation.Topics) == 0 {
			continue
		}

		members := []store.AnnotatedVolley{seed}
		used[seed.Annotation.VolleyKey] = true

		for _, other := range annotated {
			if used[other.Annotation.VolleyKey] {
				continue
			}
			if jaccard(seed.Annotation.Topics, other.Annotation.Topics) >= threshold {
				members = append(members, other)
				used[other.Annotation.VolleyKey] = true
			}
		}

		// A topic seen once is not a theme.
		if len(members) < 2 {
			continue
		}

		clusters = append(clusters, buildCluster(members))
	}

	return clusters
}

func buildCluster(members []store.AnnotatedVolley) ThemeCluster {
	c := ThemeCluster{Count: len(members)}

	topicCounts := make(map[string]int)
	sentimentCounts := make(map[string]int)
	for _, m := range members {
		for _, topic := range m.Annotation.Topics {
			topicCounts[topic]++
		}
		sentimentCounts[m.Annotation.Sentiment]++
		c.AvgWarmth += m.Annotation.Warmth
		c.Volleys = append(c.Volleys, ThemeVolley{
			VolleyKey: m.Annotation.VolleyKey,
			Summary:   m.Annotation.Summary,
			Sentiment: m.Annotation.Sentiment,
			Warmth:    m.Annotation.Warmth,
			StartTime: m.Volley.StartTime,
		})
	}
	c.AvgWarmth /= float64(len(members))

	c.Topic = maxKey(topicCounts)
	c.Sentiment = maxKey(sentimentCounts)

	sort.Slice(c.Volleys, func(i, j int) bool {
		return c.Volleys[i].StartTime.Before(c.Volleys[j].StartTime)
	})

	return c
}

// jaccard computes the Jaccard overlap of two topic label sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}

	intersection := 0
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		if setB[t] {
			continue
		}
		setB[t] = true
		if setA[t] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// maxKey returns the key with the highest count, ties broken alphabetically
// for determinism.
func maxKey(counts map[string]int) string {
	best := ""
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}
