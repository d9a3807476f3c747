package metrics

import (
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/store"
)

// baselineWarmth is the neutral starting score for a conversation with no
// annotated history.
const baselineWarmth = 0.5

// dailyDecayRate cools an untouched relationship toward neutral.
const dailyDecayRate = 0.02

// Snapshot is the current relationship read for one conversation, folded
// from its annotated volleys in chronological order.
type Snapshot struct {
	ConversationID string         `json:"conversation_id"`
	Volleys        int            `json:"volleys"`
	Warmth         float64        `json:"warmth"`
	AvgReciprocity float64        `json:"avg_reciprocity"`
	AvgEngagement  float64        `json:"avg_engagement"`
	Sentiments     map[string]int `json:"sentiments"`
	LastVolleyAt   time.Time      `json:"last_volley_at"`
}

// BuildSnapshot folds annotated volleys into a relationship snapshot. The
// input must be in chronological order; warmth is path-dependent. Idle days
// since the last volley decay warmth toward neutral.
func BuildSnapshot(conversationID string, annotated []store.AnnotatedVolley, now time.Time) Snapshot {
	s := Snapshot{
		ConversationID: conversationID,
		Warmth:         baselineWarmth,
		Sentiments:     make(map[string]int),
	}

	if len(annotated) == 0 {
		return s
	}

	recipSum := 0.0
	engageSum := 0.0

	for _, av := range annotated {
		s.Warmth = UpdateWarmth(s.Warmth, av.Annotation.Sentiment, av.Annotation.Intensity)
		recipSum += Reciprocity(av.Volley.Depth, av.Volley.MessageCount)
		engageSum += Engagement(av.Volley.Depth)
		s.Sentiments[av.Annotation.Sentiment]++
		if av.Volley.EndTime.After(s.LastVolleyAt) {
			s.LastVolleyAt = av.Volley.EndTime
		}
	}

	s.Volleys = len(annotated)
	s.AvgReciprocity = recipSum / float64(len(annotated))
	s.AvgEngagement = engageSum / float64(len(annotated))

	if idleDays := int(now.Sub(s.LastVolleyAt).Hours() / 24); idleDays > 0 {
		s.Warmth = DecayWarmth(s.Warmth, dailyDecayRate, idleDays)
	}

	return s
}
