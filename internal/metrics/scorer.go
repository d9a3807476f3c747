package metrics

import "time"

// SentimentWeight returns the warmth-score increment for a volley's
// dominant sentiment.
func SentimentWeight(sentiment string) float64 {
	switch sentiment {
	case "warm":
		return 0.04
	case "playful":
		return 0.03
	case "neutral":
		return 0.01
	case "tense":
		return -0.03
	case "cold":
		return -0.05
	default:
		return 0.0
	}
}

// UpdateWarmth calculates the new running warmth score after an annotated
// volley.
//
// Formula: new_score = old_score + (sentiment_weight x intensity)
// Cooling is asymmetric: negative sentiment counts 1.5x, since a single
// tense exchange outweighs a routine pleasant one.
func UpdateWarmth(currentScore float64, sentiment string, intensity float64) float64 {
	weight := SentimentWeight(sentiment) * clampUnit(intensity)
	if weight < 0 {
		weight *= 1.5
	}
	return clampUnit(currentScore + weight)
}

// Reciprocity scores how two-sided a volley was: speaker changes relative
// to the maximum possible for its message count. A monologue scores 0, a
// strict alternation scores 1.
func Reciprocity(depth, messageCount int) float64 {
	if messageCount < 2 {
		return 0.0
	}
	return clampUnit(float64(depth) / float64(messageCount-1))
}

// Responsiveness scores reply latency against the volley timeout that
// bounded the exchange: instant replies approach 1, replies near the
// timeout approach 0.
func Responsiveness(medianGap, volleyTimeout time.Duration) float64 {
	if volleyTimeout <= 0 {
		return 0.0
	}
	if medianGap <= 0 {
		return 1.0
	}
	return clampUnit(1.0 - float64(medianGap)/float64(volleyTimeout))
}

// Engagement scores a volley's interactivity from its depth: depth 0-1 is
// monologue-like, depth 6+ saturates at 1.
func Engagement(depth int) float64 {
	return clampUnit(float64(depth) / 6.0)
}

// DecayWarmth applies daily decay toward neutral (0.5) for conversations
// with no recent volleys. decayRate is typically 0.02 per day.
func DecayWarmth(currentScore float64, decayRate float64, days int) float64 {
	score := currentScore
	for i := 0; i < days; i++ {
		score = 0.5 + (score-0.5)*(1.0-decayRate)
	}
	return clampUnit(score)
}

func clampUnit(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
