package metrics

import (
	"math"
	"testing"
	"time"
)

func TestSentimentWeight(t *testing.T) {
	tests := []struct {
		name      string
		sentiment string
		want      float64
	}{
		{"warm", "warm", 0.04},
		{"playful", "playful", 0.03},
		{"neutral", "neutral", 0.01},
		{"tense", "tense", -0.03},
		{"cold", "cold", -0.05},
		{"unknown is inert", "banana", 0.0},
		{"empty is inert", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SentimentWeight(tt.sentiment)
			if got != tt.want {
				t.Errorf("SentimentWeight(%q) = %f, want %f", tt.sentiment, got, tt.want)
			}
		})
	}
}

func TestUpdateWarmth_Positive(t *testing.T) {
	tests := []struct {
		name      string
		current   float64
		sentiment string
		intensity float64
		want      float64
	}{
		{"warm full intensity", 0.5, "warm", 1.0, 0.54},
		{"warm half intensity", 0.5, "warm", 0.5, 0.52},
		{"neutral barely moves", 0.5, "neutral", 1.0, 0.51},
		{"clamped at 1.0", 0.99, "warm", 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateWarmth(tt.current, tt.sentiment, tt.intensity)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("UpdateWarmth(%f, %q, %f) = %f, want %f", tt.current, tt.sentiment, tt.intensity, got, tt.want)
			}
		})
	}
}

func TestUpdateWarmth_NegativeAsymmetry(t *testing.T) {
	// A tense exchange cools 1.5x harder than its nominal weight.
	got := UpdateWarmth(0.5, "tense", 1.0)
	want := 0.5 - 0.03*1.5
	if math.Abs(got-want) > 0.001 {
		t.Errorf("UpdateWarmth(0.5, tense, 1.0) = %f, want %f", got, want)
	}

	// Clamped at 0.
	if got := UpdateWarmth(0.02, "cold", 1.0); got != 0.0 {
		t.Errorf("expected clamp at 0.0, got %f", got)
	}
}

func TestReciprocity(t *testing.T) {
	tests := []struct {
		name         string
		depth        int
		messageCount int
		want         float64
	}{
		{"monologue", 0, 5, 0.0},
		{"strict alternation", 4, 5, 1.0},
		{"half", 2, 5, 0.5},
		{"single message", 0, 1, 0.0},
		{"empty", 0, 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reciprocity(tt.depth, tt.messageCount)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Reciprocity(%d, %d) = %f, want %f", tt.depth, tt.messageCount, got, tt.want)
			}
		})
	}
}

func TestResponsiveness(t *testing.T) {
	timeout := 10 * time.Minute

	if got := Responsiveness(0, timeout); got != 1.0 {
		t.Errorf("instant reply = %f, want 1.0", got)
	}
	if got := Responsiveness(5*time.Minute, timeout); math.Abs(got-0.5) > 0.001 {
		t.Errorf("half-timeout reply = %f, want 0.5", got)
	}
	if got := Responsiveness(15*time.Minute, timeout); got != 0.0 {
		t.Errorf("over-timeout reply = %f, want 0.0", got)
	}
	if got := Responsiveness(time.Minute, 0); got != 0.0 {
		t.Errorf("zero timeout = %f, want 0.0", got)
	}
}

func TestEngagement(t *testing.T) {
	if got := Engagement(0); got != 0.0 {
		t.Errorf("depth 0 = %f, want 0.0", got)
	}
	if got := Engagement(3); math.Abs(got-0.5) > 0.001 {
		t.Errorf("depth 3 = %f, want 0.5", got)
	}
	if got := Engagement(10); got != 1.0 {
		t.Errorf("depth 10 = %f, want saturated 1.0", got)
	}
}

func TestDecayWarmth(t *testing.T) {
	// Decays toward neutral from above.
	got := DecayWarmth(0.9, 0.02, 10)
	if got >= 0.9 || got <= 0.5 {
		t.Errorf("decay from 0.9 after 10 days = %f, want in (0.5, 0.9)", got)
	}

	// Decays toward neutral from below (cold relationships drift back too).
	got = DecayWarmth(0.1, 0.02, 10)
	if got <= 0.1 || got >= 0.5 {
		t.Errorf("decay from 0.1 after 10 days = %f, want in (0.1, 0.5)", got)
	}

	// Neutral is a fixed point.
	if got := DecayWarmth(0.5, 0.02, 30); math.Abs(got-0.5) > 0.0001 {
		t.Errorf("neutral decayed to %f", got)
	}

	// Zero days is identity.
	if got := DecayWarmth(0.8, 0.02, 0); got != 0.8 {
		t.Errorf("zero-day decay = %f, want 0.8", got)
	}
}
