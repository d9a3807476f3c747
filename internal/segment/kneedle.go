package segment

import (
	"sort"
	"time"
)

// Fallback timeouts used when a conversation is too small to derive
// anything from (single message, single turn). Callers can override any
// of them by passing an explicit timeout to the phase functions.
const (
	DefaultTurnTimeout    = 3 * time.Minute
	DefaultVolleyTimeout  = 30 * time.Minute
	DefaultSessionTimeout = 4 * time.Hour

	// EmptyGapFallback is returned by PercentileTimeout when there are
	// no gaps to take a percentile of.
	EmptyGapFallback = 5 * time.Minute
)

const (
	turnPercentile           = 70.0
	volleyFallbackPercentile = 85.0
	sessionPercentile        = 95.0

	// Knee detection is unreliable below this sample count.
	minKneeSamples = 5
)

// Timeouts is the per-phase timeout triple derived from one gap
// distribution. Derived fresh per segmentation run, never persisted.
type Timeouts struct {
	Turn    time.Duration
	Volley  time.Duration
	Session time.Duration
}

// findKneePoint locates the elbow of an ascending-sorted gap distribution:
// the index whose normalized value deviates most from the diagonal. Gap
// distributions are monotonic once sorted, so no curve fitting is needed.
// Degenerate inputs (fewer than 3 values, or zero value range) yield the
// middle index.
func findKneePoint(sorted []time.Duration) int {
	n := len(sorted)
	if n < 3 {
		return n / 2
	}

	minV := float64(sorted[0])
	maxV := float64(sorted[n-1])
	if maxV == minV {
		return n / 2
	}

	kneeIdx := n / 2
	maxDiff := -1.0
	for i := 1; i < n-1; i++ {
		x := float64(i) / float64(n-1)
		y := (float64(sorted[i]) - minV) / (maxV - minV)
		diff := x - y
		if diff < 0 {
			diff = -diff
		}
		if diff > maxDiff {
			maxDiff = diff
			kneeIdx = i
		}
	}
	return kneeIdx
}

// PercentileTimeout returns the smallest gap at or above the given
// percentile (0–100). Empty input returns EmptyGapFallback.
func PercentileTimeout(gaps []time.Duration, percentile float64) time.Duration {
	if len(gaps) == 0 {
		return EmptyGapFallback
	}

	sorted := make([]time.Duration, len(gaps))
	copy(sorted, gaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := ceilInt(percentile/100.0*float64(len(sorted))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// AdaptiveTimeout picks a timeout by knee-point detection, falling back to
// the given percentile when the sample is too small or the distribution has
// no interior elbow.
func AdaptiveTimeout(gaps []time.Duration, fallbackPercentile float64) time.Duration {
	if len(gaps) < minKneeSamples {
		return PercentileTimeout(gaps, fallbackPercentile)
	}

	sorted := make([]time.Duration, len(gaps))
	copy(sorted, gaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	knee := findKneePoint(sorted)
	// A knee at either end means the distribution rises without a real
	// elbow; trust the percentile instead.
	if knee <= 0 || knee >= len(sorted)-1 {
		return PercentileTimeout(gaps, fallbackPercentile)
	}
	return sorted[knee]
}

// CalculateTimeouts derives the three-phase timeout triple from one gap
// distribution. Turn and session boundaries use fixed percentiles (the
// finest and coarsest splits want stability over adaptivity); the volley
// boundary is the one that genuinely varies per relationship, so it gets
// the knee-point treatment. Empty input yields the cold-start defaults.
func CalculateTimeouts(gaps []time.Duration) Timeouts {
	if len(gaps) == 0 {
		return Timeouts{
			Turn:    DefaultTurnTimeout,
			Volley:  DefaultVolleyTimeout,
			Session: DefaultSessionTimeout,
		}
	}
	return Timeouts{
		Turn:    PercentileTimeout(gaps, turnPercentile),
		Volley:  AdaptiveTimeout(gaps, volleyFallbackPercentile),
		Session: PercentileTimeout(gaps, sessionPercentile),
	}
}

func ceilInt(f float64) int {
	n := int(f)
	if f > float64(n) {
		n++
	}
	return n
}
