package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// volleyIDLen is the truncated hex length of a volley's content hash.
const volleyIDLen = 16

// TurnsToVolleys groups turns into volleys: runs of turns whose end→start
// gaps stay within volleyTimeout. Sender identity is irrelevant here — a
// volley is defined purely by temporal continuity. A volleyTimeout <= 0
// derives one from the turn gap distribution.
func TurnsToVolleys(turns []Turn, volleyTimeout time.Duration) []Volley {
	if len(turns) == 0 {
		return nil
	}

	if volleyTimeout <= 0 {
		volleyTimeout = CalculateTimeouts(turnGaps(turns)).Volley
	}

	var volleys []Volley
	var current []Turn

	for _, turn := range turns {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if turn.StartTime.Sub(prev.EndTime) > volleyTimeout {
				volleys = append(volleys, mustVolley(current))
				current = nil
			}
		}
		current = append(current, turn)
	}
	volleys = append(volleys, mustVolley(current))

	return volleys
}

// NewVolley constructs a volley from a non-empty turn run, deriving its
// content-addressed ID, participant set, depth, message count, and pivot
// text. An empty turn list is a phase-sequencing bug and fails fast.
func NewVolley(turns []Turn) (Volley, error) {
	if len(turns) == 0 {
		return Volley{}, fmt.Errorf("volley requires at least one turn")
	}

	v := Volley{
		Turns:     make([]Turn, len(turns)),
		StartTime: turns[0].StartTime,
		EndTime:   turns[len(turns)-1].EndTime,
	}
	copy(v.Turns, turns)

	seen := make(map[string]bool)
	for _, t := range turns {
		v.MessageCount += len(t.Messages)
		if !seen[t.Sender] {
			seen[t.Sender] = true
			v.Participants = append(v.Participants, t.Sender)
		}
	}
	sort.Strings(v.Participants)

	for i := 1; i < len(turns); i++ {
		if turns[i].Sender != turns[i-1].Sender {
			v.Depth++
		}
	}

	v.ID = volleyID(v.StartTime, v.EndTime, v.Participants)
	v.PivotText = v.Transcript(v.Participants[0])

	return v, nil
}

// mustVolley is the internal constructor for runs the builders already
// guarantee non-empty.
func mustVolley(turns []Turn) Volley {
	v, err := NewVolley(turns)
	if err != nil {
		panic(err)
	}
	return v
}

// Transcript renders the volley's messages chronologically, one line per
// message, labelling the given self identifier "Me" and everyone else
// "Them". PivotText is this rendering with the first sorted participant
// as self.
func (v Volley) Transcript(self string) string {
	var sb strings.Builder
	for _, turn := range v.Turns {
		for _, msg := range turn.Messages {
			label := "Them"
			if msg.Sender == self {
				label = "Me"
			}
			fmt.Fprintf(&sb, "%s - %s: %s\n", msg.Timestamp.Format("15:04"), label, msg.Content)
		}
	}
	return sb.String()
}

// volleyID hashes (start, end, participants) into a fixed-width hex ID.
// Identical exchanges always hash to the same ID, which lets downstream
// annotators cache by volley identity across re-segmentation runs.
func volleyID(start, end time.Time, participants []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s",
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		strings.Join(participants, ","),
	)
	return hex.EncodeToString(h.Sum(nil))[:volleyIDLen]
}

// turnGaps returns the end→start gaps between consecutive turns.
func turnGaps(turns []Turn) []time.Duration {
	if len(turns) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(turns)-1)
	for i := 1; i < len(turns); i++ {
		gaps = append(gaps, turns[i].StartTime.Sub(turns[i-1].EndTime))
	}
	return gaps
}
