package segment

import (
	"sort"
	"time"
)

// MessagesToTurns groups messages into turns: runs of same-sender messages
// with no gap above turnTimeout. A turnTimeout <= 0 derives one from the
// message gap distribution. The input slice is not mutated.
func MessagesToTurns(msgs []Message, turnTimeout time.Duration) []Turn {
	if len(msgs) == 0 {
		return nil
	}

	sorted := make([]Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if turnTimeout <= 0 {
		turnTimeout = CalculateTimeouts(messageGaps(sorted)).Turn
	}

	var turns []Turn
	var current []Message

	for _, msg := range sorted {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if msg.Sender != prev.Sender || msg.Timestamp.Sub(prev.Timestamp) > turnTimeout {
				turns = append(turns, buildTurn(current))
				current = nil
			}
		}
		current = append(current, msg)
	}
	turns = append(turns, buildTurn(current))

	return turns
}

func buildTurn(msgs []Message) Turn {
	t := Turn{
		Messages:  make([]Message, len(msgs)),
		Sender:    msgs[0].Sender,
		StartTime: msgs[0].Timestamp,
		EndTime:   msgs[len(msgs)-1].Timestamp,
	}
	copy(t.Messages, msgs)
	return t
}

// messageGaps returns the consecutive time differences across a sorted
// message list.
func messageGaps(sorted []Message) []time.Duration {
	if len(sorted) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp))
	}
	return gaps
}
