// Package segment derives conversational structure — turns, volleys,
// sessions — from a flat list of timestamped chat messages.
//
// Human messaging cadence is wildly irregular (bursts, silences, multi-day
// gaps), so boundaries are not drawn with fixed constants: each phase
// derives its own timeout from the gap distribution of its own input,
// using knee-point detection with percentile fallbacks. Segmentation is
// deterministic and purely computational; for a fixed message list every
// call produces bit-identical output, including volley IDs.
package segment

// Volleys runs phases 1 and 2 (messages → turns → volleys) with
// auto-derived timeouts. This is the primary entry point for downstream
// annotators; callers needing sessions use Full.
func Volleys(msgs []Message) []Volley {
	turns := MessagesToTurns(msgs, 0)
	return TurnsToVolleys(turns, 0)
}

// Full runs all three phases. Each phase derives its timeout from its own
// gap distribution: turn timeout from message gaps, volley timeout from
// turn gaps, session timeout from volley gaps.
func Full(msgs []Message) Segmentation {
	turns := MessagesToTurns(msgs, 0)
	volleys := TurnsToVolleys(turns, 0)
	sessions := VolleysToSessions(volleys, 0)
	return Segmentation{
		Turns:    turns,
		Volleys:  volleys,
		Sessions: sessions,
	}
}
