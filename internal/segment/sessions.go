package segment

import (
	"sort"
	"time"
)

// VolleysToSessions groups volleys into sessions: runs of volleys whose
// end→start gaps stay within sessionTimeout. A sessionTimeout <= 0 derives
// one from the volley gap distribution.
func VolleysToSessions(volleys []Volley, sessionTimeout time.Duration) []Session {
	if len(volleys) == 0 {
		return nil
	}

	if sessionTimeout <= 0 {
		sessionTimeout = CalculateTimeouts(volleyGaps(volleys)).Session
	}

	var sessions []Session
	var current []Volley

	for _, v := range volleys {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if v.StartTime.Sub(prev.EndTime) > sessionTimeout {
				sessions = append(sessions, buildSession(current))
				current = nil
			}
		}
		current = append(current, v)
	}
	sessions = append(sessions, buildSession(current))

	return sessions
}

func buildSession(volleys []Volley) Session {
	s := Session{
		Volleys:   make([]Volley, len(volleys)),
		StartTime: volleys[0].StartTime,
		EndTime:   volleys[len(volleys)-1].EndTime,
	}
	copy(s.Volleys, volleys)
	s.DurationMinutes = s.EndTime.Sub(s.StartTime).Seconds() / 60.0

	seen := make(map[string]bool)
	for _, v := range volleys {
		for _, p := range v.Participants {
			if !seen[p] {
				seen[p] = true
				s.Participants = append(s.Participants, p)
			}
		}
	}
	sort.Strings(s.Participants)

	return s
}

// volleyGaps returns the end→start gaps between consecutive volleys.
func volleyGaps(volleys []Volley) []time.Duration {
	if len(volleys) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(volleys)-1)
	for i := 1; i < len(volleys); i++ {
		gaps = append(gaps, volleys[i].StartTime.Sub(volleys[i-1].EndTime))
	}
	return gaps
}
