package segment

import "time"

// Message is a single timestamped chat message. The segmenter treats
// messages as read-only input and never mutates them.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn is a run of consecutive messages from one sender with no
// turn-timeout gap between them.
type Turn struct {
	Messages  []Message `json:"messages"`
	Sender    string    `json:"sender"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Volley is one continuous back-and-forth exchange of turns.
//
// ID is a content-addressed hash of (start, end, participants), so two
// volleys covering the same exchange always share an ID regardless of
// message content. Downstream annotators key their caches on it.
type Volley struct {
	ID           string    `json:"id"`
	Turns        []Turn    `json:"turns"`
	Participants []string  `json:"participants"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Depth        int       `json:"depth"`
	MessageCount int       `json:"message_count"`
	PivotText    string    `json:"pivot_text"`
}

// Session is a coarse grouping of volleys covering one conversational period.
type Session struct {
	Volleys         []Volley  `json:"volleys"`
	Participants    []string  `json:"participants"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// Segmentation is the output of the full three-phase pipeline.
type Segmentation struct {
	Turns    []Turn    `json:"turns"`
	Volleys  []Volley  `json:"volleys"`
	Sessions []Session `json:"sessions"`
}
