package analyzer

// ChatStoredEvent is the NATS event payload from Chronicle when a chat
// conversation (or a new slice of one) lands.
type ChatStoredEvent struct {
	ConversationID string `json:"conversation_id"`
	OwnerUUID      string `json:"owner_uuid"`
	Title          string `json:"title"`
	Surface        string `json:"surface"` // e.g. "whatsapp", "imessage", "slack"
	Messages       []struct {
		Sender    string `json:"sender"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
	} `json:"messages,omitempty"`
}

// Annotation is the structured semantic read of a single volley.
// Keyed by the volley's content-addressed ID so a volley is never
// annotated twice.
type Annotation struct {
	VolleyID  string   `json:"volley_id"`
	Sentiment string   `json:"sentiment"` // warm | playful | neutral | tense | cold
	Warmth    float64  `json:"warmth"`    // 0.0-1.0
	Intensity float64  `json:"intensity"` // 0.0-1.0
	Topics    []string `json:"topics"`
	Summary   string   `json:"summary"`
}
