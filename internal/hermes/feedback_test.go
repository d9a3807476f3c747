package hermes

import (
	"encoding/json"
	"testing"
)

func TestFeedbackSignalParsing(t *testing.T) {
	raw := `{
		"conversation_id": "conv-001",
		"volley_key": "a1b2c3d4e5f60718",
		"verdict": "rejected",
		"sentiment": "tense",
		"reviewer_id": "U12345"
	}`

	var signal FeedbackSignal
	err := json.Unmarshal([]byte(raw), &signal)
	if err != nil {
		t.Fatalf("failed to parse FeedbackSignal: %v", err)
	}

	if signal.ConversationID != "conv-001" {
		t.Errorf("expected conversation_id 'conv-001', got '%s'", signal.ConversationID)
	}
	if signal.VolleyKey != "a1b2c3d4e5f60718" {
		t.Errorf("expected volley_key, got '%s'", signal.VolleyKey)
	}
	if signal.Verdict != "rejected" {
		t.Errorf("expected verdict 'rejected', got '%s'", signal.Verdict)
	}
	if signal.Sentiment != "tense" {
		t.Errorf("expected sentiment 'tense', got '%s'", signal.Sentiment)
	}
}

func TestFeedbackSignalRoundTrip(t *testing.T) {
	signal := FeedbackSignal{
		ConversationID: "conv-rt",
		VolleyKey:      "deadbeefdeadbeef",
		Verdict:        "confirmed",
		Sentiment:      "warm",
		ReviewerID:     "U99999",
	}

	data, err := json.Marshal(signal)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed FeedbackSignal
	err = json.Unmarshal(data, &parsed)
	if err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if parsed != signal {
		t.Errorf("round-trip mismatch: got %+v, want %+v", parsed, signal)
	}
}

func TestSubjectFeedbackConstant(t *testing.T) {
	if SubjectFeedback != "swarm.rapport.feedback" {
		t.Errorf("expected SubjectFeedback 'swarm.rapport.feedback', got '%s'", SubjectFeedback)
	}
}
