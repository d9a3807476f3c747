package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/anthropic"
	"github.com/MikeSquared-Agency/rapport/internal/segment"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVolley(t *testing.T) segment.Volley {
	t.Helper()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	msgs := []segment.Message{
		{Sender: "a", Content: "miss you", Timestamp: base},
		{Sender: "b", Content: "come over then", Timestamp: base.Add(30 * time.Second)},
	}
	volleys := segment.Volleys(msgs)
	if len(volleys) != 1 {
		t.Fatalf("expected 1 volley, got %d", len(volleys))
	}
	return volleys[0]
}

func annotationServer(t *testing.T, resp llmResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respJSON, _ := json.Marshal(resp)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": string(respJSON)},
			},
			"stop_reason": "end_turn",
		})
	}))
}

func TestAnnotate_Success(t *testing.T) {
	server := annotationServer(t, llmResponse{
		Sentiment: "warm",
		Warmth:    0.85,
		Intensity: 0.4,
		Topics:    []string{"missing each other"},
		Summary:   "One side says they miss the other, who invites them over.",
	})
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	v := testVolley(t)
	ann, err := New(llm, discardLogger()).Annotate(context.Background(), v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ann.VolleyID != v.ID {
		t.Errorf("volley_id = %q, want %q", ann.VolleyID, v.ID)
	}
	if ann.Sentiment != "warm" {
		t.Errorf("sentiment = %q, want warm", ann.Sentiment)
	}
	if ann.Warmth != 0.85 {
		t.Errorf("warmth = %f, want 0.85", ann.Warmth)
	}
	if len(ann.Topics) != 1 {
		t.Errorf("topics = %v", ann.Topics)
	}
}

func TestAnnotate_ClampsScores(t *testing.T) {
	server := annotationServer(t, llmResponse{
		Sentiment: "warm",
		Warmth:    1.7,
		Intensity: -0.3,
	})
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	ann, err := New(llm, discardLogger()).Annotate(context.Background(), testVolley(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ann.Warmth != 1.0 {
		t.Errorf("warmth = %f, want clamped 1.0", ann.Warmth)
	}
	if ann.Intensity != 0.0 {
		t.Errorf("intensity = %f, want clamped 0.0", ann.Intensity)
	}
}

func TestAnnotate_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "this is not json"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	if _, err := New(llm, discardLogger()).Annotate(context.Background(), testVolley(t)); err == nil {
		t.Fatal("expected error for invalid JSON response")
	}
}

func TestAnnotate_FencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n{\"sentiment\":\"neutral\",\"warmth\":0.5,\"intensity\":0.1,\"topics\":[],\"summary\":\"logistics\"}\n```"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": fenced},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	ann, err := New(llm, discardLogger()).Annotate(context.Background(), testVolley(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ann.Sentiment != "neutral" {
		t.Errorf("sentiment = %q, want neutral", ann.Sentiment)
	}
}
