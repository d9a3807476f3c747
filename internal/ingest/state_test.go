package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIngestState_NewAndSave(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")

	// Override the default state path for testing.
	s := &IngestState{path: statePath}
	s.MarkProcessed("chat1.jsonl")
	s.MarkProcessed("chat2.txt")
	s.VolleysStored = 12
	s.Annotations = 9

	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("state file not created: %v", err)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("state file is empty")
	}
}

func TestIngestState_IsProcessed(t *testing.T) {
	s := &IngestState{}

	if s.IsProcessed("chat1.jsonl") {
		t.Error("chat1 should not be processed yet")
	}

	s.MarkProcessed("chat1.jsonl")

	if !s.IsProcessed("chat1.jsonl") {
		t.Error("chat1 should be processed")
	}
	if s.IsProcessed("chat2.jsonl") {
		t.Error("chat2 should not be processed")
	}
}

func TestIngestState_AddError(t *testing.T) {
	s := &IngestState{}
	s.AddError("something went wrong")
	s.AddError("another error")

	if len(s.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(s.Errors))
	}
	if s.Errors[0] != "something went wrong" {
		t.Errorf("error[0] = %q", s.Errors[0])
	}
}

func TestIngestState_SaveCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "nested", "dir", "state.json")

	s := &IngestState{path: statePath}
	if err := s.Save(); err != nil {
		t.Fatalf("Save with nested dir failed: %v", err)
	}
	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("state file not created in nested dir: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	got := expandHome("~/test/path")
	want := filepath.Join(home, "test/path")
	if got != want {
		t.Errorf("expandHome(~/test/path) = %q, want %q", got, want)
	}

	// Non-tilde paths should pass through.
	got = expandHome("/absolute/path")
	if got != "/absolute/path" {
		t.Errorf("expandHome(/absolute/path) = %q", got)
	}
}

func TestConversationIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/exports/jsonl/alice-chen.jsonl", "alice-chen"},
		{"/exports/text/alice-chen.txt", "alice-chen"},
		{"group chat.txt", "group chat"},
	}

	for _, tt := range tests {
		if got := conversationIDFromPath(tt.path); got != tt.want {
			t.Errorf("conversationIDFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatBatchSummary_GroupsByDate(t *testing.T) {
	summaries := []FileSummary{
		{Path: "/x/alice.jsonl", Source: "jsonl", Date: "2026-03-14", Volleys: 4, Annotations: 4},
		{Path: "/x/bob.txt", Source: "text", Date: "2026-03-14", Volleys: 2, Annotations: 1, Errors: 1},
		{Path: "/x/carol.jsonl", Source: "jsonl", Date: "2026-03-12", Volleys: 3, Annotations: 3},
	}

	text := FormatBatchSummary(summaries)

	// Earlier date comes first.
	idx12 := strings.Index(text, "2026-03-12")
	idx14 := strings.Index(text, "2026-03-14")
	if idx12 == -1 || idx14 == -1 || idx12 > idx14 {
		t.Errorf("dates not ordered in summary:\n%s", text)
	}
	if !strings.Contains(text, "6 volleys") {
		t.Errorf("expected per-date volley total in summary:\n%s", text)
	}
	if !strings.Contains(text, "(1 errors)") {
		t.Errorf("expected error count for bob.txt in summary:\n%s", text)
	}
}
