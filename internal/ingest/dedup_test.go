package ingest

import (
	"testing"
	"time"
)

func TestFindDuplicates_OverlappingExports(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	jlFP := fileFingerprint{
		Path:   "jsonl/alice.jsonl",
		Source: SourceJSONL,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
			base.Add(2 * time.Minute),
			base.Add(3 * time.Minute),
			base.Add(4 * time.Minute),
		},
	}

	// Text export has same timestamps (within window) — should be detected as duplicate.
	txtFP := fileFingerprint{
		Path:   "text/alice.txt",
		Source: SourceTextExport,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
			base.Add(2 * time.Minute),
			base.Add(3 * time.Minute),
			base.Add(4 * time.Minute),
		},
	}

	dups := FindDuplicates([]fileFingerprint{jlFP}, []fileFingerprint{txtFP})
	if !dups["text/alice.txt"] {
		t.Error("expected text export to be marked as duplicate")
	}
}

func TestFindDuplicates_NoOverlap(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	jlFP := fileFingerprint{
		Path:   "jsonl/alice.jsonl",
		Source: SourceJSONL,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
		},
	}

	// Text export timestamps are completely different.
	txtFP := fileFingerprint{
		Path:   "text/bob.txt",
		Source: SourceTextExport,
		Timestamps: []time.Time{
			base.Add(5 * time.Hour),
			base.Add(5*time.Hour + time.Minute),
		},
	}

	dups := FindDuplicates([]fileFingerprint{jlFP}, []fileFingerprint{txtFP})
	if dups["text/bob.txt"] {
		t.Error("expected text export NOT to be marked as duplicate")
	}
}

func TestFindDuplicates_PartialOverlapBelowThreshold(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	jlFP := fileFingerprint{
		Path:   "jsonl/alice.jsonl",
		Source: SourceJSONL,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
		},
	}

	// Only 2 out of 5 match — 40% < 80% threshold.
	txtFP := fileFingerprint{
		Path:   "text/alice-partial.txt",
		Source: SourceTextExport,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
			base.Add(1 * time.Hour),
			base.Add(2 * time.Hour),
			base.Add(3 * time.Hour),
		},
	}

	dups := FindDuplicates([]fileFingerprint{jlFP}, []fileFingerprint{txtFP})
	if dups["text/alice-partial.txt"] {
		t.Error("40% overlap should NOT be marked as duplicate")
	}
}

func TestFindDuplicates_MinutePrecisionWindow(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// JSONL carries seconds; the text export truncated them to the minute.
	jlFP := fileFingerprint{
		Path:   "jsonl/alice.jsonl",
		Source: SourceJSONL,
		Timestamps: []time.Time{
			base.Add(42 * time.Second),
			base.Add(1*time.Minute + 17*time.Second),
		},
	}

	txtFP := fileFingerprint{
		Path:   "text/alice.txt",
		Source: SourceTextExport,
		Timestamps: []time.Time{
			base,
			base.Add(1 * time.Minute),
		},
	}

	dups := FindDuplicates([]fileFingerprint{jlFP}, []fileFingerprint{txtFP})
	if !dups["text/alice.txt"] {
		t.Error("minute-truncated timestamps should match within the window")
	}
}

func TestFindDuplicates_EmptyTextList(t *testing.T) {
	jlFP := fileFingerprint{
		Path:       "jsonl/alice.jsonl",
		Source:     SourceJSONL,
		Timestamps: []time.Time{time.Now()},
	}

	dups := FindDuplicates([]fileFingerprint{jlFP}, nil)
	if len(dups) != 0 {
		t.Error("expected no duplicates with empty text export list")
	}
}

func TestBuildFingerprint(t *testing.T) {
	msgs := []RawMessage{
		{Sender: "alice", Text: "First message", Timestamp: time.Now()},
		{Sender: "mike", Text: "Second message", Timestamp: time.Now()},
		{Sender: "alice", Text: "Third message", Timestamp: time.Now()},
		{Sender: "mike", Text: "Fourth message should not be in preview", Timestamp: time.Now()},
	}

	fp := BuildFingerprint("chat.jsonl", SourceJSONL, msgs)

	if fp.Path != "chat.jsonl" {
		t.Errorf("Path = %q", fp.Path)
	}
	if fp.Source != SourceJSONL {
		t.Errorf("Source = %d", fp.Source)
	}
	if len(fp.Timestamps) != 4 {
		t.Errorf("expected 4 timestamps, got %d", len(fp.Timestamps))
	}
	if len(fp.Previews) != 3 {
		t.Errorf("expected 3 previews, got %d", len(fp.Previews))
	}
}

func TestBuildFingerprint_LongTextTruncated(t *testing.T) {
	longText := ""
	for i := 0; i < 200; i++ {
		longText += "x"
	}

	msgs := []RawMessage{
		{Sender: "alice", Text: longText, Timestamp: time.Now()},
	}

	fp := BuildFingerprint("chat.jsonl", SourceJSONL, msgs)

	if len(fp.Previews) != 1 {
		t.Fatalf("expected 1 preview, got %d", len(fp.Previews))
	}
	if len(fp.Previews[0]) != 100 {
		t.Errorf("expected preview truncated to 100, got %d", len(fp.Previews[0]))
	}
}
