package ingest

import (
	"time"
)

// dedupWindow is the tolerance for matching timestamps across export formats.
// Text exports carry minute precision, so the window is generous.
const dedupWindow = 1 * time.Minute

// overlapThreshold is the fraction of timestamps that must match to consider
// files duplicate exports of the same conversation.
const overlapThreshold = 0.8

// fileFingerprint holds timing + content info for deduplication.
type fileFingerprint struct {
	Path       string
	Source     FileSource
	Timestamps []time.Time
	Previews   []string // first 3 message texts (trimmed)
}

// BuildFingerprint creates a fingerprint from parsed chat messages.
func BuildFingerprint(path string, source FileSource, msgs []RawMessage) fileFingerprint {
	fp := fileFingerprint{
		Path:   path,
		Source: source,
	}

	for _, m := range msgs {
		if !m.Timestamp.IsZero() {
			fp.Timestamps = append(fp.Timestamps, m.Timestamp)
		}
	}

	// Keep first 3 message texts for preview.
	for i, m := range msgs {
		if i >= 3 {
			break
		}
		text := m.Text
		if len(text) > 100 {
			text = text[:100]
		}
		fp.Previews = append(fp.Previews, text)
	}

	return fp
}

// FindDuplicates takes JSONL and text-export fingerprints and returns text
// export paths that overlap with JSONL files (JSONL is the preferred source:
// it carries second precision and attachment metadata).
func FindDuplicates(jsonlFPs, textFPs []fileFingerprint) map[string]bool {
	duplicates := make(map[string]bool)

	for _, txt := range textFPs {
		if len(txt.Timestamps) == 0 {
			continue
		}
		for _, jl := range jsonlFPs {
			if isOverlapping(jl, txt) {
				duplicates[txt.Path] = true
				break
			}
		}
	}

	return duplicates
}

// isOverlapping checks if >80% of one file's timestamps appear in the other
// within the dedupWindow.
func isOverlapping(a, b fileFingerprint) bool {
	if len(b.Timestamps) == 0 {
		return false
	}

	matches := 0
	for _, bt := range b.Timestamps {
		for _, at := range a.Timestamps {
			diff := bt.Sub(at)
			if diff < 0 {
				diff = -diff
			}
			if diff <= dedupWindow {
				matches++
				break
			}
		}
	}

	return float64(matches)/float64(len(b.Timestamps)) >= overlapThreshold
}
