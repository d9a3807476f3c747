package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// jsonlLine represents a single line from a messenger JSONL export.
type jsonlLine struct {
	Type      string          `json:"type"`
	Sender    string          `json:"sender"`
	Timestamp string          `json:"timestamp"`
	Content   json.RawMessage `json:"content"`
}

// ParseJSONLFile parses a messenger JSONL export into chat messages.
func ParseJSONLFile(path string) ([]RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var msgs []RawMessage

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	for scanner.Scan() {
		var line jsonlLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue // skip malformed lines
		}

		// Only message events carry conversational text; call logs,
		// membership changes and export metadata are skipped.
		if line.Type != "message" {
			continue
		}
		if line.Sender == "" {
			continue
		}

		text := extractJSONLText(line.Content)
		if text == "" {
			continue
		}

		ts, _ := time.Parse(time.RFC3339Nano, line.Timestamp)
		msgs = append(msgs, RawMessage{
			Sender:    line.Sender,
			Text:      text,
			Timestamp: ts,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	// Some exports interleave threads out of order.
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	return msgs, nil
}

// extractJSONLText extracts text content from an export message body.
func extractJSONLText(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	// Try as plain string first.
	var plainStr string
	if err := json.Unmarshal(raw, &plainStr); err == nil {
		return plainStr
	}

	// Parse as content block array.
	var blocks []jsonlContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	// Collect text blocks only (skip attachment, sticker, etc.).
	var text string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}

	return text
}

type jsonlContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
