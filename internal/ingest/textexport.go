package ingest

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// headerRe matches the message header line of a WhatsApp-style text export:
// "02/03/2026, 10:15 - Alice: message text".
var headerRe = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4}), (\d{1,2}:\d{2}) - (.+)$`)

const textExportLayout = "2/1/2006 15:04"

// mediaPlaceholder is what the export substitutes for attachments.
const mediaPlaceholder = "<Media omitted>"

// ParseTextExportFile parses a WhatsApp-style plain text export into chat
// messages. Lines that don't open a new message are continuations of the
// previous one; header lines without a "Name: " prefix are system notices
// (encryption banner, group changes) and are dropped.
func ParseTextExportFile(path string) ([]RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var msgs []RawMessage
	var current *RawMessage

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			// Continuation of a multi-line message.
			if current != nil {
				current.Text += "\n" + line
			}
			continue
		}

		if current != nil {
			msgs = appendTextMessage(msgs, *current)
			current = nil
		}

		sender, text, ok := strings.Cut(m[3], ": ")
		if !ok {
			// System notice, no sender.
			continue
		}

		ts, err := time.Parse(textExportLayout, m[1]+" "+m[2])
		if err != nil {
			continue
		}

		current = &RawMessage{
			Sender:    sender,
			Text:      text,
			Timestamp: ts,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if current != nil {
		msgs = appendTextMessage(msgs, *current)
	}

	return msgs, nil
}

func appendTextMessage(msgs []RawMessage, m RawMessage) []RawMessage {
	if strings.TrimSpace(m.Text) == "" || m.Text == mediaPlaceholder {
		return msgs
	}
	return append(msgs, m)
}
