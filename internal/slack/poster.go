package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// Digest summarizes one conversation's freshly annotated volleys.
type Digest struct {
	ConversationID string
	Title          string
	Surface        string
	VolleyCount    int
	NewAnnotations int
	AvgWarmth      float64
	Sentiments     map[string]int
	Items          []DigestItem
}

// DigestItem is one annotated volley line in a digest.
type DigestItem struct {
	VolleyKey string
	StartTime time.Time
	Sentiment string
	Summary   string
}

// PostDigest posts a conversation digest to Slack for human review.
// Returns the message timestamp (ts) which is used for tracking reactions.
func (p *Poster) PostDigest(ctx context.Context, d Digest) (string, error) {
	text := formatDigest(d)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "React: :+1: reads right | :-1: reads wrong | :shrug: skip",
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted digest to slack", "ts", slackResp.TS, "conversation_id", d.ConversationID)
	return slackResp.TS, nil
}

// PostThread posts a threaded reply to a message. An empty threadTS posts a
// standalone message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	payload := map[string]any{
		"channel": p.channel,
		"text":    text,
	}
	if threadTS != "" {
		payload["thread_ts"] = threadTS
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatDigest(d Digest) string {
	var sb strings.Builder

	title := d.Title
	if title == "" {
		title = d.ConversationID
	}
	fmt.Fprintf(&sb, "*Conversation:* %s (%s)\n", title, d.Surface)
	fmt.Fprintf(&sb, "*Volleys:* %d total, %d newly annotated | *Avg warmth:* %.2f\n", d.VolleyCount, d.NewAnnotations, d.AvgWarmth)

	if len(d.Sentiments) > 0 {
		keys := make([]string, 0, len(d.Sentiments))
		for k := range d.Sentiments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s×%d", k, d.Sentiments[k]))
		}
		fmt.Fprintf(&sb, "*Tone:* %s\n", strings.Join(parts, ", "))
	}

	if len(d.Items) > 0 {
		sb.WriteString("\n")
		for i, item := range d.Items {
			fmt.Fprintf(&sb, "%d. [%s] %s — %s\n", i+1, item.StartTime.Format("Jan 2 15:04"), item.Sentiment, item.Summary)
		}
	} else {
		sb.WriteString("\n_No new exchanges annotated._")
	}

	return sb.String()
}
