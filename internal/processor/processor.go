package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rapport/internal/analyzer"
	"github.com/MikeSquared-Agency/rapport/internal/hermes"
	"github.com/MikeSquared-Agency/rapport/internal/segment"
	"github.com/MikeSquared-Agency/rapport/internal/slack"
	"github.com/MikeSquared-Agency/rapport/internal/store"
)

// SubjectAnnotated is published for every freshly annotated volley.
const SubjectAnnotated = "swarm.rapport.volley.annotated"

// Processor orchestrates Rapport's conversation processing pipeline.
type Processor struct {
	store        *store.Store
	analyzer     *analyzer.Analyzer
	hermes       *hermes.Client
	slack        *slack.Poster
	logger       *slog.Logger
	chronicleURL string

	mu             sync.Mutex
	pendingDigests map[string]*pendingDigest // keyed by digest message TS
}

// pendingDigest tracks the annotations behind a posted digest so a reaction
// on the digest message can be mapped back to them.
type pendingDigest struct {
	ConversationID string
	OwnerUUID      uuid.UUID
	Annotations    []digestAnnotation
}

type digestAnnotation struct {
	VolleyKey string
	Sentiment string
}

func New(s *store.Store, an *analyzer.Analyzer, h *hermes.Client, sl *slack.Poster, chronicleURL string, logger *slog.Logger) *Processor {
	return &Processor{
		store:          s,
		analyzer:       an,
		hermes:         h,
		slack:          sl,
		logger:         logger,
		chronicleURL:   chronicleURL,
		pendingDigests: make(map[string]*pendingDigest),
	}
}

// HandleChatStored is the NATS handler for swarm.chronicle.chat.stored.
func (p *Processor) HandleChatStored(subject string, data []byte) {
	ctx := context.Background()

	var evt analyzer.ChatStoredEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse chat stored event", "error", err)
		return
	}

	ownerUUID, err := uuid.Parse(evt.OwnerUUID)
	if err != nil {
		p.logger.Error("invalid owner uuid", "owner_uuid", evt.OwnerUUID, "error", err)
		return
	}

	p.logger.Info("processing conversation",
		"conversation_id", evt.ConversationID,
		"surface", evt.Surface,
		"owner", evt.OwnerUUID,
	)

	msgs, err := p.fetchMessages(ctx, evt)
	if err != nil {
		p.logger.Error("failed to fetch messages", "conversation_id", evt.ConversationID, "error", err)
		return
	}
	if len(msgs) == 0 {
		p.logger.Info("no messages to segment", "conversation_id", evt.ConversationID)
		return
	}

	seg := segment.Full(msgs)

	var items []slack.DigestItem
	var annotations []digestAnnotation
	sentiments := make(map[string]int)
	warmthSum := 0.0

	for _, v := range seg.Volleys {
		_, inserted, err := p.store.UpsertVolley(ctx, ownerUUID, evt.ConversationID, evt.Surface, v)
		if err != nil {
			p.logger.Error("volley upsert failed", "volley_id", v.ID, "error", err)
			continue
		}

		// Content-addressed ID: an unchanged volley from a previous
		// slice of this conversation is already annotated.
		if !inserted {
			continue
		}

		ann, err := p.analyzer.Annotate(ctx, v)
		if err != nil {
			p.logger.Error("annotation failed", "volley_id", v.ID, "error", err)
			continue
		}
		if _, err := p.store.WriteAnnotation(ctx, *ann); err != nil {
			p.logger.Error("annotation persist failed", "volley_id", v.ID, "error", err)
			continue
		}

		if p.hermes != nil {
			if err := p.hermes.Publish(SubjectAnnotated, map[string]any{
				"conversation_id": evt.ConversationID,
				"volley_key":      v.ID,
				"owner_uuid":      evt.OwnerUUID,
				"sentiment":       ann.Sentiment,
				"warmth":          ann.Warmth,
				"topics":          ann.Topics,
				"start_time":      v.StartTime.Format(time.RFC3339),
				"end_time":        v.EndTime.Format(time.RFC3339),
			}); err != nil {
				p.logger.Error("failed to publish annotation event", "volley_key", v.ID, "error", err)
			}
		}

		items = append(items, slack.DigestItem{
			VolleyKey: v.ID,
			StartTime: v.StartTime,
			Sentiment: ann.Sentiment,
			Summary:   ann.Summary,
		})
		annotations = append(annotations, digestAnnotation{VolleyKey: v.ID, Sentiment: ann.Sentiment})
		sentiments[ann.Sentiment]++
		warmthSum += ann.Warmth
	}

	if err := p.store.ReplaceSessions(ctx, ownerUUID, evt.ConversationID, seg.Sessions); err != nil {
		p.logger.Error("session persist failed", "conversation_id", evt.ConversationID, "error", err)
	}

	if p.slack != nil && len(items) > 0 {
		sort.Slice(items, func(i, j int) bool {
			return items[i].StartTime.Before(items[j].StartTime)
		})

		d := slack.Digest{
			ConversationID: evt.ConversationID,
			Title:          evt.Title,
			Surface:        evt.Surface,
			VolleyCount:    len(seg.Volleys),
			NewAnnotations: len(items),
			AvgWarmth:      warmthSum / float64(len(items)),
			Sentiments:     sentiments,
			Items:          items,
		}

		ts, err := p.slack.PostDigest(ctx, d)
		if err != nil {
			p.logger.Error("slack digest post failed", "error", err)
		} else {
			p.mu.Lock()
			p.pendingDigests[ts] = &pendingDigest{
				ConversationID: evt.ConversationID,
				OwnerUUID:      ownerUUID,
				Annotations:    annotations,
			}
			p.mu.Unlock()
		}
	}

	p.logger.Info("conversation processed",
		"conversation_id", evt.ConversationID,
		"volleys", len(seg.Volleys),
		"new_annotations", len(items),
		"sessions", len(seg.Sessions),
	)
}

// HandleReaction processes Slack reaction feedback from slack-forwarder via
// NATS. A reaction on a digest message applies its verdict to every
// annotation the digest introduced.
func (p *Processor) HandleReaction(subject string, data []byte) {
	ctx := context.Background()

	evt, err := slack.ParseReactionEvent(data, p.logger)
	if err != nil {
		p.logger.Error("failed to parse reaction", "error", err)
		return
	}

	verdict := slack.ParseReaction(evt.Reaction)
	if verdict == slack.VerdictUnknown {
		return // not a review reaction
	}

	p.mu.Lock()
	digest, ok := p.pendingDigests[evt.MessageTS]
	if !ok {
		p.mu.Unlock()
		return // not a message we're tracking
	}
	delete(p.pendingDigests, evt.MessageTS)
	p.mu.Unlock()

	p.logger.Info("processing digest reaction",
		"reaction", evt.Reaction,
		"verdict", string(verdict),
		"conversation_id", digest.ConversationID,
		"annotations", len(digest.Annotations),
	)

	status := string(verdict)

	for _, ann := range digest.Annotations {
		if err := p.store.UpdateAnnotationReviewStatus(ctx, ann.VolleyKey, status, ""); err != nil {
			p.logger.Error("failed to update annotation review", "volley_key", ann.VolleyKey, "error", err)
		}

		if p.hermes != nil && (verdict == slack.VerdictConfirmed || verdict == slack.VerdictRejected) {
			if err := p.hermes.Publish(hermes.SubjectFeedback, hermes.FeedbackSignal{
				ConversationID: digest.ConversationID,
				VolleyKey:      ann.VolleyKey,
				Verdict:        status,
				Sentiment:      ann.Sentiment,
				ReviewerID:     evt.UserID,
			}); err != nil {
				p.logger.Error("failed to publish feedback signal", "volley_key", ann.VolleyKey, "error", err)
			}
		}
	}

	if verdict == slack.VerdictRejected && p.slack != nil {
		if err := p.slack.PostThread(ctx, evt.MessageTS, "Which read was off? Your correction tunes the next pass."); err != nil {
			p.logger.Error("failed to post correction thread", "error", err)
		}
	}
}

// fetchMessages returns the conversation's messages from the event payload,
// falling back to the Chronicle HTTP API when the event only carries the ID.
func (p *Processor) fetchMessages(ctx context.Context, evt analyzer.ChatStoredEvent) ([]segment.Message, error) {
	if len(evt.Messages) > 0 {
		return eventMessages(evt), nil
	}

	if p.chronicleURL == "" {
		return nil, fmt.Errorf("no messages in event payload and CHRONICLE_URL not configured for conversation %s", evt.ConversationID)
	}

	url := fmt.Sprintf("%s/api/v1/conversations/%s/messages", p.chronicleURL, evt.ConversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build chronicle request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chronicle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chronicle returned %d for conversation %s", resp.StatusCode, evt.ConversationID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chronicle response: %w", err)
	}

	var rows []struct {
		Sender    string `json:"sender"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse chronicle messages: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no messages found in chronicle for conversation %s", evt.ConversationID)
	}

	msgs := make([]segment.Message, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row.Timestamp)
		if err != nil {
			p.logger.Warn("skipping message with bad timestamp", "timestamp", row.Timestamp)
			continue
		}
		msgs = append(msgs, segment.Message{
			Sender:    row.Sender,
			Content:   row.Content,
			Timestamp: ts,
		})
	}
	return msgs, nil
}

// eventMessages converts inline event payload messages, dropping any with
// unparseable timestamps.
func eventMessages(evt analyzer.ChatStoredEvent) []segment.Message {
	msgs := make([]segment.Message, 0, len(evt.Messages))
	for _, m := range evt.Messages {
		ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
		if err != nil {
			continue
		}
		msgs = append(msgs, segment.Message{
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return msgs
}
