package insight

import (
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/rapport/internal/hermes"
)

// ThemeEvent represents a recurring-theme proposal for downstream surfacing
type ThemeEvent struct {
	ConversationID string        `json:"conversation_id"`
	Topic          string        `json:"topic"`
	Sentiment      string        `json:"sentiment"`
	DigestSection  string        `json:"digest_section"`
	ProposedNote   string        `json:"proposed_note"`
	ClusterSize    int           `json:"cluster_size"`
	Volleys        []ThemeVolley `json:"volleys"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Publisher publishes theme proposals to NATS
type Publisher struct {
	hermes *hermes.Client
}

// NewPublisher creates a new theme event publisher
func NewPublisher(hermes *hermes.Client) *Publisher {
	return &Publisher{hermes: hermes}
}

// PublishThemeProposal publishes a recurring-theme proposal to NATS
func (p *Publisher) PublishThemeProposal(conversationID string, cluster ThemeCluster) error {
	event := ThemeEvent{
		ConversationID: conversationID,
		Topic:          cluster.Topic,
		Sentiment:      cluster.Sentiment,
		DigestSection:  cluster.DigestSection,
		ProposedNote:   generateProposedNote(cluster),
		ClusterSize:    cluster.Count,
		Volleys:        cluster.Volleys,
		Timestamp:      time.Now().UTC(),
	}

	subject := "swarm.rapport.insight.proposed"
	return p.hermes.Publish(subject, event)
}

// generateProposedNote creates a human-readable description of the theme
func generateProposedNote(cluster ThemeCluster) string {
	switch cluster.Sentiment {
	case "warm", "playful":
		return fmt.Sprintf("Highlight %q: came up %d times with good energy (avg warmth %.2f)",
			cluster.Topic, cluster.Count, cluster.AvgWarmth)
	case "tense", "cold":
		return fmt.Sprintf("Watch %q: recurred %d times with friction (avg warmth %.2f)",
			cluster.Topic, cluster.Count, cluster.AvgWarmth)
	default:
		return fmt.Sprintf("Note %q: recurring subject across %d exchanges",
			cluster.Topic, cluster.Count)
	}
}
