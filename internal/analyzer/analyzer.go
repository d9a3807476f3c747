package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/rapport/internal/anthropic"
	"github.com/MikeSquared-Agency/rapport/internal/segment"
)

type Analyzer struct {
	llm    *anthropic.Client
	logger *slog.Logger
}

func New(llm *anthropic.Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{llm: llm, logger: logger}
}

type llmResponse struct {
	Sentiment string   `json:"sentiment"`
	Warmth    float64  `json:"warmth"`
	Intensity float64  `json:"intensity"`
	Topics    []string `json:"topics"`
	Summary   string   `json:"summary"`
}

// Annotate sends a volley's pivot text to the LLM and returns the structured
// annotation. The volley's content-addressed ID keys the result, so callers
// can skip volleys they have already annotated.
func (a *Analyzer) Annotate(ctx context.Context, v segment.Volley) (*Annotation, error) {
	prompt := fmt.Sprintf(annotationUserPrompt, v.PivotText)

	messages := []anthropic.Message{
		{Role: "user", Content: prompt},
	}

	a.logger.Info("annotating volley",
		"volley_id", v.ID,
		"messages", v.MessageCount,
		"depth", v.Depth,
	)

	raw, err := a.llm.Complete(ctx, systemPrompt, messages, 1024)
	if err != nil {
		return nil, fmt.Errorf("llm annotation: %w", err)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		a.logger.Error("failed to parse annotation response",
			"volley_id", v.ID,
			"error", err,
			"raw", raw,
		)
		return nil, fmt.Errorf("parse annotation: %w", err)
	}

	ann := &Annotation{
		VolleyID:  v.ID,
		Sentiment: resp.Sentiment,
		Warmth:    clamp01(resp.Warmth),
		Intensity: clamp01(resp.Intensity),
		Topics:    resp.Topics,
		Summary:   resp.Summary,
	}

	a.logger.Info("annotation complete",
		"volley_id", v.ID,
		"sentiment", ann.Sentiment,
		"warmth", ann.Warmth,
		"topics", len(ann.Topics),
	)

	return ann, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
