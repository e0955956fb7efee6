package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"leadsync/internal/config"
)

const systemPrompt = `You are a quality reviewer for pre-sales chat conversations. The agent's job is to qualify the customer and book a consultation meeting, not to close a sale.

Evaluate the conversation against this checklist:
1. Greeting and identification of the customer's event or need.
2. Explanation of the offering and what it includes.
3. Meeting pitch: value stated, urgency/scarcity used when booking.
4. Meeting rules explained (who attends, duration, commitment).
5. Objections acknowledged and answered, not ignored.
6. Personalization: customer's name used, replies adapted rather than pasted.
7. Response times: flag gaps above 10 minutes.

Return ONLY a JSON object, no markdown fences and no commentary, with this shape:
{
  "overall_score": <number 0-100>,
  "summary": "<2-3 sentence summary>",
  "positive_points": ["..."],
  "improvement_points": ["..."],
  "errors": [{"type": "<skipped_step|no_urgency|no_personalization|rules_not_confirmed|slow_response|robotic_messages|objection_ignored>", "detail": "..."}],
  "meeting_booked": <true|false|null>
}`

// ClaudeAnalyzer scores transcripts with the Anthropic Messages API. The API
// key comes from the environment (ANTHROPIC_API_KEY).
type ClaudeAnalyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeAnalyzer(cfg config.ScoringConfig) *ClaudeAnalyzer {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ClaudeAnalyzer{
		client:    anthropic.NewClient(),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (a *ClaudeAnalyzer) Analyze(ctx context.Context, transcript Transcript) (Analysis, error) {
	prompt := fmt.Sprintf("## CONVERSATION\n\nTotal messages: %d\n\n%s\n\n---\n\nAnalyze this conversation and return only the JSON.",
		transcript.MessageCount, transcript.Text)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("messages api: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	raw, score, err := parseAnalysisJSON(text)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Model: a.model, OverallScore: score, Raw: raw}, nil
}

// parseAnalysisJSON validates the model output as a JSON object, tolerating
// markdown fences the model sometimes adds despite instructions.
func parseAnalysisJSON(text string) (json.RawMessage, *float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, nil, fmt.Errorf("unstructured analyzer response: %w", err)
	}
	var score *float64
	if v, ok := payload["overall_score"].(float64); ok {
		score = &v
	}
	return json.RawMessage(cleaned), score, nil
}
