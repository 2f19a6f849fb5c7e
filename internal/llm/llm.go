package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ExtractedRequirement holds a single requirement extracted from raw
// communication text.
type ExtractedRequirement struct {
	Text            string  `json:"text"`
	Category        string  `json:"category"`
	PriorityScore   float64 `json:"priority_score"`
	SentimentScore  float64 `json:"sentiment_score"`
	StakeholderName string  `json:"stakeholder_name"`
}

// ExtractedConflict holds one contradiction the model found between two
// extracted requirements. Indexes refer to positions in the requirement
// list the model was given. SeverityScore uses the model contract's 0-100
// scale; callers normalize to 0-1 before persisting.
type ExtractedConflict struct {
	ReqAIndex         int    `json:"req_a_index"`
	ReqBIndex         int    `json:"req_b_index"`
	ConflictType      string `json:"conflict_type"`
	SeverityScore     int    `json:"severity_score"`
	ResolutionSummary string `json:"resolution_summary"`
}

// Client wraps the Anthropic API for requirement extraction. Without an
// API key it runs in mock mode and returns canned results, so ingestion
// stays usable in development.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
	mock  bool
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	if apiKey == "" {
		return &Client{mock: true}
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Mock reports whether the client is running without an API key.
func (c *Client) Mock() bool { return c.mock }

const extractSystemPrompt = `You extract structured business requirements from raw communication text (email threads, chat logs, meeting transcripts). Return ONLY a JSON array of objects with these fields:
- "text": the requirement, rephrased as a single clear statement
- "category": one of "functional", "non-functional", "constraint"
- "priority_score": importance from 0 to 10
- "sentiment_score": tone of the statement from -1 (hostile/negative) to 1 (enthusiastic)
- "stakeholder_name": name of the person who voiced it, or "" if unknown

Rules:
- One object per distinct requirement; merge restatements of the same need
- Ignore pleasantries, scheduling chatter, and anything that is not a requirement
- Return valid JSON only, no markdown fencing or explanation`

const conflictSystemPrompt = `You identify semantic or logical contradictions in a numbered list of business requirements. Return ONLY a JSON array of objects with these fields:
- "req_a_index": zero-based index of the first requirement in the pair
- "req_b_index": zero-based index of the second (must differ from req_a_index)
- "conflict_type": a short tag such as "timeline", "scope", "logic"
- "severity_score": integer 0-100
- "resolution_summary": one-sentence suggested resolution

Rules:
- Only report genuine contradictions, not overlaps or duplicates
- Return valid JSON only, no markdown fencing or explanation`

// ExtractRequirements sends communication text to the LLM and returns
// structured requirements.
func (c *Client) ExtractRequirements(ctx context.Context, text string) ([]ExtractedRequirement, error) {
	if c.mock {
		snippet := text
		if len(snippet) > 20 {
			snippet = snippet[:20]
		}
		return []ExtractedRequirement{{
			Text:            "Mock: " + snippet,
			Category:        "functional",
			PriorityScore:   5,
			SentimentScore:  0,
			StakeholderName: "Mock User",
		}}, nil
	}

	raw, err := c.complete(ctx, extractSystemPrompt, "Extract all requirements from this communication:\n\n"+text, 4096)
	if err != nil {
		return nil, err
	}

	var reqs []ExtractedRequirement
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, raw)
	}
	return reqs, nil
}

// DetectConflicts asks the LLM for contradictions among the given
// requirement texts. Mock mode reports none.
func (c *Client) DetectConflicts(ctx context.Context, requirements []string) ([]ExtractedConflict, error) {
	if c.mock || len(requirements) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Identify conflicts in these requirements:\n\n")
	for i, r := range requirements {
		fmt.Fprintf(&sb, "%d. %s\n", i, r)
	}

	raw, err := c.complete(ctx, conflictSystemPrompt, sb.String(), 2048)
	if err != nil {
		return nil, err
	}

	var conflicts []ExtractedConflict
	if err := json.Unmarshal([]byte(raw), &conflicts); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, raw)
	}

	// Drop entries pointing outside the list; the model occasionally
	// hallucinates indexes.
	valid := conflicts[:0]
	for _, c := range conflicts {
		if c.ReqAIndex < 0 || c.ReqBIndex < 0 || c.ReqAIndex >= len(requirements) || c.ReqBIndex >= len(requirements) || c.ReqAIndex == c.ReqBIndex {
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}

// complete runs one system+user exchange and returns the cleaned text body.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return stripFences(text), nil
}

// stripFences removes markdown code fencing the model sometimes wraps JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
