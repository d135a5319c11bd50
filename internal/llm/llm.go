package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/annolab/labelqc/internal/severity"
)

// Suggestion is a proposed error category for a rejection comment.
type Suggestion struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Client wraps the Anthropic API for error-category suggestion.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildPrompt constructs the system and user prompts for category suggestion.
func buildPrompt(comment string) (system string, user string) {
	var codes strings.Builder
	for _, c := range severity.All() {
		codes.WriteString("- ")
		codes.WriteString(c.Display())
		codes.WriteString("\n")
	}

	system = `You classify labeling-review rejection comments into a fixed error catalog. Return ONLY a JSON object with these fields:
- "category": the single best-matching catalog code (e.g. "TE-02")
- "reason": one short sentence explaining the match

Rules:
- Pick exactly one code from the catalog below; never invent codes
- Use "Other" only when no specific code fits
- Return valid JSON only, no markdown fencing or explanation

Catalog:
` + codes.String()

	user = "Classify this rejection comment:\n\n" + comment
	return
}

// SuggestCategory asks the LLM which error category best matches a
// rejection comment.
func (c *Client) SuggestCategory(ctx context.Context, comment string) (*Suggestion, error) {
	systemPrompt, userPrompt := buildPrompt(comment)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	suggestion, err := parseSuggestion(text)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// parseSuggestion decodes the model's JSON reply, tolerating markdown fencing,
// and validates the category against the catalog.
func parseSuggestion(text string) (*Suggestion, error) {
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

	var s Suggestion
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	if !severity.Valid(s.Category) {
		return nil, fmt.Errorf("LLM suggested unknown category %q", s.Category)
	}
	return &s, nil
}
