// Package ai backs the extraction and resolution stages with an LLM: it
// turns story text into candidate vocabulary and a term-in-context into a
// resolved meaning. All prompts demand a single JSON object as output.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Keith994/everyone-can-use-english/internal/config"
)

// Client wraps the Anthropic API for both pipeline stages.
type Client struct {
	anthropic anthropic.Client
	cfg       config.AIConfig
	log       *slog.Logger
}

// New creates a Client. The credential check happens in the services that
// call it, so construction never fails.
func New(cfg config.AIConfig, logger *slog.Logger) *Client {
	return &Client{
		anthropic: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:       cfg,
		log:       logger.With("adapter", "ai"),
	}
}

// complete sends one prompt and returns the first complete JSON object from
// the reply, validated as parseable JSON.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai api call: %w", err)
	}

	if len(msg.Content) == 0 {
		return "", fmt.Errorf("ai: empty response")
	}

	jsonStr, err := extractJSON(msg.Content[0].Text)
	if err != nil {
		return "", fmt.Errorf("ai: %w", err)
	}
	if !json.Valid([]byte(jsonStr)) {
		return "", fmt.Errorf("ai: response does not contain valid JSON")
	}

	return jsonStr, nil
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
