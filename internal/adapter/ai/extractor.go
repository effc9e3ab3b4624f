package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// ExtractTerms asks the model for the target vocabulary of a passage:
// the words and idioms a language learner should look up.
func (c *Client) ExtractTerms(ctx context.Context, text string) (*domain.Extraction, error) {
	jsonStr, err := c.complete(ctx, buildExtractPrompt(text))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Words  []string `json:"words"`
		Idioms []string `json:"idioms"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("ai: decode extraction: %w", err)
	}

	c.log.InfoContext(ctx, "terms extracted",
		slog.Int("words", len(payload.Words)),
		slog.Int("idioms", len(payload.Idioms)),
	)

	return &domain.Extraction{Words: payload.Words, Idioms: payload.Idioms}, nil
}

// buildExtractPrompt creates the extraction prompt for one passage.
func buildExtractPrompt(text string) string {
	return fmt.Sprintf(`You are an English vocabulary coach for intermediate learners.

From the passage below, pick the vocabulary a B1-level learner should study: uncommon words and idiomatic expressions that appear in the passage VERBATIM.

Passage:
%s

Output ONLY a valid JSON object matching this exact schema:
{
  "words": ["<word as it appears in the passage>"],
  "idioms": ["<multi-word expression as it appears in the passage>"]
}

Rules:
- Every entry must occur verbatim in the passage (same spelling, any casing)
- Keep idioms as whole phrases, do not split them into words
- Skip proper nouns, numbers, and trivial everyday words
- Either list may be empty
- Output ONLY the JSON, no markdown, no explanations`, text)
}
