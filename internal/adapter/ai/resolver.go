package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
)

// ResolveSense disambiguates a term in its sentence context against the
// candidate senses and returns the resolved meaning. A blank
// context_translation in the reply means the model found no usable sense;
// the caller must treat that as a no-op, not an error.
func (c *Client) ResolveSense(ctx context.Context, word, sentence string, candidates []domain.CandidateSense) (*domain.ResolvedMeaning, error) {
	jsonStr, err := c.complete(ctx, buildResolvePrompt(word, sentence, candidates))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Word               string `json:"word"`
		Lemma              string `json:"lemma"`
		Pos                string `json:"pos"`
		Pronunciation      string `json:"pronunciation"`
		Definition         string `json:"definition"`
		Translation        string `json:"translation"`
		ContextTranslation string `json:"context_translation"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("ai: decode resolved meaning: %w", err)
	}

	c.log.DebugContext(ctx, "sense resolved",
		slog.String("word", word),
		slog.Bool("usable", payload.ContextTranslation != ""),
	)

	return &domain.ResolvedMeaning{
		Word:               payload.Word,
		Lemma:              payload.Lemma,
		Pos:                payload.Pos,
		Pronunciation:      payload.Pronunciation,
		Definition:         payload.Definition,
		Translation:        payload.Translation,
		ContextTranslation: payload.ContextTranslation,
	}, nil
}

// buildResolvePrompt creates the disambiguation prompt for one pending lookup.
func buildResolvePrompt(word, sentence string, candidates []domain.CandidateSense) string {
	candidateJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		candidateJSON = []byte("[]")
	}

	return fmt.Sprintf(`You are a professional English-Russian dictionary editor.

The learner met the term "%s" in this sentence:
%s

Candidate senses from reference data:
%s

Pick the sense that fits the sentence and output ONLY a valid JSON object matching this exact schema:
{
  "word": "<the term>",
  "lemma": "<dictionary form of the term>",
  "pos": "<NOUN|VERB|ADJECTIVE|ADVERB|PHRASE|IDIOM|OTHER>",
  "pronunciation": "<IPA or empty>",
  "definition": "<clear English definition of the fitting sense>",
  "translation": "<Russian translation of the fitting sense>",
  "context_translation": "<Russian translation of the whole sentence>"
}

Rules:
- The definition and translation must match how the term is used in the sentence
- If no sense fits and you cannot determine one, set context_translation to an empty string
- Output ONLY the JSON, no markdown, no explanations`, word, sentence, candidateJSON)
}
