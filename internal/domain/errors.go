package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrMissingCredential = errors.New("missing ai credential")
)

// ExtractionError reports a failed external extraction call. The story's
// extraction state is left untouched, so retrying is re-invoking the stage.
type ExtractionError struct {
	StoryID string
	Cause   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction for story %s: %v", e.StoryID, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// ResolutionError reports a failed lookup resolution. The pending lookup
// stays queued and eligible for retry.
type ResolutionError struct {
	Word  string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Word, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }
