package domain

import (
	"errors"
	"testing"
)

func TestStory_HasExtraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		story Story
		want  bool
	}{
		{"nil extraction", Story{}, false},
		{"empty extraction", Story{Extraction: &Extraction{}}, false},
		{"extracted flag but empty result", Story{Extracted: true, Extraction: &Extraction{}}, false},
		{"words only", Story{Extraction: &Extraction{Words: []string{"cat"}}}, true},
		{"idioms only", Story{Extraction: &Extraction{Idioms: []string{"give up"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.story.HasExtraction(); got != tt.want {
				t.Errorf("HasExtraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtraction_Terms(t *testing.T) {
	t.Parallel()

	ex := &Extraction{
		Words:  []string{"cat", "", "dog"},
		Idioms: []string{"give up", "  "},
	}

	got := ex.Terms()
	want := []string{"cat", "dog", "give up"}
	if len(got) != len(want) {
		t.Fatalf("Terms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Terms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolvedMeaning_Usable(t *testing.T) {
	t.Parallel()

	if (&ResolvedMeaning{ContextTranslation: "  "}).Usable() {
		t.Error("blank context translation should not be usable")
	}
	if (*ResolvedMeaning)(nil).Usable() {
		t.Error("nil meaning should not be usable")
	}
	if !(&ResolvedMeaning{ContextTranslation: "кот сидел"}).Usable() {
		t.Error("non-blank context translation should be usable")
	}
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	var err error = &ExtractionError{StoryID: "s1", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}

	err = &ResolutionError{Word: "cat", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ResolutionError should unwrap to its cause")
	}
}
