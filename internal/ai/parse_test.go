package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanBlurb(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "A desert planet. A young heir.", "A desert planet. A young heir."},
		{"label and quotes", `Description: "A desert planet."`, "A desert planet."},
		{"markdown", "**Dune** is _vast_.\n\nRead it.", "Dune is vast. Read it."},
		{"smart quotes", "“A quiet village.”", "A quiet village."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanBlurb(tt.input)
			if err != nil {
				t.Fatalf("unexpected err=%v", err)
			}
			if got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestCleanBlurbEmpty(t *testing.T) {
	if _, err := CleanBlurb("  ** ``  "); !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("err=%v want ErrEmptyDraft", err)
	}
}

func TestCleanBlurbTruncatesAtSentence(t *testing.T) {
	long := strings.Repeat("Sand and spice. ", 60)
	got, err := CleanBlurb(long)
	if err != nil {
		t.Fatalf("unexpected err=%v", err)
	}
	if len(got) > maxBlurbLen {
		t.Fatalf("len=%d exceeds %d", len(got), maxBlurbLen)
	}
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("got=%q does not end on a sentence", got)
	}
}

func TestBuildBlurbPrompt(t *testing.T) {
	if p := BuildBlurbPrompt(" SciFi "); !strings.Contains(p, "science fiction") {
		t.Fatalf("category tone missing: %q", p)
	}
	if p := BuildBlurbPrompt("cookbooks"); !strings.Contains(p, "Tone (general)") {
		t.Fatalf("fallback tone missing: %q", p)
	}
}
