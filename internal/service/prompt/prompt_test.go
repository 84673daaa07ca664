package prompt

import (
	"strings"
	"testing"

	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

func TestResolveStyleKnownLabels(t *testing.T) {
	for _, label := range emotion.Known {
		got := ResolveStyle(label)
		if got != styleByEmotion[label] {
			t.Fatalf("ResolveStyle(%s) = %q, want %q", label, got, styleByEmotion[label])
		}
		if got == FallbackStyle {
			t.Fatalf("ResolveStyle(%s) returned fallback", label)
		}
	}
}

func TestResolveStyleFallback(t *testing.T) {
	for _, label := range []emotion.Label{"", "disgust", "nostalgia", "JOY", "joy "} {
		if got := ResolveStyle(label); got != FallbackStyle {
			t.Fatalf("ResolveStyle(%q) = %q, want fallback", label, got)
		}
	}
}

func TestResolveStyleJoyDescriptor(t *testing.T) {
	want := "clear happy face, authentic smile, sharp eyes, natural sunlight, candid iPhone photo, 8k resolution, symmetrical features"
	if got := ResolveStyle(emotion.Joy); got != want {
		t.Fatalf("unexpected joy descriptor: %q", got)
	}
}

func TestStylesListsEveryLabel(t *testing.T) {
	entries := Styles()
	if len(entries) != len(emotion.Known)+1 {
		t.Fatalf("expected %d entries, got %d", len(emotion.Known)+1, len(entries))
	}
	if entries[len(entries)-1].Style != FallbackStyle {
		t.Fatalf("expected fallback last, got %q", entries[len(entries)-1].Style)
	}
}

func TestComposeEmbedsTextAndStyle(t *testing.T) {
	c := NewComposer()
	p := c.Compose("I finally got the job", emotion.Joy)

	if !strings.Contains(p.Image, "I finally got the job") {
		t.Fatalf("image prompt missing input: %q", p.Image)
	}
	if !strings.Contains(p.Image, ResolveStyle(emotion.Joy)) {
		t.Fatalf("image prompt missing joy style: %q", p.Image)
	}
	if !strings.HasPrefix(p.Image, "A high-quality, realistic photo of a normal human being: ") {
		t.Fatalf("unexpected image prompt prefix: %q", p.Image)
	}
	if !strings.HasSuffix(p.Image, "clear eyes, symmetrical facial structure, natural lighting, no distortions, 8k resolution.") {
		t.Fatalf("image prompt missing anti-distortion qualifiers: %q", p.Image)
	}
	if !strings.Contains(p.Story, "The mood is joy.") {
		t.Fatalf("story prompt missing mood: %q", p.Story)
	}
	if !strings.HasSuffix(p.Story, "Original thought: I finally got the job") {
		t.Fatalf("story prompt missing original text: %q", p.Story)
	}
	if p.Emotion != emotion.Joy || p.Style != ResolveStyle(emotion.Joy) {
		t.Fatalf("unexpected prompt metadata: %+v", p)
	}
}

func TestComposeKeepsTextVerbatim(t *testing.T) {
	c := NewComposer()
	text := "Line one 😀\nline two & \"quotes\" / 100% ?#" + strings.Repeat(" long", 2000)

	p := c.Compose(text, emotion.Label("nostalgia"))
	if !strings.Contains(p.Story, text) || !strings.Contains(p.Image, text) {
		t.Fatal("expected prompts to contain the untouched input")
	}
	if p.Style != FallbackStyle {
		t.Fatalf("expected fallback style for unknown label, got %q", p.Style)
	}
}
