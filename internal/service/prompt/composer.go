package prompt

import (
	"fmt"

	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

const (
	storyTemplate = "Continue this story in a clear, meaningful paragraph using simple, " +
		"easy-to-understand words. Make it feel like real daily life. " +
		"The mood is %s. Original thought: %s"

	imageTemplate = "A high-quality, realistic photo of a normal human being: %s. " +
		"%s, clear eyes, symmetrical facial structure, natural lighting, " +
		"no distortions, 8k resolution."
)

// Prompts holds the two outbound prompts derived from one input.
type Prompts struct {
	Emotion emotion.Label
	Style   string
	Story   string
	Image   string
}

// Composer builds the story-continuation and image prompts.
type Composer struct {
	resolve func(emotion.Label) string
}

// NewComposer returns a Composer backed by the static style table.
func NewComposer() *Composer {
	return &Composer{resolve: ResolveStyle}
}

// Compose derives both prompts from the original text and detected emotion.
// The text is embedded verbatim; escaping is left to the transport.
func (c *Composer) Compose(text string, label emotion.Label) Prompts {
	style := c.resolve(label)
	return Prompts{
		Emotion: label,
		Style:   style,
		Story:   c.StoryPrompt(text, label),
		Image:   fmt.Sprintf(imageTemplate, text, style),
	}
}

// StoryPrompt builds only the continuation instruction.
func (c *Composer) StoryPrompt(text string, label emotion.Label) string {
	return fmt.Sprintf(storyTemplate, label, text)
}
