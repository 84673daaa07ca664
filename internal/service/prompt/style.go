package prompt

import (
	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

// FallbackStyle is used for any label without a dedicated descriptor.
const FallbackStyle = "clear face, realistic photography"

var styleByEmotion = map[emotion.Label]string{
	emotion.Joy:      "clear happy face, authentic smile, sharp eyes, natural sunlight, candid iPhone photo, 8k resolution, symmetrical features",
	emotion.Sadness:  "clear face, quiet melancholic expression, soft window light, natural skin texture, unposed documentary photo, sharp focus on eyes",
	emotion.Fear:     "clear focused face, wide eyes, sharp facial features, low indoor lighting, realistic human anatomy, handheld snapshot",
	emotion.Anger:    "sharp clear face, intense gaze, realistic skin, indoor lighting, unpolished candid photo, no distortions, symmetrical face",
	emotion.Surprise: "clear shocked face, sharp focus, eyebrows raised, authentic human reaction, natural park lighting, realistic anatomy",
	emotion.Neutral:  "clear normal face, unposed headshot, natural daylight, ordinary person, sharp details, realistic skin tone, clear eyes",
}

// ResolveStyle returns the visual descriptor for label. It never fails:
// unknown labels get FallbackStyle.
func ResolveStyle(label emotion.Label) string {
	if style, ok := styleByEmotion[label]; ok {
		return style
	}
	return FallbackStyle
}

// StyleEntry pairs a label with its descriptor for display.
type StyleEntry struct {
	Mood  emotion.Label `json:"mood"`
	Style string        `json:"style"`
}

// Styles returns the style table in label order, fallback last.
func Styles() []StyleEntry {
	entries := make([]StyleEntry, 0, len(emotion.Known)+1)
	for _, label := range emotion.Known {
		entries = append(entries, StyleEntry{Mood: label, Style: styleByEmotion[label]})
	}
	entries = append(entries, StyleEntry{Mood: "*", Style: FallbackStyle})
	return entries
}
