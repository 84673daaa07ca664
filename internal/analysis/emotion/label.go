package emotion

import "strings"

// Label is the dominant affect detected in a piece of text.
// Values outside the known set are kept as-is and treated as unknown.
type Label string

const (
	Joy      Label = "joy"
	Sadness  Label = "sadness"
	Fear     Label = "fear"
	Anger    Label = "anger"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
)

// Known lists the labels that have a dedicated visual style.
var Known = []Label{Joy, Sadness, Fear, Anger, Surprise, Neutral}

var synonyms = map[string]Label{
	"happy":      Joy,
	"happiness":  Joy,
	"joyful":     Joy,
	"sad":        Sadness,
	"sorrow":     Sadness,
	"angry":      Anger,
	"rage":       Anger,
	"scared":     Fear,
	"afraid":     Fear,
	"fearful":    Fear,
	"surprised":  Surprise,
	"shocked":    Surprise,
	"calm":       Neutral,
	"none":       Neutral,
	"no emotion": Neutral,
}

// Normalize maps a raw classifier label onto a Label. Unrecognised
// labels are returned lower-cased so they resolve to the fallback style.
func Normalize(raw string) Label {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := synonyms[normalized]; ok {
		return mapped
	}
	return Label(normalized)
}

// IsKnown reports whether the label belongs to the fixed six.
func (l Label) IsKnown() bool {
	for _, k := range Known {
		if l == k {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	return string(l)
}
