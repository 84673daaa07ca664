package emotion

import (
	"strings"
	"unicode"
)

// Disgust is emitted by some classifier models but has no style of its own.
const Disgust Label = "disgust"

// Decision carries the winning label and its keyword score.
type Decision struct {
	Emotion Label
	Score   int
}

var keywordBuckets = map[Label][]string{
	Joy: {
		"happy", "glad", "joy", "delighted", "excited", "thrilled", "love", "loved", "wonderful",
		"great", "awesome", "amazing", "finally", "got the job", "promoted", "celebrate", "smile",
		"smiled", "laugh", "laughed", "grateful", "thank", "thanks", "proud", "won", "success", "passed", "yay",
	},
	Sadness: {
		"sad", "cry", "cried", "crying", "tears", "lonely", "alone", "miss", "missed", "lost", "grief",
		"depressed", "heartbroken", "hurt", "sorrow", "funeral", "passed away", "died", "goodbye",
		"rejected", "disappointed", "unhappy", "empty",
	},
	Fear: {
		"afraid", "scared", "fear", "terrified", "frightened", "nervous", "anxious", "panic",
		"worried", "dark", "alone at night", "footsteps", "creepy", "danger", "threat", "trembling",
		"shaking", "horror", "nightmare",
	},
	Anger: {
		"angry", "furious", "mad", "rage", "hate", "annoyed", "irritated", "pissed", "outraged",
		"unfair", "yelled", "shouted", "slammed", "fed up", "betrayed", "sick of",
	},
	Surprise: {
		"surprise", "surprised", "suddenly", "unexpected", "unexpectedly", "shocked", "can't believe",
		"cannot believe", "out of nowhere", "wow", "whoa", "astonished", "never expected", "no way",
	},
	Disgust: {
		"disgusting", "gross", "revolting", "nasty", "vomit", "rotten", "filthy", "stink",
	},
}

var punctuationBoost = map[Label]int{
	Surprise: 2,
	Joy:      1,
}

// Analyze picks the dominant emotion of text from keyword and punctuation
// cues. Text without any cue is Neutral.
func Analyze(text string) Decision {
	words := tokenize(text)
	if len(words) == 0 {
		return Decision{Emotion: Neutral}
	}

	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	joined := " " + strings.Join(words, " ") + " "

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, keyword := range keywords {
			var matched bool
			if strings.Contains(keyword, " ") {
				matched = strings.Contains(joined, " "+keyword+" ")
			} else {
				_, matched = wordSet[keyword]
			}
			if matched {
				scores[label] += 3
			}
		}
	}

	exclamations := strings.Count(text, "!")
	questionBursts := strings.Count(text, "?!") + strings.Count(text, "!?")
	if exclamations > 0 {
		if scores[Joy] > 0 {
			scores[Joy] += punctuationBoost[Joy] * exclamations
		}
		if questionBursts > 0 || scores[Surprise] > 0 {
			scores[Surprise] += punctuationBoost[Surprise] * exclamations
		}
	}

	best := Neutral
	bestScore := 0
	// Iterate in a fixed order so ties resolve deterministically.
	for _, label := range append(append([]Label(nil), Known...), Disgust) {
		if s := scores[label]; s > bestScore {
			best = label
			bestScore = s
		}
	}

	return Decision{Emotion: best, Score: bestScore}
}

// tokenize lower-cases text and splits it into words. Apostrophes stay
// inside words so "won't" never matches "won".
func tokenize(text string) []string {
	normalized := strings.ToLower(strings.ReplaceAll(text, "\u2019", "'"))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
