package emotion

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw    string
		expect Label
		known  bool
	}{
		{raw: "joy", expect: Joy, known: true},
		{raw: "  Sadness ", expect: Sadness, known: true},
		{raw: "HAPPY", expect: Joy, known: true},
		{raw: "angry", expect: Anger, known: true},
		{raw: "scared", expect: Fear, known: true},
		{raw: "neutral", expect: Neutral, known: true},
		{raw: "disgust", expect: Disgust, known: false},
		{raw: "Nostalgia", expect: Label("nostalgia"), known: false},
	}

	for _, tc := range cases {
		got := Normalize(tc.raw)
		if got != tc.expect {
			t.Fatalf("Normalize(%q) = %s, want %s", tc.raw, got, tc.expect)
		}
		if got.IsKnown() != tc.known {
			t.Fatalf("Normalize(%q).IsKnown() = %v, want %v", tc.raw, got.IsKnown(), tc.known)
		}
	}
}
