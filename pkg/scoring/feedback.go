package scoring

import (
	"fmt"
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/phoneme/ipa"
)

const (
	msgSuccess     = "Great job! Your pronunciation matches the target."
	msgSpeakSlowly = "Try speaking slowly and clearly."
	msgNoTarget    = "There is nothing to compare yet: choose a word or letter first."
)

var dimensionHints = map[string]string{
	"type":     "it came out as a vowel where a consonant belongs, or the reverse",
	"place":    "move where your lips or tongue make contact",
	"manner":   "change how the air flows",
	"voicing":  "check whether your voice should be on or off",
	"height":   "adjust how open your mouth is",
	"backness": "move your tongue further forward or back",
	"rounding": "change how rounded your lips are",
}

// feedback builds the message list from the first non-matching target entry,
// or a success message when every target entry matched.
func feedback(target phoneme.Sequence, entries []Entry) []string {
	if len(target) == 0 {
		return []string{msgNoTarget}
	}
	for _, e := range entries {
		if e.Target == nil || e.Status == Match {
			continue
		}
		msgs := []string{fmt.Sprintf("Focus on the sound %q.", e.Target.Symbol)}
		if e.Detected != nil {
			if hint := articulationHint(e.Target.Symbol, e.Detected.Symbol); hint != "" {
				msgs = append(msgs, hint)
			}
		}
		return append(msgs, msgSpeakSlowly)
	}
	return []string{msgSuccess}
}

func articulationHint(want, got string) string {
	dims := ipa.FeatureDiff(want, got)
	if len(dims) == 0 {
		return ""
	}
	hints := make([]string, 0, len(dims))
	for _, d := range dims {
		if h, ok := dimensionHints[d]; ok {
			hints = append(hints, h)
		}
	}
	if len(hints) == 0 {
		return ""
	}
	return fmt.Sprintf("You said %q instead: %s.", got, strings.Join(hints, "; "))
}

func trailingFeedback(primary, extra string) []string {
	return []string{
		fmt.Sprintf("Good %q, but an extra %q sound followed it.", primary, extra),
		"Hold the sound on its own without adding another consonant.",
	}
}
