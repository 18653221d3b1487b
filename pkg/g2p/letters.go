package g2p

import (
	"slices"
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// LetterTarget describes the sound practised for a single letter.
type LetterTarget struct {
	Letter   string   `json:"letter"`
	Primary  string   `json:"primary"`
	Variants []string `json:"variants,omitempty"`
	Example  string   `json:"example"`
}

// Expected returns the primary symbol followed by the accepted variants.
func (lt LetterTarget) Expected() []string {
	return append([]string{lt.Primary}, lt.Variants...)
}

func lt(letter, primary, example string, variants ...string) LetterTarget {
	return LetterTarget{Letter: letter, Primary: primary, Variants: variants, Example: example}
}

var defaultLetters = map[phoneme.Language][]LetterTarget{
	phoneme.English: {
		lt("a", "æ", "apple", "a", "ah", "eɪ"),
		lt("b", "b", "ball"),
		lt("c", "k", "cat", "s"),
		lt("d", "d", "dog"),
		lt("e", "ɛ", "egg", "e", "eh", "i"),
		lt("f", "f", "fish"),
		lt("g", "g", "goat", "dʒ"),
		lt("h", "h", "hat"),
		lt("i", "ɪ", "igloo", "i", "aɪ"),
		lt("j", "dʒ", "jam", "j"),
		lt("k", "k", "kite"),
		lt("l", "l", "lion"),
		lt("m", "m", "moon"),
		lt("n", "n", "nest"),
		lt("o", "ɒ", "octopus", "o", "ɔ", "oʊ"),
		lt("p", "p", "pig"),
		lt("q", "k", "queen", "kw"),
		lt("r", "r", "rabbit", "ɹ"),
		lt("s", "s", "sun"),
		lt("t", "t", "top"),
		lt("u", "ʌ", "umbrella", "u", "ʊ", "ah"),
		lt("v", "v", "van"),
		lt("w", "w", "water"),
		lt("x", "ks", "box", "k", "s"),
		lt("y", "y", "yellow", "j"),
		lt("z", "z", "zebra"),
	},
	phoneme.Spanish: {
		lt("ñ", "ɲ", "niño", "ny", "n"),
		lt("ll", "y", "llave", "ʝ", "ʎ"),
		lt("rr", "r", "perro", "rr"),
		lt("j", "x", "jamón", "h"),
		lt("v", "b", "vaca", "β"),
	},
	phoneme.German: {
		lt("ä", "ɛ", "Äpfel", "e"),
		lt("ö", "ø", "Öl", "œ"),
		lt("ü", "y", "Über", "ʏ", "ü"),
		lt("ß", "s", "Straße"),
		lt("ch", "ç", "ich", "x"),
		lt("w", "v", "Wasser"),
	},
	phoneme.French: {
		lt("u", "y", "lune", "ü"),
		lt("r", "ʁ", "rouge", "r"),
		lt("j", "ʒ", "jour", "zh"),
		lt("ç", "s", "garçon"),
	},
}

// letterTarget looks up letter for lang, falling back to the English entry.
func letterTarget(letters map[phoneme.Language][]LetterTarget, letter string, lang phoneme.Language) (LetterTarget, bool) {
	letter = strings.ToLower(strings.TrimSpace(letter))
	if letter == "" {
		return LetterTarget{}, false
	}
	for _, l := range []phoneme.Language{lang, phoneme.English} {
		i := slices.IndexFunc(letters[l], func(t LetterTarget) bool { return t.Letter == letter })
		if i >= 0 {
			t := letters[l][i]
			t.Variants = slices.Clone(t.Variants)
			return t, true
		}
	}
	return LetterTarget{}, false
}
