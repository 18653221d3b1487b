package ipa

import (
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

func consonant(place, manner string, voiced bool) phoneme.Features {
	return phoneme.Features{Type: phoneme.TypeConsonant, Place: place, Manner: manner, Voiced: &voiced}
}

func vowel(height, backness string, rounded bool) phoneme.Features {
	return phoneme.Features{Type: phoneme.TypeVowel, Height: height, Backness: backness, Rounded: &rounded}
}

// featureTable covers the IPA symbols and romanised tokens produced by the
// G2P rule tables. Keys are normalised.
var featureTable = map[string]phoneme.Features{
	// plosives
	"p": consonant("bilabial", "plosive", false),
	"b": consonant("bilabial", "plosive", true),
	"t": consonant("alveolar", "plosive", false),
	"d": consonant("alveolar", "plosive", true),
	"ʈ": consonant("retroflex", "plosive", false),
	"ɖ": consonant("retroflex", "plosive", true),
	"c": consonant("palatal", "plosive", false),
	"k": consonant("velar", "plosive", false),
	"g": consonant("velar", "plosive", true),
	"ɡ": consonant("velar", "plosive", true),
	"q": consonant("uvular", "plosive", false),
	"ʔ": consonant("glottal", "plosive", false),

	// nasals
	"m":  consonant("bilabial", "nasal", true),
	"ɱ":  consonant("labiodental", "nasal", true),
	"n":  consonant("alveolar", "nasal", true),
	"ɳ":  consonant("retroflex", "nasal", true),
	"ɲ":  consonant("palatal", "nasal", true),
	"ny": consonant("palatal", "nasal", true),
	"ŋ":  consonant("velar", "nasal", true),
	"ng": consonant("velar", "nasal", true),

	// fricatives
	"ɸ":  consonant("bilabial", "fricative", false),
	"β":  consonant("bilabial", "fricative", true),
	"f":  consonant("labiodental", "fricative", false),
	"v":  consonant("labiodental", "fricative", true),
	"θ":  consonant("dental", "fricative", false),
	"ð":  consonant("dental", "fricative", true),
	"th": consonant("dental", "fricative", false),
	"dh": consonant("dental", "fricative", true),
	"s":  consonant("alveolar", "fricative", false),
	"z":  consonant("alveolar", "fricative", true),
	"ʃ":  consonant("postalveolar", "fricative", false),
	"ʒ":  consonant("postalveolar", "fricative", true),
	"sh": consonant("postalveolar", "fricative", false),
	"zh": consonant("postalveolar", "fricative", true),
	"ʂ":  consonant("retroflex", "fricative", false),
	"ʐ":  consonant("retroflex", "fricative", true),
	"ɕ":  consonant("alveolopalatal", "fricative", false),
	"ʑ":  consonant("alveolopalatal", "fricative", true),
	"ç":  consonant("palatal", "fricative", false),
	"x":  consonant("velar", "fricative", false),
	"kh": consonant("velar", "fricative", false),
	"ɣ":  consonant("velar", "fricative", true),
	"χ":  consonant("uvular", "fricative", false),
	"ʁ":  consonant("uvular", "fricative", true),
	"ħ":  consonant("pharyngeal", "fricative", false),
	"ʕ":  consonant("pharyngeal", "fricative", true),
	"h":  consonant("glottal", "fricative", false),
	"ɦ":  consonant("glottal", "fricative", true),

	// affricates
	"ts": consonant("alveolar", "affricate", false),
	"dz": consonant("alveolar", "affricate", true),
	"tʃ": consonant("postalveolar", "affricate", false),
	"dʒ": consonant("postalveolar", "affricate", true),
	"ch": consonant("postalveolar", "affricate", false),
	"j":  consonant("postalveolar", "affricate", true),
	"tɕ": consonant("alveolopalatal", "affricate", false),
	"dʑ": consonant("alveolopalatal", "affricate", true),

	// approximants, taps, trills, laterals
	"ɹ": consonant("alveolar", "approximant", true),
	"r": consonant("alveolar", "trill", true),
	"ɾ": consonant("alveolar", "tap", true),
	"ʀ": consonant("uvular", "trill", true),
	"ɻ": consonant("retroflex", "approximant", true),
	"l": consonant("alveolar", "lateral", true),
	"ɫ": consonant("alveolar", "lateral", true),
	"ɭ": consonant("retroflex", "lateral", true),
	"ʎ": consonant("palatal", "lateral", true),
	"w": consonant("labiovelar", "approximant", true),
	"ʍ": consonant("labiovelar", "approximant", false),
	"ɥ": consonant("labiopalatal", "approximant", true),
	// Romanised "y" is the palatal glide, not the IPA rounded vowel.
	"y": consonant("palatal", "approximant", true),

	// vowels
	"i":  vowel("close", "front", false),
	"ee": vowel("close", "front", false),
	"ɪ":  vowel("near-close", "front", false),
	"e":  vowel("close-mid", "front", false),
	"ɛ":  vowel("open-mid", "front", false),
	"eh": vowel("open-mid", "front", false),
	"æ":  vowel("near-open", "front", false),
	"a":  vowel("open", "front", false),
	"ah": vowel("open", "central", false),
	"ɐ":  vowel("near-open", "central", false),
	"ə":  vowel("mid", "central", false),
	"ɜ":  vowel("open-mid", "central", false),
	"ɝ":  vowel("open-mid", "central", false),
	"ɚ":  vowel("mid", "central", false),
	"er": vowel("open-mid", "central", false),
	"ɨ":  vowel("close", "central", false),
	"ʉ":  vowel("close", "central", true),
	"ʌ":  vowel("open-mid", "back", false),
	"ɑ":  vowel("open", "back", false),
	"ɒ":  vowel("open", "back", true),
	"ɔ":  vowel("open-mid", "back", true),
	"aw": vowel("open-mid", "back", true),
	"o":  vowel("close-mid", "back", true),
	"oh": vowel("close-mid", "back", true),
	"ʊ":  vowel("near-close", "back", true),
	"u":  vowel("close", "back", true),
	"oo": vowel("close", "back", true),
	"ɯ":  vowel("close", "back", false),
	"ø":  vowel("close-mid", "front", true),
	"œ":  vowel("open-mid", "front", true),
	"ʏ":  vowel("near-close", "front", true),
}

// vowelLetters are the leading runes treated as vowels when a symbol has no
// feature entry.
const vowelLetters = "aeiouæɑɒɔəɛɜɪʊʌøœɐɨʉɯɤɝɚʏ"

// FeaturesOf returns the articulatory features of symbol. Multi-character
// symbols without an entry (diphthongs, aspirated stops) inherit the
// features of their first character. It returns nil for unknown symbols.
func FeaturesOf(symbol string) *phoneme.Features {
	n := Normalize(symbol)
	if n == "" {
		return nil
	}
	if f, ok := featureTable[n]; ok {
		return &f
	}
	if f, ok := featureTable[string(firstRune(n))]; ok {
		return &f
	}
	return nil
}

// IsConsonant reports whether symbol is an articulated consonant. Pauses and
// vowels are not consonants. Unknown letters are classified by their first
// rune.
func IsConsonant(symbol string) bool {
	if phoneme.IsPause(symbol) {
		return false
	}
	if f := FeaturesOf(symbol); f != nil {
		return f.Type == phoneme.TypeConsonant
	}
	n := Normalize(symbol)
	r := firstRune(n)
	if r == 0 {
		return false
	}
	for _, v := range vowelLetters {
		if r == v {
			return false
		}
	}
	return true
}

// Annotate returns a copy of seq with Features filled in wherever the table
// knows the symbol. Existing features are kept.
func Annotate(seq phoneme.Sequence) phoneme.Sequence {
	out := seq.Clone()
	for i := range out {
		if out[i].Features == nil {
			out[i].Features = FeaturesOf(out[i].Symbol)
		}
	}
	return out
}

// FeatureDiff lists the articulatory dimensions on which a and b differ:
// "type", "place", "manner", "voicing", "height", "backness", "rounding".
// It returns nil when either symbol is unknown or they agree on all
// applicable dimensions.
func FeatureDiff(a, b string) []string {
	fa, fb := FeaturesOf(a), FeaturesOf(b)
	if fa == nil || fb == nil {
		return nil
	}
	if fa.Type != fb.Type {
		return []string{"type"}
	}
	var diff []string
	if fa.Type == phoneme.TypeConsonant {
		if fa.Place != fb.Place {
			diff = append(diff, "place")
		}
		if fa.Manner != fb.Manner {
			diff = append(diff, "manner")
		}
		if !sameBool(fa.Voiced, fb.Voiced) {
			diff = append(diff, "voicing")
		}
		return diff
	}
	if fa.Height != fb.Height {
		diff = append(diff, "height")
	}
	if fa.Backness != fb.Backness {
		diff = append(diff, "backness")
	}
	if !sameBool(fa.Rounded, fb.Rounded) {
		diff = append(diff, "rounding")
	}
	return diff
}

func sameBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
