package g2p

import (
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// lx splits a space-separated IPA transcription.
func lx(s string) []string { return strings.Fields(s) }

// defaultLexicon holds curated IPA transcriptions that take precedence over
// the rule tables. The palatal glide is written "y" to match the romanised
// tokens; "j" always denotes the affricate.
var defaultLexicon = map[phoneme.Language]map[string][]string{
	phoneme.English: {
		"hello":   lx("h ɛ l oʊ"),
		"world":   lx("w ɝ l d"),
		"water":   lx("w ɔ t ɚ"),
		"mother":  lx("m ʌ ð ɚ"),
		"father":  lx("f ɑ ð ɚ"),
		"thank":   lx("θ æ ŋ k"),
		"think":   lx("θ ɪ ŋ k"),
		"the":     lx("ð ə"),
		"this":    lx("ð ɪ s"),
		"cat":     lx("k æ t"),
		"dog":     lx("d ɒ g"),
		"fish":    lx("f ɪ ʃ"),
		"ship":    lx("ʃ ɪ p"),
		"cheese":  lx("tʃ i z"),
		"judge":   lx("dʒ ʌ dʒ"),
		"yes":     lx("y ɛ s"),
		"no":      lx("n oʊ"),
		"one":     lx("w ʌ n"),
		"two":     lx("t u"),
		"three":   lx("θ ɹ i"),
		"red":     lx("ɹ ɛ d"),
		"blue":    lx("b l u"),
		"green":   lx("g ɹ i n"),
		"apple":   lx("æ p ə l"),
		"banana":  lx("b ə n æ n ə"),
		"moon":    lx("m u n"),
		"sun":     lx("s ʌ n"),
		"book":    lx("b ʊ k"),
		"good":    lx("g ʊ d"),
		"light":   lx("l aɪ t"),
		"night":   lx("n aɪ t"),
		"phone":   lx("f oʊ n"),
		"quick":   lx("k w ɪ k"),
		"measure": lx("m ɛ ʒ ɚ"),
		"sing":    lx("s ɪ ŋ"),
	},
	phoneme.Spanish: {
		"hola":    lx("o l a"),
		"gracias": lx("g ɾ a s y a s"),
		"perro":   lx("p e r o"),
		"niño":    lx("n i ɲ o"),
		"agua":    lx("a g w a"),
	},
	phoneme.French: {
		"bonjour": lx("b ɔ̃ ʒ u ʁ"),
		"merci":   lx("m ɛ ʁ s i"),
		"oui":     lx("w i"),
	},
	phoneme.German: {
		"danke": lx("d a ŋ k ə"),
		"ich":   lx("ɪ ç"),
		"nein":  lx("n aɪ n"),
	},
	phoneme.Italian: {
		"ciao":   lx("tʃ a o"),
		"grazie": lx("g r a ts y e"),
	},
}

// defaultTranslit is the whole-word transliteration dictionary for
// non-Latin scripts. Words missing here are tokenized in their native script.
var defaultTranslit = map[phoneme.Language]map[string]string{
	phoneme.Russian: {
		"привет":     "privet",
		"спасибо":    "spasibo",
		"да":         "da",
		"нет":        "nyet",
		"мама":       "mama",
		"папа":       "papa",
		"вода":       "voda",
		"дом":        "dom",
		"хорошо":     "khorosho",
		"пожалуйста": "pozhaluysta",
	},
	phoneme.Greek: {
		"γεια":      "yia",
		"καλημέρα":  "kalimera",
		"ευχαριστώ": "efcharisto",
		"ναι":       "ne",
		"όχι":       "ochi",
		"νερό":      "nero",
		"καληνύχτα": "kalinychta",
	},
}
