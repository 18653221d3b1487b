// Package ipa normalises IPA (and romanised) phoneme symbols and decides
// whether two symbols denote "the same sound" for scoring purposes.
//
// Matching is intentionally permissive: recognition backends are noisy and
// learners should not be penalised for transcription variance. [AreSimilar]
// applies four short-circuiting tiers, each more lenient than the last:
//
//  1. Equality of the normalised symbols.
//  2. Containment: one normalised symbol is a substring of the other.
//  3. Equal first character.
//  4. Shared membership in a similarity class (see [Classes]).
//
// The package also carries a small articulatory feature table used to
// classify consonants and to describe how two sounds differ.
package ipa

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes stress, length and ARPAbet stress-digit markers.
var stripMarks = strings.NewReplacer(
	"ˈ", "", // primary stress
	"ˌ", "", // secondary stress
	"'", "",
	"ː", "", // long
	"ˑ", "", // half-long
	":", "",
	"0", "", "1", "", "2", "",
)

// Normalize lowercases symbol, strips stress and length marks, decomposes it
// and drops combining diacritics, and trims surrounding whitespace.
//
// Normalize is idempotent.
func Normalize(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	s = stripMarks.Replace(s)

	// Transformers carry state, so one chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err == nil {
		s = folded
	}
	return strings.TrimSpace(s)
}

// firstRune returns the first rune of s, or 0 for the empty string.
func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
