package ipa

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Class is a group of spellings and IPA symbols that are accepted as the same
// sound. Key is the canonical spelling.
type Class struct {
	Key      string
	Variants []string
}

// classTable lists the similarity classes. Variants are normalised once at
// package init; entries that fold to the same string are harmless.
var classTable = []Class{
	{"a", []string{"a", "ɑ", "æ", "ʌ", "ɐ", "ah", "aa", "á", "à", "â"}},
	{"e", []string{"e", "ɛ", "ə", "eh", "ɜ", "é", "è", "ê", "ä"}},
	{"i", []string{"i", "ɪ", "iː", "ee", "ea", "ie", "í", "ɨ"}},
	{"o", []string{"o", "ɔ", "ɒ", "oʊ", "əʊ", "ou", "oh", "ow", "aw", "ó", "ô"}},
	{"u", []string{"u", "ʊ", "uː", "oo", "ew", "ú", "ʉ", "ɯ"}},
	{"ü", []string{"y", "ʏ", "ü", "ue"}},
	{"ö", []string{"ø", "œ", "ö", "oe"}},
	{"ai", []string{"aɪ", "ai", "ay", "igh"}},
	{"ei", []string{"eɪ", "ei", "ey", "ay"}},
	{"au", []string{"aʊ", "au", "ow"}},
	{"oi", []string{"ɔɪ", "oi", "oy"}},
	{"er", []string{"ɝ", "ɚ", "er", "ir", "ur", "ɜr", "əɹ"}},
	{"th", []string{"θ", "ð", "th", "dh"}},
	{"sh", []string{"ʃ", "sh", "ʂ", "ɕ", "sch"}},
	{"zh", []string{"ʒ", "zh", "ʐ", "ʑ"}},
	{"ch", []string{"tʃ", "ch", "tɕ", "č", "tsch"}},
	{"j", []string{"dʒ", "j", "dʑ", "ǰ", "dg"}},
	{"r", []string{"r", "ɹ", "ɾ", "ʁ", "ʀ", "ɻ", "rr", "ɽ"}},
	{"l", []string{"l", "ɫ", "ll", "ɭ", "ʎ"}},
	{"ng", []string{"ŋ", "ng", "nk"}},
	{"n", []string{"n", "ɲ", "ñ", "ny", "ɳ", "nn", "gn"}},
	{"m", []string{"m", "mm", "ɱ"}},
	{"h", []string{"h", "x", "χ", "kh", "ħ", "ɦ"}},
	{"w", []string{"w", "ʍ", "wh", "ɥ"}},
	{"y", []string{"j", "y", "ʝ"}},
	{"k", []string{"k", "c", "q", "ck", "kʰ", "kk"}},
	{"g", []string{"g", "ɡ", "ɣ", "gg", "gh"}},
	{"t", []string{"t", "ʈ", "tʰ", "tt"}},
	{"d", []string{"d", "ɖ", "dd"}},
	{"p", []string{"p", "pʰ", "pp"}},
	{"b", []string{"b", "β", "bb"}},
	{"f", []string{"f", "ɸ", "ph", "ff"}},
	{"v", []string{"v", "ʋ"}},
	{"s", []string{"s", "ss", "ś"}},
	{"z", []string{"z", "zz"}},
	{"ts", []string{"ts", "ʦ", "tz"}},
}

// normClasses is classTable with every variant normalised.
var normClasses = func() []Class {
	out := make([]Class, len(classTable))
	for i, c := range classTable {
		vs := make([]string, 0, len(c.Variants)+1)
		vs = append(vs, Normalize(c.Key))
		for _, v := range c.Variants {
			if n := Normalize(v); n != "" {
				vs = append(vs, n)
			}
		}
		out[i] = Class{Key: c.Key, Variants: vs}
	}
	return out
}()

// Classes returns a copy of the similarity-class table.
func Classes() []Class {
	out := make([]Class, len(classTable))
	for i, c := range classTable {
		out[i] = Class{Key: c.Key, Variants: append([]string(nil), c.Variants...)}
	}
	return out
}

// AreSimilar reports whether a and b denote the same sound. See the package
// documentation for the tier order.
func AreSimilar(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)

	// 1. exact
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}

	// 2. containment
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	// 3. leading character
	if firstRune(na) == firstRune(nb) {
		return true
	}

	// 4. shared similarity class
	return shareClass(na, nb)
}

// ClassOf returns the keys of every class the symbol belongs to.
func ClassOf(symbol string) []string {
	n := Normalize(symbol)
	if n == "" {
		return nil
	}
	var keys []string
	for _, c := range normClasses {
		if inClass(n, c) {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

func shareClass(na, nb string) bool {
	for _, c := range normClasses {
		if inClass(na, c) && inClass(nb, c) {
			return true
		}
	}
	return false
}

// inClass matches a normalised symbol against a class by exact variant or by
// substring. Substring matches need at least two runes on the shorter side,
// otherwise every single letter would join every class spelling it.
func inClass(n string, c Class) bool {
	for _, v := range c.Variants {
		if n == v {
			return true
		}
		if utf8.RuneCountInString(n) < 2 || utf8.RuneCountInString(v) < 2 {
			continue
		}
		if strings.Contains(v, n) || strings.Contains(n, v) {
			return true
		}
	}
	return false
}

// Closeness returns the Jaro-Winkler similarity of the normalised symbols in
// [0, 1]. It is a display aid only; match decisions use [AreSimilar].
func Closeness(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return matchr.JaroWinkler(na, nb, false)
}
