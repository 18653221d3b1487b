// Package phonetic decides whether a recognised transcript contains the word
// the user was asked to say.
//
// Detection backends that also transcribe report what they heard as text.
// Spelling in that text is unreliable ("helo", "hallo"), so the comparison is
// phonetic:
//
//  1. Candidate filtering: Double Metaphone codes are computed for every
//     token of the spoken phrase and the target. Shared codes make the target
//     a phonetic candidate.
//
//  2. Jaro-Winkler ranking: a phonetic candidate is accepted when its best
//     Jaro-Winkler similarity reaches the phonetic threshold. Without shared
//     codes, a stricter fuzzy threshold applies instead.
package phonetic

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically matched target. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when the
// phrase and target share no phonetic code. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher compares spoken phrases with practice targets. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Hit is the outcome of [Matcher.Heard].
type Hit struct {
	// Heard is true when the transcript contains the target.
	Heard bool `json:"heard"`

	// Phrase is the part of the transcript closest to the target. Empty when
	// the transcript is empty.
	Phrase string `json:"phrase,omitempty"`

	// Confidence is the Jaro-Winkler similarity of Phrase and the target.
	Confidence float64 `json:"confidence"`
}

// Heard reports whether transcript contains target. Every run of consecutive
// transcript tokens as long as target is compared; the closest one is
// reported.
func (m *Matcher) Heard(transcript, target string) Hit {
	spoken := tokens(transcript)
	want := tokens(target)
	if len(spoken) == 0 || len(want) == 0 {
		return Hit{}
	}

	n := min(len(want), len(spoken))
	var best Hit
	for i := 0; i+n <= len(spoken); i++ {
		score, ok := m.score(spoken[i:i+n], want)
		hit := Hit{Heard: ok, Phrase: strings.Join(spoken[i:i+n], " "), Confidence: score}
		if best.Phrase == "" || hit.better(best) {
			best = hit
		}
	}
	return best
}

func (h Hit) better(other Hit) bool {
	if h.Heard != other.Heard {
		return h.Heard
	}
	return h.Confidence > other.Confidence
}

// Match returns the candidate closest to phrase. When matched is false,
// best is empty and confidence is 0.
func (m *Matcher) Match(phrase string, candidates []string) (best string, confidence float64, matched bool) {
	spoken := tokens(phrase)
	if len(spoken) == 0 {
		return "", 0, false
	}
	bestPhonetic := false
	for _, c := range candidates {
		want := tokens(c)
		if len(want) == 0 {
			continue
		}
		score, ok := m.score(spoken, want)
		if !ok {
			continue
		}
		phonetic := codesOverlap(codesFor(spoken), codesFor(want))
		if (phonetic && !bestPhonetic) || (phonetic == bestPhonetic && score > confidence) {
			best, confidence, matched, bestPhonetic = c, score, true, phonetic
		}
	}
	return best, confidence, matched
}

// score returns the best Jaro-Winkler similarity of spoken and want, and
// whether it clears the applicable threshold.
func (m *Matcher) score(spoken, want []string) (float64, bool) {
	s := bestJWScore(spoken, want)
	if codesOverlap(codesFor(spoken), codesFor(want)) {
		return s, s >= m.phoneticThreshold
	}
	return s, s >= m.fuzzyThreshold
}

// tokens lowercases s and splits it into words, dropping punctuation.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// codesFor returns the union of all Double Metaphone codes for tokens. Empty
// codes are excluded.
func codesFor(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the Jaro-Winkler similarity of the joined phrases, or of
// the phrases with spaces removed when that is higher.
func bestJWScore(spoken, want []string) float64 {
	score := matchr.JaroWinkler(strings.Join(spoken, " "), strings.Join(want, " "), false)
	if len(spoken) > 1 || len(want) > 1 {
		if s := matchr.JaroWinkler(strings.Join(spoken, ""), strings.Join(want, ""), false); s > score {
			score = s
		}
	}
	return score
}
