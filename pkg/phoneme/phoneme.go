// Package phoneme defines the shared data model for pronunciation practice:
// phoneme units, ordered phoneme sequences, articulatory features, and
// language codes.
//
// A [Sequence] is either a target (the expected pronunciation) or a detected
// sequence (what the detection backend heard). Sequences are value types and
// are never edited in place: when the input changes, a new sequence is
// produced. Every constructor in this package guarantees that a Sequence
// never carries a unit with an empty symbol.
package phoneme

import "strings"

// Type distinguishes vowels from consonants.
type Type string

const (
	TypeVowel     Type = "vowel"
	TypeConsonant Type = "consonant"
)

// Features describes the articulation of a single phoneme. Consonant fields
// (Place, Manner, Voiced) and vowel fields (Height, Backness, Rounded) are
// mutually exclusive in practice; unused fields are left at their zero value.
type Features struct {
	Type Type `json:"type"`

	// Place of articulation, e.g. "bilabial", "alveolar", "velar".
	Place string `json:"place,omitempty"`

	// Manner of articulation, e.g. "plosive", "fricative", "nasal".
	Manner string `json:"manner,omitempty"`

	// Voiced is nil when voicing is not applicable or unknown.
	Voiced *bool `json:"voiced,omitempty"`

	// Height is the vowel height, e.g. "close", "open-mid".
	Height string `json:"height,omitempty"`

	// Backness is the vowel backness, e.g. "front", "central", "back".
	Backness string `json:"backness,omitempty"`

	// Rounded is nil when rounding is not applicable or unknown.
	Rounded *bool `json:"rounded,omitempty"`
}

// Unit is a single phoneme: an IPA symbol or a romanised token such as "sh".
type Unit struct {
	// Symbol is the phoneme symbol. Never empty inside a [Sequence].
	Symbol string `json:"symbol"`

	// Grapheme holds the letters that produced this unit, when known.
	Grapheme string `json:"grapheme,omitempty"`

	// Features is nil when the symbol has no known articulatory description.
	Features *Features `json:"features,omitempty"`
}

// Sequence is an ordered list of phoneme units in articulation order.
type Sequence []Unit

// NewSequence builds a Sequence from raw symbols. Symbols are trimmed and
// empty symbols are dropped.
func NewSequence(symbols ...string) Sequence {
	seq := make(Sequence, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seq = append(seq, Unit{Symbol: s})
	}
	return seq
}

// FromUnits returns a copy of units with every empty-symbol unit removed.
func FromUnits(units []Unit) Sequence {
	seq := make(Sequence, 0, len(units))
	for _, u := range units {
		u.Symbol = strings.TrimSpace(u.Symbol)
		if u.Symbol == "" {
			continue
		}
		seq = append(seq, u)
	}
	return seq
}

// Symbols returns the symbol of every unit in order.
func (s Sequence) Symbols() []string {
	out := make([]string, len(s))
	for i, u := range s {
		out[i] = u.Symbol
	}
	return out
}

// String joins the symbols with single spaces.
func (s Sequence) String() string {
	return strings.Join(s.Symbols(), " ")
}

// Clone returns an independent copy of s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Pause is the token inserted between words. It always maps to the neutral
// mouth shape.
const Pause = "sp"

// IsPause reports whether symbol denotes silence or a word/punctuation break
// rather than an articulated sound.
func IsPause(symbol string) bool {
	switch strings.TrimSpace(symbol) {
	case "", Pause, "sil", "|", "||", ",", ".", ";", ":", "!", "?", "-", "…":
		return true
	}
	return false
}
