package scoring

import (
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/phoneme/ipa"
)

// StrictSingle is the letter-practice policy. The first target unit is the
// primary sound; Variants lists further accepted spellings of it.
//
// An attempt is accepted when the first detected unit matches the primary
// and no later detected unit is a consonant unlike every expected symbol.
// Such a trailing consonant rejects the attempt outright. If the first
// detected unit does not match, the policy falls back to accepting the
// primary anywhere in the detected sequence.
type StrictSingle struct {
	Variants []string
}

// Name implements [Policy].
func (StrictSingle) Name() string { return StrictSingleName }

// Score implements [Policy]. A rejected attempt scores 0 even when the
// primary sound was matched.
func (s StrictSingle) Score(target, detected phoneme.Sequence) Result {
	target, detected = target.Clone(), detected.Clone()
	entries, matched := align(target, detected)
	res := Result{
		Score:     ratio(matched, len(target)),
		Matched:   matched,
		Alignment: entries,
		Policy:    StrictSingleName,
	}
	if len(target) == 0 {
		res.Feedback = feedback(target, entries)
		return res
	}

	primary := append([]string{target[0].Symbol}, s.Variants...)
	expected := append(target.Symbols(), s.Variants...)

	if len(detected) > 0 && similarToAny(detected[0].Symbol, primary) {
		if extra, ok := trailingConsonant(detected[1:], expected); ok {
			res.Score = 0
			res.Feedback = trailingFeedback(target[0].Symbol, extra)
			return res
		}
		res.Accepted = true
		res.Feedback = []string{msgSuccess}
		return res
	}

	for _, d := range detected {
		if similarToAny(d.Symbol, primary) {
			res.Accepted = true
			res.Feedback = []string{msgSuccess}
			return res
		}
	}
	res.Feedback = feedback(target, entries)
	return res
}

func similarToAny(sym string, candidates []string) bool {
	for _, c := range candidates {
		if ipa.AreSimilar(sym, c) {
			return true
		}
	}
	return false
}

func trailingConsonant(rest phoneme.Sequence, expected []string) (string, bool) {
	for _, u := range rest {
		if ipa.IsConsonant(u.Symbol) && !similarToAny(u.Symbol, expected) {
			return u.Symbol, true
		}
	}
	return "", false
}
