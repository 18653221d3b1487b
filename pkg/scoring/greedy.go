package scoring

import "github.com/MrWong99/mouthpiece/pkg/phoneme"

// Greedy is the word-practice policy. An attempt is accepted when every
// target unit is matched; extra trailing sounds do not count against it.
type Greedy struct{}

// Name implements [Policy].
func (Greedy) Name() string { return GreedyName }

// Score implements [Policy]. Score is matched / len(target), and 0 for an
// empty target.
func (Greedy) Score(target, detected phoneme.Sequence) Result {
	target, detected = target.Clone(), detected.Clone()
	entries, matched := align(target, detected)
	res := Result{
		Score:     ratio(matched, len(target)),
		Matched:   matched,
		Alignment: entries,
		Accepted:  len(target) > 0 && matched == len(target),
		Policy:    GreedyName,
	}
	res.Feedback = feedback(target, entries)
	return res
}
