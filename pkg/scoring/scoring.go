// Package scoring compares a detected phoneme sequence against a target
// sequence and produces a per-unit alignment, a score in [0, 1] and
// feedback text.
//
// Two policies are provided. [Greedy] serves word practice: every detected
// unit claims the first unmatched target unit it is similar to, without
// reordering. [StrictSingle] serves single-letter practice and additionally
// rejects an attempt whose correct primary sound is followed by an
// unexpected consonant.
//
// Alignment is positional and greedy rather than edit-distance based, so an
// inserted or dropped sound can shift later comparisons.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/phoneme/ipa"
)

// ErrUnknownPolicy is returned by [PolicyByName] for unregistered names.
var ErrUnknownPolicy = errors.New("scoring: unknown policy")

// Status classifies one alignment entry.
type Status int

const (
	Match     Status = iota // target sound was produced
	Different               // another sound was produced in its place
	Missed                  // nothing was produced at this position
	Extra                   // produced beyond the end of the target
)

var statusNames = [...]string{"match", "different", "missed", "extra"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("scoring: unknown status %q", b)
}

// Entry is one row of an alignment. Target is nil for [Extra] entries and
// Detected is nil for [Missed] entries.
type Entry struct {
	Index    int           `json:"index"`
	Target   *phoneme.Unit `json:"target,omitempty"`
	Detected *phoneme.Unit `json:"detected,omitempty"`
	Status   Status        `json:"status"`

	// Closeness is the string similarity of the two symbols, for display.
	Closeness float64 `json:"closeness"`
}

// Result is the outcome of scoring one attempt.
type Result struct {
	Score     float64  `json:"score"`
	Matched   int      `json:"matched"`
	Alignment []Entry  `json:"alignment"`
	Feedback  []string `json:"feedback"`
	Accepted  bool     `json:"accepted"`
	Policy    string   `json:"policy"`
}

// Policy scores a detected sequence against a target sequence. Policies are
// pure functions of their inputs.
type Policy interface {
	Name() string
	Score(target, detected phoneme.Sequence) Result
}

// Policy names accepted by [PolicyByName].
const (
	GreedyName       = "greedy"
	StrictSingleName = "strict-single"
)

// PolicyByName returns the policy registered under name. "word" and
// "letter" are accepted as aliases.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case GreedyName, "word", "":
		return Greedy{}, nil
	case StrictSingleName, "strict", "letter":
		return StrictSingle{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// PolicyNames lists the canonical policy names.
func PolicyNames() []string { return []string{GreedyName, StrictSingleName} }

var (
	_ Policy = Greedy{}
	_ Policy = StrictSingle{}
)

// align performs the greedy one-to-one matching shared by every policy.
func align(target, detected phoneme.Sequence) ([]Entry, int) {
	claimedBy := make([]int, len(target))
	for i := range claimedBy {
		claimedBy[i] = -1
	}
	claimed := make([]bool, len(detected))

	var matched int
	for di, d := range detected {
		for ti, tu := range target {
			if claimedBy[ti] >= 0 || !ipa.AreSimilar(tu.Symbol, d.Symbol) {
				continue
			}
			claimedBy[ti] = di
			claimed[di] = true
			matched++
			break
		}
	}

	entries := make([]Entry, 0, max(len(target), len(detected)))
	for ti := range target {
		e := Entry{Index: ti, Target: &target[ti]}
		switch {
		case claimedBy[ti] >= 0:
			e.Detected = &detected[claimedBy[ti]]
			e.Status = Match
		case ti < len(detected):
			e.Detected = &detected[ti]
			e.Status = Different
		default:
			e.Status = Missed
		}
		if e.Detected != nil {
			e.Closeness = ipa.Closeness(e.Target.Symbol, e.Detected.Symbol)
		}
		entries = append(entries, e)
	}
	for di := len(target); di < len(detected); di++ {
		if claimed[di] {
			continue
		}
		entries = append(entries, Entry{Index: di, Detected: &detected[di], Status: Extra})
	}
	return entries, matched
}

func ratio(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(max(1, total))
}
