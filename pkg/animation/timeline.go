// Package animation turns phoneme sequences into viseme timelines and plays
// them back against wall-clock time.
//
// A [Timeline] is an ordered list of contiguous entries: entry i ends exactly
// where entry i+1 starts. Timelines always begin and end on the neutral frame.
package animation

import (
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

// Default timings in milliseconds.
const (
	DefaultMsPerUnit     = 150
	DefaultEdgePaddingMs = 100
	DefaultPauseMs       = 300
)

// Default timings for the single-letter timeline.
const (
	LetterLeadMs      = 200
	LetterConsonantMs = 250
	LetterVowelMs     = 300
	LetterTailMs      = 200
)

// LetterVowel is the canonical vowel paired with a practised consonant.
const LetterVowel = "ah"

// Entry shows one frame over the half-open interval [StartMs, EndMs).
type Entry struct {
	Frame   viseme.Frame `json:"frame"`
	StartMs int          `json:"start_ms"`
	EndMs   int          `json:"end_ms"`

	// Symbol is the phoneme the entry was built from; empty for padding.
	Symbol string `json:"symbol,omitempty"`
}

// DurationMs returns EndMs - StartMs.
func (e Entry) DurationMs() int { return e.EndMs - e.StartMs }

// Timeline is an ordered, contiguous list of entries.
type Timeline []Entry

// Duration returns the end time of the last entry, or 0 for an empty
// timeline.
func (t Timeline) Duration() int {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].EndMs
}

// FrameAt returns the frame shown at elapsed milliseconds and the index of
// its entry. Outside the timeline it returns [viseme.Neutral] and -1.
func (t Timeline) FrameAt(ms int) (viseme.Frame, int) {
	if ms < 0 {
		return viseme.Neutral, -1
	}
	for i, e := range t {
		if ms >= e.StartMs && ms < e.EndMs {
			return e.Frame, i
		}
	}
	return viseme.Neutral, -1
}

// Contiguous reports whether every entry ends where the next one starts and
// no entry has negative duration.
func (t Timeline) Contiguous() bool {
	for i, e := range t {
		if e.EndMs < e.StartMs {
			return false
		}
		if i > 0 && t[i-1].EndMs != e.StartMs {
			return false
		}
	}
	return true
}

// FrameResolver resolves a phoneme token to a viseme frame. Both
// *viseme.Resolver and *viseme.Cache satisfy it.
type FrameResolver interface {
	Resolve(token string) viseme.Frame
}

var (
	_ FrameResolver = (*viseme.Resolver)(nil)
	_ FrameResolver = (*viseme.Cache)(nil)
)

// Builder builds timelines.
type Builder struct {
	pauseMs int
}

// BuilderOption is a functional option for [NewBuilder].
type BuilderOption func(*Builder)

// WithPauseMs sets the duration of pause units. Values below 0 are ignored.
func WithPauseMs(ms int) BuilderOption {
	return func(b *Builder) {
		if ms >= 0 {
			b.pauseMs = ms
		}
	}
}

// NewBuilder returns a Builder with default timings.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{pauseMs: DefaultPauseMs}
	for _, o := range opts {
		o(b)
	}
	return b
}

// PauseMs returns the configured pause duration.
func (b *Builder) PauseMs() int { return b.pauseMs }

// Build returns a timeline with a leading neutral entry of edgePaddingMs, one
// entry of msPerUnit per unit and a trailing neutral entry of edgePaddingMs.
// Pause units map to the neutral frame with the pause duration. Negative
// durations are treated as zero.
func (b *Builder) Build(res FrameResolver, units phoneme.Sequence, msPerUnit, edgePaddingMs int) Timeline {
	msPerUnit = max(msPerUnit, 0)
	edgePaddingMs = max(edgePaddingMs, 0)

	tl := make(Timeline, 0, len(units)+2)
	cursor := 0
	add := func(f viseme.Frame, d int, sym string) {
		tl = append(tl, Entry{Frame: f, StartMs: cursor, EndMs: cursor + d, Symbol: sym})
		cursor += d
	}

	add(viseme.Neutral, edgePaddingMs, "")
	for _, u := range units {
		if phoneme.IsPause(u.Symbol) {
			add(viseme.Neutral, b.pauseMs, u.Symbol)
			continue
		}
		add(res.Resolve(u.Symbol), msPerUnit, u.Symbol)
	}
	add(viseme.Neutral, edgePaddingMs, "")
	return tl
}

// BuildLetter returns the fixed four-step letter timeline: neutral, the
// consonant frame, the canonical vowel frame and neutral again.
func (b *Builder) BuildLetter(res FrameResolver, consonant string) Timeline {
	steps := []struct {
		frame viseme.Frame
		ms    int
		sym   string
	}{
		{viseme.Neutral, LetterLeadMs, ""},
		{res.Resolve(consonant), LetterConsonantMs, consonant},
		{res.Resolve(LetterVowel), LetterVowelMs, LetterVowel},
		{viseme.Neutral, LetterTailMs, ""},
	}
	tl := make(Timeline, 0, len(steps))
	cursor := 0
	for _, s := range steps {
		tl = append(tl, Entry{Frame: s.frame, StartMs: cursor, EndMs: cursor + s.ms, Symbol: s.sym})
		cursor += s.ms
	}
	return tl
}
