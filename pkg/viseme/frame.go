// Package viseme maps phoneme and grapheme tokens onto a closed set of
// mouth-shape frames.
//
// A [Resolver] consults a primary token→frame table, then a fallback table
// that rewrites uncommon or multilingual tokens (aspirated stops, retroflexes,
// doubled letters, diphthongs, accented vowels) into common ones and resolves
// the substitute recursively. Resolution is total: every string yields a
// [Frame], with [Neutral] as the last resort.
package viseme

import "fmt"

// Frame identifies one static mouth-shape image. The zero value is [Neutral].
type Frame int

const (
	Neutral Frame = iota // rest / closed mouth
	Ah                   // open, central: a æ ʌ ə
	Aa                   // open, back: ɑ
	Oh                   // rounded mid: o ɔ
	Eh                   // spread mid: e ɛ
	Er                   // r-coloured vowel
	Ee                   // spread close: i ɪ
	Oo                   // rounded close: u ʊ
	BMP                  // lips closed
	FV                   // lower lip to teeth
	Th                   // tongue between teeth
	TDN                  // tongue tip to ridge
	KG                   // back of tongue raised
	SZ                   // teeth close, spread
	ShCh                 // lips forward, teeth close
	L                    // tongue tip raised, open
	R                    // lips slightly rounded
	W                    // lips tightly rounded
	H                    // open, relaxed
	Y                    // spread, tongue high
)

// NumFrames is the size of the closed frame set.
const NumFrames = 20

var frameNames = [NumFrames]string{
	"neutral", "ah", "aa", "oh", "eh", "er", "ee", "oo", "bmp", "fv",
	"th", "tdn", "kg", "sz", "shch", "l", "r", "w", "h", "y",
}

// Valid reports whether f is one of the defined frames.
func (f Frame) Valid() bool { return f >= 0 && f < NumFrames }

func (f Frame) String() string {
	if !f.Valid() {
		return fmt.Sprintf("frame(%d)", int(f))
	}
	return frameNames[f]
}

// Frames returns every defined frame in id order.
func Frames() []Frame {
	out := make([]Frame, NumFrames)
	for i := range out {
		out[i] = Frame(i)
	}
	return out
}

// ParseFrame returns the frame with the given name.
func ParseFrame(name string) (Frame, bool) {
	for i, n := range frameNames {
		if n == name {
			return Frame(i), true
		}
	}
	return Neutral, false
}
