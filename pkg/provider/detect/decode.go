package detect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// wireResult covers every response shape known detection backends produce.
type wireResult struct {
	Raw         string          `json:"raw"`
	IPAUnits    json.RawMessage `json:"ipa_units"`
	PhonemeList json.RawMessage `json:"phoneme_list"`
	Phonemes    json.RawMessage `json:"phonemes"`
	Transcript  string          `json:"transcript"`
	Text        string          `json:"text"`
}

// wireUnit is an object-shaped list element.
type wireUnit struct {
	Symbol  string `json:"symbol"`
	IPA     string `json:"ipa"`
	Phoneme string `json:"phoneme"`
}

func (u wireUnit) symbol() string {
	for _, s := range []string{u.Symbol, u.IPA, u.Phoneme} {
		if s != "" {
			return s
		}
	}
	return ""
}

// DecodeResult normalises a backend JSON response into a [Result]. The first
// non-empty source wins, in this order: "ipa_units", "phoneme_list",
// "phonemes" (either a list or a whitespace-separated string), then the
// whitespace-split "raw" string. List elements may be strings or objects
// carrying a "symbol", "ipa" or "phoneme" field. Pause markers are dropped.
//
// Undecodable JSON and responses without any phonemes return an error
// wrapping [ErrAnalysisFailed].
func DecodeResult(data []byte) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrAnalysisFailed, err)
	}

	var seq phoneme.Sequence
	for _, field := range []json.RawMessage{w.IPAUnits, w.PhonemeList, w.Phonemes} {
		s, err := decodeList(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}
		if len(s) > 0 {
			seq = s
			break
		}
	}
	if len(seq) == 0 {
		seq = SplitRaw(w.Raw)
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("%w: response contains no phonemes", ErrAnalysisFailed)
	}

	transcript := w.Transcript
	if transcript == "" {
		transcript = w.Text
	}
	raw := w.Raw
	if raw == "" {
		raw = seq.String()
	}
	return &Result{Raw: raw, Phonemes: seq, Transcript: transcript}, nil
}

// SplitRaw splits a whitespace-separated phoneme string, dropping pause
// markers.
func SplitRaw(raw string) phoneme.Sequence {
	return WithoutPauses(phoneme.NewSequence(strings.Fields(raw)...))
}

func decodeList(field json.RawMessage) (phoneme.Sequence, error) {
	field = json.RawMessage(strings.TrimSpace(string(field)))
	if len(field) == 0 || string(field) == "null" {
		return nil, nil
	}

	switch field[0] {
	case '"':
		var s string
		if err := json.Unmarshal(field, &s); err != nil {
			return nil, fmt.Errorf("decode phoneme string: %w", err)
		}
		return SplitRaw(s), nil
	case '[':
	default:
		return nil, fmt.Errorf("unexpected phoneme field %.20s", field)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil {
		return nil, fmt.Errorf("decode phoneme list: %w", err)
	}
	symbols := make([]string, 0, len(elems))
	for i, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			symbols = append(symbols, s)
			continue
		}
		var u wireUnit
		if err := json.Unmarshal(e, &u); err != nil {
			return nil, fmt.Errorf("decode phoneme list element %d: %w", i, err)
		}
		symbols = append(symbols, u.symbol())
	}
	return WithoutPauses(phoneme.NewSequence(symbols...)), nil
}

// WithoutPauses returns seq with every pause unit removed.
func WithoutPauses(seq phoneme.Sequence) phoneme.Sequence {
	out := make(phoneme.Sequence, 0, len(seq))
	for _, u := range seq {
		if phoneme.IsPause(u.Symbol) {
			continue
		}
		out = append(out, u)
	}
	return out
}
