// Package detect defines the Provider interface for phoneme-detection
// backends.
//
// A detection provider receives one recorded attempt (a WAV upload together
// with the target text and language) and reports what it heard as a
// [phoneme.Sequence]. Backends differ widely in what they return: some emit
// phonemes directly, others only a transcript that must be converted with a
// grapheme-to-phoneme engine. Every implementation normalises its response at
// this boundary so callers never branch on backend shape.
//
// Failures are split into two classes that callers surface differently:
// [ErrUnavailable] for transport problems the user can retry and
// [ErrAnalysisFailed] for audio the backend could not make sense of.
//
// Implementations must be safe for concurrent use.
package detect

import (
	"context"
	"errors"
	"strings"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

var (
	// ErrUnavailable reports that the backend could not be reached: network
	// errors, timeouts, 5xx responses and open circuit breakers.
	ErrUnavailable = errors.New("detect: backend unavailable")

	// ErrAnalysisFailed reports that the backend answered but produced no
	// usable result: 4xx responses, undecodable bodies and empty detections.
	ErrAnalysisFailed = errors.New("detect: analysis failed")
)

// Request is one recorded attempt submitted for detection.
type Request struct {
	// Audio is a complete WAV file.
	Audio []byte

	// Filename is forwarded to backends that require one. Defaults to
	// "attempt.wav" when empty.
	Filename string

	// Text is the target word or letter the user tried to say. Backends may
	// use it as a recognition hint.
	Text string

	// Language is the target language.
	Language phoneme.Language
}

// FilenameOrDefault returns Filename or "attempt.wav" when it is empty.
func (r Request) FilenameOrDefault() string {
	if strings.TrimSpace(r.Filename) == "" {
		return "attempt.wav"
	}
	return r.Filename
}

// Result is what a backend heard.
type Result struct {
	// Raw is the backend's unprocessed phoneme string or transcript.
	Raw string `json:"raw"`

	// Phonemes is the detected sequence. Never empty in a successful result.
	Phonemes phoneme.Sequence `json:"phonemes"`

	// Transcript is the recognised text, when the backend provides one.
	Transcript string `json:"transcript,omitempty"`

	// Backend names the backend that produced the result. Failover wrappers
	// fill it in; single backends may leave it empty.
	Backend string `json:"backend,omitempty"`
}

// Provider is the abstraction over any phoneme-detection backend.
type Provider interface {
	// Detect analyses req and returns the detected phoneme sequence. Errors
	// wrap [ErrUnavailable] or [ErrAnalysisFailed]; callers classify them with
	// errors.Is.
	Detect(ctx context.Context, req Request) (*Result, error)
}

// Classify maps a transport-level outcome onto the two error classes. A nil
// err with a status code >= 500 or a non-nil err yields [ErrUnavailable];
// 4xx codes yield [ErrAnalysisFailed]; anything else returns nil.
func Classify(status int, err error) error {
	switch {
	case err != nil:
		if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrAnalysisFailed) {
			return err
		}
		return errors.Join(ErrUnavailable, err)
	case status >= 500:
		return ErrUnavailable
	case status >= 400:
		return ErrAnalysisFailed
	}
	return nil
}
