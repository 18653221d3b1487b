package practice

import "errors"

var (
	// ErrNoTarget is returned by Submit before a target was set.
	ErrNoTarget = errors.New("practice: no target set")

	// ErrUnknownLetter is returned when a letter has no practice sound in
	// the requested language.
	ErrUnknownLetter = errors.New("practice: unknown letter")

	// ErrInvalidAudio is returned for uploads that are not 16-bit PCM WAV.
	ErrInvalidAudio = errors.New("practice: invalid audio")

	// ErrSuperseded is returned by a Submit whose detection was cancelled
	// because a newer submission or target change started.
	ErrSuperseded = errors.New("practice: attempt superseded")

	// ErrBackendUnavailable is returned when no detection backend could be
	// reached. The user may retry the same recording.
	ErrBackendUnavailable = errors.New("practice: detection backend unavailable")

	// ErrAnalysisFailed is returned when the backend answered but the
	// recording could not be analysed. The user should record again.
	ErrAnalysisFailed = errors.New("practice: analysis failed")
)
