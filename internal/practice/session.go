package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/internal/transcript/phonetic"
	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/audio/wav"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

// Target is what the learner is asked to say.
type Target struct {
	Mode     store.Mode       `json:"mode"`
	Text     string           `json:"text"`
	Language phoneme.Language `json:"language"`

	// Phonemes is the expected sequence. Word targets with several words
	// contain pause units.
	Phonemes phoneme.Sequence `json:"phonemes"`

	// Letter is set for letter targets.
	Letter *g2p.LetterTarget `json:"letter,omitempty"`

	Timeline animation.Timeline `json:"timeline"`
	Policy   string             `json:"policy"`

	policy scoring.Policy
}

// Outcome is the result of one scored submission.
type Outcome struct {
	AttemptID string           `json:"attempt_id,omitempty"`
	Target    string           `json:"target"`
	Detected  phoneme.Sequence `json:"detected"`
	Raw       string           `json:"raw,omitempty"`
	Result    scoring.Result   `json:"result"`

	// Heard is set when the backend returned a transcript for a word target.
	Heard *phonetic.Hit `json:"heard,omitempty"`
}

// Session is one client's practice state. All methods are safe for
// concurrent use; at most one detection runs at a time.
type Session struct {
	svc      *Service
	clientID string
	cache    *viseme.Cache

	mu       sync.Mutex
	target   *Target
	last     *Outcome
	gen      uint64
	inFlight context.CancelFunc
}

func newSession(svc *Service, clientID string) *Session {
	return &Session{
		svc:      svc,
		clientID: clientID,
		cache:    viseme.NewCache(svc.resolver),
	}
}

// ClientID returns the client the session belongs to.
func (s *Session) ClientID() string { return s.clientID }

// SetWord makes text the target. Any in-flight detection is superseded.
func (s *Session) SetWord(text string, lang phoneme.Language) (*Target, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("practice: set word: %w", store.ErrInvalidInput)
	}
	lang = s.svc.language(lang)
	policy, err := s.svc.policyFor(store.ModeWord, nil)
	if err != nil {
		return nil, fmt.Errorf("practice: set word: %w", err)
	}
	units := s.svc.Phonemes(text, lang)
	t := &Target{
		Mode:     store.ModeWord,
		Text:     text,
		Language: lang,
		Phonemes: units,
		Timeline: s.svc.Timeline(s.cache, units),
		Policy:   policy.Name(),
		policy:   policy,
	}
	s.setTarget(t)
	return t.clone(), nil
}

// SetLetter makes the practice sound of letter the target. Any in-flight
// detection is superseded.
func (s *Session) SetLetter(letter string, lang phoneme.Language) (*Target, error) {
	lang = s.svc.language(lang)
	lt, err := s.svc.Letter(letter, lang)
	if err != nil {
		return nil, err
	}
	policy, err := s.svc.policyFor(store.ModeLetter, lt.Variants)
	if err != nil {
		return nil, fmt.Errorf("practice: set letter: %w", err)
	}
	t := &Target{
		Mode:     store.ModeLetter,
		Text:     lt.Letter,
		Language: lang,
		Phonemes: phoneme.NewSequence(lt.Primary),
		Letter:   &lt,
		Timeline: s.svc.LetterTimeline(s.cache, lt.Primary),
		Policy:   policy.Name(),
		policy:   policy,
	}
	s.setTarget(t)
	return t.clone(), nil
}

func (s *Session) setTarget(t *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.target = t
	s.last = nil
	s.svc.logger.Debug("practice target set",
		"client_id", s.clientID, "mode", t.Mode, "target", t.Text, "language", t.Language)
}

// Target returns the current target, or nil.
func (s *Session) Target() *Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	return s.target.clone()
}

// Timeline returns the animation timeline of the current target, or nil.
func (s *Session) Timeline() animation.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	return append(animation.Timeline(nil), s.target.Timeline...)
}

// Last returns the most recent outcome for the current target, or nil.
func (s *Session) Last() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// CacheStats reports hits and misses of the session's viseme cache.
func (s *Session) CacheStats() (hits, misses int) { return s.cache.Stats() }

// Submit sends a WAV recording to the detection backend and scores it
// against the current target.
//
// A Submit cancels any detection still running for the session; the
// cancelled call returns [ErrSuperseded]. Backend failures return
// [ErrBackendUnavailable] or [ErrAnalysisFailed] and leave the target and the
// last outcome untouched.
func (s *Session) Submit(ctx context.Context, audio []byte) (*Outcome, error) {
	ctx = observe.WithClientID(ctx, s.clientID)
	if _, err := wav.Validate(audio); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}

	s.mu.Lock()
	if s.target == nil {
		s.mu.Unlock()
		return nil, ErrNoTarget
	}
	s.cancelLocked()
	gen := s.gen
	target := s.target
	detectCtx, cancel := context.WithCancel(ctx)
	s.inFlight = cancel
	s.mu.Unlock()
	defer cancel()

	res, err := s.detect(detectCtx, target, audio)

	s.mu.Lock()
	superseded := s.gen != gen
	if !superseded {
		s.inFlight = nil
	}
	s.mu.Unlock()

	if superseded {
		s.svc.metrics.RecordAbandoned(ctx, "superseded")
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	out := s.score(target, res)
	s.svc.metrics.RecordAttempt(ctx, string(target.Mode), out.Result.Policy, out.Result.Accepted, out.Result.Score)
	s.record(ctx, target, out, res)

	s.mu.Lock()
	if s.target == target {
		s.last = out
	}
	s.mu.Unlock()
	return out, nil
}

func (s *Session) detect(ctx context.Context, target *Target, audio []byte) (*detect.Result, error) {
	ctx, span := observe.StartSpan(ctx, "practice.detect")
	start := time.Now()
	res, err := s.svc.detector.Detect(ctx, detect.Request{
		Audio:    audio,
		Text:     target.Text,
		Language: target.Language,
	})
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty result", detect.ErrAnalysisFailed)
	}
	status, backend := "ok", s.svc.detectorName
	if err != nil {
		status = "error"
	} else if res.Backend != "" {
		backend = res.Backend
	}
	s.svc.metrics.RecordDetection(ctx, backend, status, time.Since(start).Seconds())
	observe.EndSpan(span, err)
	return res, err
}

// classify maps a detection error onto the session's error classes.
func (s *Session) classify(ctx context.Context, err error) error {
	log := observe.Logger(ctx)
	switch {
	case ctx.Err() != nil:
		s.svc.metrics.RecordAbandoned(ctx, "cancelled")
		return ctx.Err()
	case errors.Is(err, detect.ErrAnalysisFailed):
		log.Warn("attempt analysis failed", "err", err)
		s.svc.metrics.RecordProviderError(ctx, s.svc.detectorName, "analysis_failed")
		s.svc.metrics.RecordAbandoned(ctx, "analysis_failed")
		return fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	default:
		log.Warn("detection backend unavailable", "err", err)
		s.svc.metrics.RecordProviderError(ctx, s.svc.detectorName, "unavailable")
		s.svc.metrics.RecordAbandoned(ctx, "unavailable")
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
}

func (s *Session) score(target *Target, res *detect.Result) *Outcome {
	detected := detect.WithoutPauses(res.Phonemes)
	result := target.policy.Score(detect.WithoutPauses(target.Phonemes), detected)
	out := &Outcome{
		Target:   target.Text,
		Detected: detected,
		Raw:      res.Raw,
		Result:   result,
	}
	if target.Mode == store.ModeWord && strings.TrimSpace(res.Transcript) != "" {
		hit := s.svc.matcher.Heard(res.Transcript, target.Text)
		out.Heard = &hit
		if !hit.Heard && !result.Accepted && hit.Phrase != "" {
			out.Result.Feedback = append(out.Result.Feedback,
				fmt.Sprintf("It sounded like %q. Try saying %q.", hit.Phrase, target.Text))
		}
	}
	return out
}

// record stores a copy of the attempt. Failures are logged and do not fail
// the submission.
func (s *Session) record(ctx context.Context, target *Target, out *Outcome, res *detect.Result) {
	a := &store.Attempt{
		ClientID:   s.clientID,
		Mode:       target.Mode,
		Target:     target.Text,
		Language:   target.Language,
		Policy:     out.Result.Policy,
		Expected:   detect.WithoutPauses(target.Phonemes).Symbols(),
		Detected:   out.Detected.Symbols(),
		Score:      out.Result.Score,
		Accepted:   out.Result.Accepted,
		Feedback:   out.Result.Feedback,
		Transcript: res.Transcript,
		Backend:    res.Backend,
	}
	if a.Backend == "" {
		a.Backend = s.svc.detectorName
	}
	if err := s.svc.store.SaveAttempt(context.WithoutCancel(ctx), a); err != nil {
		observe.Logger(ctx).Warn("failed to record attempt", "err", err)
		return
	}
	out.AttemptID = a.ID
}

func (s *Session) cancelInFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// cancelLocked supersedes the in-flight detection, if any.
func (s *Session) cancelLocked() {
	if s.inFlight != nil {
		s.inFlight()
		s.inFlight = nil
	}
	s.gen++
}

func (t *Target) clone() *Target {
	c := *t
	c.Phonemes = t.Phonemes.Clone()
	c.Timeline = append(animation.Timeline(nil), t.Timeline...)
	if t.Letter != nil {
		lt := *t.Letter
		c.Letter = &lt
	}
	return &c
}
