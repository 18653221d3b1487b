// Package practice runs pronunciation practice sessions.
//
// A [Service] holds the stateless engines (grapheme-to-phoneme conversion,
// viseme resolution, timeline building and scoring) together with the
// detection backend and the attempt store. Each client gets one [Session]
// that owns its target, its viseme cache and at most one in-flight
// detection.
package practice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/internal/transcript/phonetic"
	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
	"github.com/MrWong99/mouthpiece/pkg/viseme"
)

// Settings are the reloadable timing and policy knobs.
type Settings struct {
	MsPerUnit     int
	EdgePaddingMs int
	PauseMs       int

	// WordPolicy and LetterPolicy name the [scoring.Policy] used per mode.
	WordPolicy   string
	LetterPolicy string

	// DefaultLanguage applies when a target names no language.
	DefaultLanguage phoneme.Language
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		MsPerUnit:       animation.DefaultMsPerUnit,
		EdgePaddingMs:   animation.DefaultEdgePaddingMs,
		PauseMs:         animation.DefaultPauseMs,
		WordPolicy:      scoring.GreedyName,
		LetterPolicy:    scoring.StrictSingleName,
		DefaultLanguage: phoneme.English,
	}
}

// Validate checks that both policy names resolve.
func (s Settings) Validate() error {
	if _, err := scoring.PolicyByName(s.WordPolicy); err != nil {
		return fmt.Errorf("practice: word policy: %w", err)
	}
	if _, err := scoring.PolicyByName(s.LetterPolicy); err != nil {
		return fmt.Errorf("practice: letter policy: %w", err)
	}
	return nil
}

// Config holds the dependencies of a [Service]. Detector is required; the
// other fields have defaults.
type Config struct {
	Detector detect.Provider

	// DetectorName labels metrics and stored attempts.
	DetectorName string

	G2P      *g2p.Engine
	Resolver *viseme.Resolver
	Matcher  *phonetic.Matcher
	Store    store.Store
	Metrics  *observe.Metrics
	Logger   *slog.Logger
	Settings Settings
}

// Service creates sessions and exposes the stateless engines. All methods are
// safe for concurrent use.
type Service struct {
	detector     detect.Provider
	detectorName string
	g2p          *g2p.Engine
	resolver     *viseme.Resolver
	matcher      *phonetic.Matcher
	store        store.Store
	metrics      *observe.Metrics
	logger       *slog.Logger

	mu       sync.RWMutex
	settings Settings
	builder  *animation.Builder
	sessions map[string]*Session
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Detector == nil {
		return nil, fmt.Errorf("practice: detector must not be nil")
	}
	if cfg.Settings == (Settings{}) {
		cfg.Settings = DefaultSettings()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		detector:     cfg.Detector,
		detectorName: cfg.DetectorName,
		g2p:          cfg.G2P,
		matcher:      cfg.Matcher,
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		sessions:     make(map[string]*Session),
	}
	if svc.detectorName == "" {
		svc.detectorName = "detector"
	}
	if svc.g2p == nil {
		svc.g2p = g2p.New()
	}
	if svc.matcher == nil {
		svc.matcher = phonetic.New()
	}
	if svc.store == nil {
		svc.store = store.NewMemStore()
	}
	if svc.metrics == nil {
		svc.metrics = observe.DefaultMetrics()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	svc.resolver = cfg.Resolver
	if svc.resolver == nil {
		svc.resolver = viseme.NewResolver(
			viseme.WithLogger(svc.logger),
			viseme.WithOnUnknown(func(string) {
				svc.metrics.RecordUnknownToken(context.Background())
			}),
		)
	}
	svc.applyLocked(cfg.Settings)
	return svc, nil
}

// Settings returns the current settings.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Apply replaces the settings. Targets set afterwards use the new values;
// existing targets keep the timeline they were built with.
func (s *Service) Apply(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(settings)
	s.logger.Info("practice settings applied",
		"ms_per_unit", settings.MsPerUnit,
		"edge_padding_ms", settings.EdgePaddingMs,
		"pause_ms", settings.PauseMs,
		"word_policy", settings.WordPolicy,
		"letter_policy", settings.LetterPolicy,
	)
	return nil
}

func (s *Service) applyLocked(settings Settings) {
	if settings.DefaultLanguage == "" {
		settings.DefaultLanguage = phoneme.English
	}
	s.settings = settings
	s.builder = animation.NewBuilder(animation.WithPauseMs(settings.PauseMs))
}

func (s *Service) language(lang phoneme.Language) phoneme.Language {
	if lang != "" {
		return lang
	}
	return s.Settings().DefaultLanguage
}

// Phonemes converts text to its expected phoneme sequence. Multi-word text
// contains pause units between words.
func (s *Service) Phonemes(text string, lang phoneme.Language) phoneme.Sequence {
	return s.g2p.ParseText(text, s.language(lang))
}

// Letter returns the practice sound for letter.
func (s *Service) Letter(letter string, lang phoneme.Language) (g2p.LetterTarget, error) {
	lt, ok := s.g2p.Letter(letter, s.language(lang))
	if !ok {
		return g2p.LetterTarget{}, fmt.Errorf("%w: %q", ErrUnknownLetter, letter)
	}
	return lt, nil
}

// Letters lists the practice sounds of a language.
func (s *Service) Letters(lang phoneme.Language) []g2p.LetterTarget {
	return s.g2p.Letters(s.language(lang))
}

// Languages lists the languages the G2P engine has rules for.
func (s *Service) Languages() []phoneme.Language {
	return s.g2p.Languages()
}

// Resolve maps a phoneme token to its viseme frame.
func (s *Service) Resolve(token string) viseme.Frame {
	return s.resolver.Resolve(token)
}

// Timeline builds a timeline for units with the current settings. A nil res
// uses the shared resolver.
func (s *Service) Timeline(res animation.FrameResolver, units phoneme.Sequence) animation.Timeline {
	if res == nil {
		res = s.resolver
	}
	s.mu.RLock()
	b, set := s.builder, s.settings
	s.mu.RUnlock()
	return b.Build(res, units, set.MsPerUnit, set.EdgePaddingMs)
}

// LetterTimeline builds the fixed four-step timeline for consonant.
func (s *Service) LetterTimeline(res animation.FrameResolver, consonant string) animation.Timeline {
	if res == nil {
		res = s.resolver
	}
	s.mu.RLock()
	b := s.builder
	s.mu.RUnlock()
	return b.BuildLetter(res, consonant)
}

// Score compares detected against target with the named policy. Pause units
// are ignored on both sides.
func (s *Service) Score(policy string, target, detected phoneme.Sequence) (scoring.Result, error) {
	p, err := scoring.PolicyByName(policy)
	if err != nil {
		return scoring.Result{}, err
	}
	return p.Score(detect.WithoutPauses(target), detect.WithoutPauses(detected)), nil
}

// Session returns the session of clientID, creating it on first use.
func (s *Service) Session(clientID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[clientID]; ok {
		return sess
	}
	sess := newSession(s, clientID)
	s.sessions[clientID] = sess
	s.metrics.ActiveSessions.Add(context.Background(), 1)
	s.logger.Debug("practice session created", "client_id", clientID)
	return sess
}

// LookupSession returns the session of clientID if one exists.
func (s *Service) LookupSession(clientID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[clientID]
	return sess, ok
}

// CloseSession cancels any in-flight detection of clientID's session and
// forgets it. Closing an unknown session is a no-op.
func (s *Service) CloseSession(clientID string) {
	s.mu.Lock()
	sess, ok := s.sessions[clientID]
	delete(s.sessions, clientID)
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.cancelInFlight()
	s.metrics.ActiveSessions.Add(context.Background(), -1)
}

// Close cancels every session.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.cancelInFlight()
		s.metrics.ActiveSessions.Add(context.Background(), -1)
	}
}

// Store returns the attempt store.
func (s *Service) Store() store.Store { return s.store }

// policyFor returns the configured policy for mode. Letter policies receive
// the letter's accepted variants.
func (s *Service) policyFor(mode store.Mode, variants []string) (scoring.Policy, error) {
	set := s.Settings()
	name := set.WordPolicy
	if mode == store.ModeLetter {
		name = set.LetterPolicy
	}
	p, err := scoring.PolicyByName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := p.(scoring.StrictSingle); ok {
		p = scoring.StrictSingle{Variants: variants}
	}
	return p, nil
}
