package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

type textRequest struct {
	Text     string `json:"text" validate:"required,max=500"`
	Language string `json:"language" validate:"omitempty,max=32"`
}

type phonemesResponse struct {
	Text     string           `json:"text"`
	Language phoneme.Language `json:"language"`
	Phonemes phoneme.Sequence `json:"phonemes"`
	Symbols  []string         `json:"symbols"`
}

type visemesRequest struct {
	Tokens []string `json:"tokens" validate:"required,min=1,max=500,dive,required,max=16"`
}

type visemeInfo struct {
	Token string `json:"token"`
	Frame int    `json:"frame"`
	Name  string `json:"name"`
}

type timelineRequest struct {
	Text     string   `json:"text" validate:"required_without=Phonemes,max=500"`
	Phonemes []string `json:"phonemes" validate:"max=500,dive,required,max=16"`
	Language string   `json:"language" validate:"omitempty,max=32"`
}

type timelineResponse struct {
	Phonemes   phoneme.Sequence   `json:"phonemes,omitempty"`
	Letter     *g2p.LetterTarget  `json:"letter,omitempty"`
	Timeline   animation.Timeline `json:"timeline"`
	DurationMs int                `json:"duration_ms"`
}

type letterRequest struct {
	Letter   string `json:"letter" validate:"required,max=8"`
	Language string `json:"language" validate:"omitempty,max=32"`
}

type scoreRequest struct {
	Target   []string `json:"target" validate:"required_without=Text,max=500,dive,required,max=16"`
	Text     string   `json:"text" validate:"max=500"`
	Language string   `json:"language" validate:"omitempty,max=32"`
	Detected []string `json:"detected" validate:"max=500,dive,required,max=16"`
	Policy   string   `json:"policy" validate:"omitempty,max=32"`
}

// parseLanguage accepts any identifier [phoneme.ParseLanguage] understands.
// An empty value selects the configured default.
func (s *Server) parseLanguage(field, value string) (phoneme.Language, error) {
	if value == "" {
		return s.practice.Settings().DefaultLanguage, nil
	}
	lang, ok := phoneme.ParseLanguage(value)
	if !ok {
		return "", fieldError(field, "is not a supported language")
	}
	return lang, nil
}

func (s *Server) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"languages": s.practice.Languages(),
		"default":   s.practice.Settings().DefaultLanguage,
	})
}

func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	lang, err := s.parseLanguage("lang", chi.URLParam(r, "lang"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"language": lang,
		"letters":  s.practice.Letters(lang),
	})
}

func (s *Server) handleParsePhonemes(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	lang, err := s.parseLanguage("language", req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	units := s.practice.Phonemes(req.Text, lang)
	s.writeJSON(w, http.StatusOK, phonemesResponse{
		Text:     req.Text,
		Language: lang,
		Phonemes: units,
		Symbols:  units.Symbols(),
	})
}

func (s *Server) handleResolveVisemes(w http.ResponseWriter, r *http.Request) {
	var req visemesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]visemeInfo, len(req.Tokens))
	for i, tok := range req.Tokens {
		f := s.practice.Resolve(tok)
		out[i] = visemeInfo{Token: tok, Frame: int(f), Name: f.String()}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuildTimeline(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	units, err := s.units(req.Phonemes, req.Text, req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl := s.practice.Timeline(nil, units)
	s.writeJSON(w, http.StatusOK, timelineResponse{
		Phonemes:   units,
		Timeline:   tl,
		DurationMs: tl.Duration(),
	})
}

func (s *Server) handleBuildLetterTimeline(w http.ResponseWriter, r *http.Request) {
	var req letterRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	lang, err := s.parseLanguage("language", req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lt, err := s.practice.Letter(req.Letter, lang)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tl := s.practice.LetterTimeline(nil, lt.Primary)
	s.writeJSON(w, http.StatusOK, timelineResponse{
		Letter:     &lt,
		Timeline:   tl,
		DurationMs: tl.Duration(),
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.units(req.Target, req.Text, req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	policy := req.Policy
	if policy == "" {
		policy = s.practice.Settings().WordPolicy
	}
	res, err := s.practice.Score(policy, target, phoneme.NewSequence(req.Detected...))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// units returns symbols as a sequence, or the parsed text when symbols is
// empty.
func (s *Server) units(symbols []string, text, language string) (phoneme.Sequence, error) {
	if len(symbols) > 0 {
		return phoneme.NewSequence(symbols...), nil
	}
	lang, err := s.parseLanguage("language", language)
	if err != nil {
		return nil, err
	}
	return s.practice.Phonemes(text, lang), nil
}
