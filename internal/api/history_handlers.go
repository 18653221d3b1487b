package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

type clientRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Language string `json:"language" validate:"omitempty,max=32"`
	Notes    string `json:"notes" validate:"max=2000"`
}

type settingRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type practiceSettingsResponse struct {
	MsPerUnit       int              `json:"ms_per_unit"`
	EdgePaddingMs   int              `json:"edge_padding_ms"`
	PauseMs         int              `json:"pause_ms"`
	WordPolicy      string           `json:"word_policy"`
	LetterPolicy    string           `json:"letter_policy"`
	DefaultLanguage phoneme.Language `json:"default_language"`
}

func practiceSettings(set practice.Settings) practiceSettingsResponse {
	return practiceSettingsResponse{
		MsPerUnit:       set.MsPerUnit,
		EdgePaddingMs:   set.EdgePaddingMs,
		PauseMs:         set.PauseMs,
		WordPolicy:      set.WordPolicy,
		LetterPolicy:    set.LetterPolicy,
		DefaultLanguage: set.DefaultLanguage,
	}
}

// queryLimit parses the limit query parameter. Zero means the store default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fieldError("limit", "must be a non-negative integer")
	}
	return n, nil
}

// queryLanguage parses an optional language filter.
func queryLanguage(r *http.Request) (phoneme.Language, error) {
	raw := r.URL.Query().Get("language")
	if raw == "" {
		return "", nil
	}
	lang, ok := phoneme.ParseLanguage(raw)
	if !ok {
		return "", fieldError("language", "is not a supported language")
	}
	return lang, nil
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AttemptFilter{
		ClientID: q.Get("client_id"),
		Target:   q.Get("target"),
	}
	var err error
	if f.Limit, err = queryLimit(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Language, err = queryLanguage(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	if raw := q.Get("since"); raw != "" {
		if f.Since, err = time.Parse(time.RFC3339, raw); err != nil {
			s.writeError(w, r, fieldError("since", "must be an RFC 3339 timestamp"))
			return
		}
	}

	attempts, err := s.store.ListAttempts(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAttempt(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeClient decodes and validates a client body.
func (s *Server) decodeClient(w http.ResponseWriter, r *http.Request) (*store.Client, error) {
	var req clientRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	c := &store.Client{Name: req.Name, Notes: req.Notes}
	if req.Language != "" {
		lang, ok := phoneme.ParseLanguage(req.Language)
		if !ok {
			return nil, fieldError("language", "is not a supported language")
		}
		c.Language = lang
	}
	return c, nil
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.decodeClient(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if c.Language == "" {
		c.Language = s.practice.Settings().DefaultLanguage
	}
	if err := s.store.CreateClient(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	observe.Logger(r.Context()).Info("client created", "client_id", c.ID)
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	f := store.ClientFilter{Name: r.URL.Query().Get("name")}
	var err error
	if f.Limit, err = queryLimit(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Language, err = queryLanguage(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	clients, err := s.store.ListClients(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.decodeClient(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	if c.Language == "" {
		existing, err := s.store.GetClient(r.Context(), c.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		c.Language = existing.Language
	}
	if err := s.store.UpdateClient(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.practice.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPracticeSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, practiceSettings(s.practice.Settings()))
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := s.store.GetSetting(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: v})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req settingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetSetting(r.Context(), key, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}
