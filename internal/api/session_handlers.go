package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// audioFormField is the multipart field carrying the recording.
const audioFormField = "audio"

const maxClientIDLen = 64

type setTargetRequest struct {
	Mode     store.Mode `json:"mode" validate:"required,oneof=word letter"`
	Text     string     `json:"text" validate:"required,max=200"`
	Language string     `json:"language" validate:"omitempty,max=32"`
}

type sessionResponse struct {
	ClientID string            `json:"client_id"`
	Target   *practice.Target  `json:"target,omitempty"`
	Last     *practice.Outcome `json:"last,omitempty"`
	Cache    cacheStats        `json:"cache"`
}

type cacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

func clientParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "client")
	if id == "" || len(id) > maxClientIDLen {
		return "", fieldError("client", fmt.Sprintf("must be between 1 and %d characters", maxClientIDLen))
	}
	return id, nil
}

// lookupSession returns the existing session of the request's client.
func (s *Server) lookupSession(r *http.Request) (*practice.Session, error) {
	id, err := clientParam(r)
	if err != nil {
		return nil, err
	}
	sess, ok := s.practice.LookupSession(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, store.ErrNotFound)
	}
	return sess, nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hits, misses := sess.CacheStats()
	s.writeJSON(w, http.StatusOK, sessionResponse{
		ClientID: sess.ClientID(),
		Target:   sess.Target(),
		Last:     sess.Last(),
		Cache:    cacheStats{Hits: hits, Misses: misses},
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := clientParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.practice.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t := sess.Target()
	if t == nil {
		s.writeError(w, r, practice.ErrNoTarget)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	id, err := clientParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req setTargetRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var lang phoneme.Language
	if req.Language != "" {
		if lang, err = s.parseLanguage("language", req.Language); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	sess := s.practice.Session(id)
	var t *practice.Target
	switch req.Mode {
	case store.ModeLetter:
		t, err = sess.SetLetter(req.Text, lang)
	default:
		t, err = sess.SetWord(req.Text, lang)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		// Without a session there can be no target.
		if id, perr := clientParam(r); perr == nil {
			err = fmt.Errorf("session %q: %w", id, practice.ErrNoTarget)
		}
		s.writeError(w, r, err)
		return
	}
	audio, err := s.readAudio(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := sess.Submit(r.Context(), audio)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// readAudio reads the recording from a multipart form field named "audio" or
// from a raw WAV body.
func (s *Server) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, badRequest("content type: %v", err)
	}
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return nil, uploadError(err)
		}
		f, _, err := r.FormFile(audioFormField)
		if err != nil {
			return nil, fieldError(audioFormField, "is required")
		}
		defer f.Close()
		return io.ReadAll(f)
	case "audio/wav", "audio/wave", "audio/x-wav", "application/octet-stream":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, uploadError(err)
		}
		return data, nil
	default:
		return nil, badRequest("unsupported content type %q", mediaType)
	}
}

// uploadError keeps size-limit errors intact and marks the rest as bad
// requests.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return badRequest("read upload: %v", err)
}
