package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
)

// statusClientClosedRequest is the non-standard status logged when the
// client went away before the response was ready.
const statusClientClosedRequest = 499

// Error codes carried in the envelope's error field.
const (
	CodeValidation         = "validation"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeNoTarget           = "no_target"
	CodeSuperseded         = "superseded"
	CodeInvalidAudio       = "invalid_audio"
	CodePayloadTooLarge    = "payload_too_large"
	CodeBackendUnavailable = "backend_unavailable"
	CodeAnalysisFailed     = "analysis_failed"
	CodeTimeout            = "timeout"
	CodeCanceled           = "canceled"
	CodeInternal           = "internal"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// writeJSON writes data wrapped in a success envelope.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: status < 400, Data: data}); err != nil {
		s.logger.Error("failed to encode JSON response", "err", err)
	}
}

// writeError maps err to a status and error code and writes the envelope.
// Server-side failures are logged with the request's trace context.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	env := Envelope{Error: code, Message: err.Error()}

	var verr *ValidationError
	if errors.As(err, &verr) {
		env.Details = verr.Fields
		env.Message = "validation failed"
	}

	log := observe.Logger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		if status == http.StatusInternalServerError {
			env.Message = "internal error"
		}
	} else {
		log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// classify maps domain errors to an HTTP status and error code.
func classify(err error) (int, string) {
	var (
		verr   *ValidationError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, practice.ErrUnknownLetter),
		errors.Is(err, scoring.ErrUnknownPolicy):
		return http.StatusBadRequest, CodeValidation
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge
	case errors.Is(err, practice.ErrInvalidAudio):
		return http.StatusBadRequest, CodeInvalidAudio
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, practice.ErrNoTarget):
		return http.StatusConflict, CodeNoTarget
	case errors.Is(err, practice.ErrSuperseded):
		return http.StatusConflict, CodeSuperseded
	case errors.Is(err, practice.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, CodeBackendUnavailable
	case errors.Is(err, practice.ErrAnalysisFailed):
		return http.StatusUnprocessableEntity, CodeAnalysisFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, CodeCanceled
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 1 << 20

// errBadRequest marks malformed requests that fail before validation.
var errBadRequest = errors.New("api: bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON decodes the request body into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("decode body: %v", err)
	}
	return s.validator.Validate(v)
}
