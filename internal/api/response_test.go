package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fieldError("text", "is required"), http.StatusBadRequest, CodeValidation},
		{badRequest("nope"), http.StatusBadRequest, CodeValidation},
		{fmt.Errorf("x: %w", store.ErrInvalidInput), http.StatusBadRequest, CodeValidation},
		{scoring.ErrUnknownPolicy, http.StatusBadRequest, CodeValidation},
		{practice.ErrUnknownLetter, http.StatusBadRequest, CodeValidation},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{practice.ErrInvalidAudio, http.StatusBadRequest, CodeInvalidAudio},
		{store.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{store.ErrAlreadyExists, http.StatusConflict, CodeConflict},
		{practice.ErrNoTarget, http.StatusConflict, CodeNoTarget},
		{practice.ErrSuperseded, http.StatusConflict, CodeSuperseded},
		{fmt.Errorf("%w: boom", practice.ErrBackendUnavailable), http.StatusServiceUnavailable, CodeBackendUnavailable},
		{fmt.Errorf("%w: silence", practice.ErrAnalysisFailed), http.StatusUnprocessableEntity, CodeAnalysisFailed},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
		{context.Canceled, statusClientClosedRequest, CodeCanceled},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("classify(%v) = %d %q, want %d %q", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()
	err := &ValidationError{Fields: map[string]string{"b": "is required", "a": "is invalid"}}
	if got, want := err.Error(), "validation failed: a is invalid; b is required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidator_UsesJSONNames(t *testing.T) {
	t.Parallel()
	v := NewValidator()
	err := v.Validate(setTargetRequest{Mode: "word"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if verr.Fields["text"] != "is required" {
		t.Errorf("fields = %v, want text is required", verr.Fields)
	}
}
