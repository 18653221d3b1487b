package whisper_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/mouthpiece/pkg/audio/wav"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/whisper"
)

func newProvider(t *testing.T, h http.HandlerFunc, opts ...whisper.Option) *whisper.Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := whisper.New(srv.URL, g2p.New(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestDetect_TranscriptToPhonemes(t *testing.T) {
	t.Parallel()

	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		if got := r.FormValue("language"); got != "de" {
			t.Errorf("language = %q", got)
		}
		if got := r.FormValue("model"); got != "small" {
			t.Errorf("model = %q", got)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		h, err := wav.Validate(data)
		if err != nil {
			t.Errorf("upload is not a wav: %v", err)
		}
		if h.SampleRate != 16000 || h.Channels != 1 {
			t.Errorf("upload header = %+v, want 16 kHz mono", h)
		}
		_, _ = io.WriteString(w, `{"text":" Hello world "}`)
	}, whisper.WithModel("small"))

	stereo := wav.Encode(make([]byte, 48000*2*2/10), 48000, 2)
	res, err := p.Detect(context.Background(), detect.Request{Audio: stereo, Language: "de"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if res.Transcript != "Hello world" {
		t.Errorf("Transcript = %q", res.Transcript)
	}
	if len(res.Phonemes) == 0 {
		t.Fatal("no phonemes")
	}
	for _, u := range res.Phonemes {
		if u.Symbol == "sp" {
			t.Error("pause unit leaked into detected sequence")
		}
	}
}

func TestDetect_Errors(t *testing.T) {
	t.Parallel()

	audio := wav.Encode(make([]byte, 320), 16000, 1)
	tests := []struct {
		name   string
		status int
		body   string
		audio  []byte
		want   error
	}{
		{"server down", http.StatusInternalServerError, "", audio, detect.ErrUnavailable},
		{"rejected", http.StatusBadRequest, "", audio, detect.ErrAnalysisFailed},
		{"bad json", http.StatusOK, "not json", audio, detect.ErrAnalysisFailed},
		{"empty transcript", http.StatusOK, `{"text":"  "}`, audio, detect.ErrAnalysisFailed},
		{"not a wav", http.StatusOK, `{"text":"hi"}`, []byte("garbage"), detect.ErrAnalysisFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := p.Detect(context.Background(), detect.Request{Audio: tt.audio})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := whisper.New("", g2p.New()); err == nil {
		t.Error("empty URL accepted")
	}
	if _, err := whisper.New("http://localhost:8080", nil); err == nil {
		t.Error("nil parser accepted")
	}
}
