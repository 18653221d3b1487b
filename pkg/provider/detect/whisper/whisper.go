// Package whisper provides a detection provider backed by a whisper.cpp
// server.
//
// whisper.cpp transcribes rather than emitting phonemes, so the provider
// posts the recording to the server's POST /inference endpoint and converts
// the returned transcript to phonemes with a grapheme-to-phoneme parser.
// Recordings are normalised to 16 kHz mono before upload.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080", g2p.New(),
//	    whisper.WithModel("base"),
//	)
//	res, err := p.Detect(ctx, detect.Request{Audio: wav, Language: "en"})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/mouthpiece/pkg/audio/wav"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

const defaultLanguage = "en"

// Compile-time assertion that Provider implements detect.Provider.
var _ detect.Provider = (*Provider)(nil)

// TextParser converts a transcript into phonemes.
type TextParser interface {
	ParseText(text string, lang phoneme.Language) phoneme.Sequence
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the language used when a request carries none. Defaults
// to "en".
func WithLanguage(lang phoneme.Language) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements detect.Provider backed by a whisper.cpp HTTP server.
type Provider struct {
	serverURL  string
	model      string
	language   phoneme.Language
	parser     TextParser
	httpClient *http.Client
}

// New creates a Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). Transcripts are converted with
// parser. serverURL must be non-empty and parser non-nil.
func New(serverURL string, parser TextParser, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	if parser == nil {
		return nil, errors.New("whisper: parser must not be nil")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		parser:     parser,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Detect transcribes req.Audio and converts the transcript to phonemes.
func (p *Provider) Detect(ctx context.Context, req detect.Request) (*detect.Result, error) {
	audio, _, err := wav.Normalize(req.Audio, wav.DefaultSampleRate)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w: %v", detect.ErrAnalysisFailed, err)
	}
	lang := req.Language
	if lang == "" {
		lang = p.language
	}

	text, err := p.infer(ctx, audio, req.FilenameOrDefault(), lang)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	seq := detect.WithoutPauses(p.parser.ParseText(text, lang))
	if len(seq) == 0 {
		return nil, fmt.Errorf("whisper: %w: empty transcript", detect.ErrAnalysisFailed)
	}
	return &detect.Result{Raw: text, Phonemes: seq, Transcript: text}, nil
}

// infer POSTs audio to the whisper.cpp /inference endpoint as
// multipart/form-data and returns the transcribed text.
func (p *Provider) infer(ctx context.Context, audio []byte, filename string, lang phoneme.Language) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if lang != "" {
		if err := mw.WriteField("language", string(lang)); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", detect.Classify(0, err))
	}
	defer resp.Body.Close()

	if cerr := detect.Classify(resp.StatusCode, nil); cerr != nil {
		return "", fmt.Errorf("whisper: server returned HTTP %d: %w", resp.StatusCode, cerr)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", detect.Classify(0, err))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: %w: parse JSON response: %v", detect.ErrAnalysisFailed, err)
	}
	return result.Text, nil
}
