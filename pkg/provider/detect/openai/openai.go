// Package openai provides a detection provider backed by the OpenAI audio
// transcription API.
//
// Like whisper.cpp, the transcription API returns text, so the provider
// converts the transcript to phonemes with a grapheme-to-phoneme parser. The
// target text is passed as the transcription prompt to bias recognition
// toward the word being practised.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = string(oai.AudioModelWhisper1)

// Compile-time assertion that Provider implements detect.Provider.
var _ detect.Provider = (*Provider)(nil)

// TextParser converts a transcript into phonemes.
type TextParser interface {
	ParseText(text string, lang phoneme.Language) phoneme.Sequence
}

// Provider implements detect.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
	parser TextParser
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	model        string
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithModel selects the transcription model. Defaults to [DefaultModel].
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// New constructs a Provider. Retries inside the SDK are disabled; callers
// wrap the provider in their own retry policy.
func New(apiKey string, parser TextParser, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}
	if parser == nil {
		return nil, errors.New("openai: parser must not be nil")
	}

	cfg := &config{model: DefaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: cfg.model, parser: parser}, nil
}

// Detect implements detect.Provider.
func (p *Provider) Detect(ctx context.Context, req detect.Request) (*detect.Result, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("openai: %w: empty audio", detect.ErrAnalysisFailed)
	}

	params := oai.AudioTranscriptionNewParams{
		File:           oai.File(bytes.NewReader(req.Audio), req.FilenameOrDefault(), "audio/wav"),
		Model:          oai.AudioModel(p.model),
		ResponseFormat: oai.AudioResponseFormatJSON,
	}
	if req.Language != "" {
		params.Language = oai.String(string(req.Language))
	}
	if req.Text != "" {
		params.Prompt = oai.String(req.Text)
	}

	tr, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: transcribe: %w", classify(err))
	}

	text := strings.TrimSpace(tr.Text)
	seq := detect.WithoutPauses(p.parser.ParseText(text, req.Language))
	if len(seq) == 0 {
		return nil, fmt.Errorf("openai: %w: empty transcript", detect.ErrAnalysisFailed)
	}
	return &detect.Result{Raw: text, Phonemes: seq, Transcript: text}, nil
}

func classify(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return errors.Join(detect.Classify(apiErr.StatusCode, nil), err)
	}
	return detect.Classify(0, err)
}
