// Package httpapi provides a detection provider for HTTP phoneme-analysis
// services.
//
// The service receives the recording as a multipart/form-data upload with
// fields "file" (the WAV), "text" (the target) and "language", and answers
// with a JSON body in any of the shapes [detect.DecodeResult] understands.
//
// Usage:
//
//	p, err := httpapi.New("http://localhost:5000",
//	    httpapi.WithPath("/analyze"),
//	    httpapi.WithTimeout(10*time.Second),
//	)
//	res, err := p.Detect(ctx, detect.Request{Audio: wav, Text: "hello", Language: "en"})
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

const (
	defaultPath    = "/analyze"
	defaultTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Compile-time assertion that Provider implements detect.Provider.
var _ detect.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithPath sets the request path appended to the base URL. Defaults to
// "/analyze".
func WithPath(path string) Option {
	return func(p *Provider) {
		p.path = path
	}
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithTimeout sets the HTTP client timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements detect.Provider against a JSON phoneme-analysis
// service.
type Provider struct {
	baseURL    string
	path       string
	apiKey     string
	httpClient *http.Client
}

// New creates a Provider for the service at baseURL. baseURL must be
// non-empty.
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("httpapi: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       defaultPath,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Detect uploads req.Audio and decodes the service's response.
func (p *Provider) Detect(ctx context.Context, req detect.Request) (*detect.Result, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("httpapi: %w: empty audio", detect.ErrAnalysisFailed)
	}

	body, contentType, err := p.form(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.path, body)
	if err != nil {
		return nil, fmt.Errorf("httpapi: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpapi: http request: %w", detect.Classify(0, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("httpapi: read response body: %w", detect.Classify(0, err))
	}
	if cerr := detect.Classify(resp.StatusCode, nil); cerr != nil {
		return nil, fmt.Errorf("httpapi: server returned HTTP %d: %w", resp.StatusCode, cerr)
	}

	res, err := detect.DecodeResult(data)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %w", err)
	}
	return res, nil
}

func (p *Provider) form(req detect.Request) (io.Reader, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", req.FilenameOrDefault())
	if err != nil {
		return nil, "", fmt.Errorf("httpapi: create form file: %w", err)
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("httpapi: write wav data: %w", err)
	}
	if req.Text != "" {
		if err := mw.WriteField("text", req.Text); err != nil {
			return nil, "", fmt.Errorf("httpapi: write text field: %w", err)
		}
	}
	if req.Language != "" {
		if err := mw.WriteField("language", string(req.Language)); err != nil {
			return nil, "", fmt.Errorf("httpapi: write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("httpapi: close multipart writer: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}
