// Package mock provides a test double for detect.Provider.
//
// Configure Result or Err to control what Detect returns, or set DetectFunc
// for per-call behaviour. Every call is recorded.
//
// Example:
//
//	p := &mock.Provider{Result: &detect.Result{Phonemes: phoneme.NewSequence("h", "i")}}
//	res, _ := p.Detect(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

// DetectCall records a single invocation of Provider.Detect.
type DetectCall struct {
	// Ctx is the context passed to Detect.
	Ctx context.Context
	// Req is the request passed to Detect.
	Req detect.Request
}

// Provider is a mock implementation of detect.Provider.
type Provider struct {
	mu sync.Mutex

	// DetectFunc, if non-nil, handles every call and overrides Result and Err.
	DetectFunc func(ctx context.Context, req detect.Request) (*detect.Result, error)

	// Result is returned by Detect when Err is nil.
	Result *detect.Result

	// Err, if non-nil, is returned as the error from Detect.
	Err error

	// DetectCalls records every call to Detect.
	DetectCalls []DetectCall
}

// Detect records the call and returns the configured outcome.
func (p *Provider) Detect(ctx context.Context, req detect.Request) (*detect.Result, error) {
	p.mu.Lock()
	p.DetectCalls = append(p.DetectCalls, DetectCall{Ctx: ctx, Req: req})
	fn, res, err := p.DetectFunc, p.Result, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &detect.Result{}, nil
	}
	cp := *res
	cp.Phonemes = res.Phonemes.Clone()
	return &cp, nil
}

// CallCount returns the number of Detect calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.DetectCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DetectCalls = nil
}

// Ensure Provider implements detect.Provider at compile time.
var _ detect.Provider = (*Provider)(nil)
