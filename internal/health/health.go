// Package health serves the liveness and readiness probes.
//
// /healthz answers 200 while the process can serve HTTP. /readyz runs every
// registered [Checker] concurrently and answers 503 when any of them fails.
// A check that returns an error wrapping [ErrDegraded] is reported but does
// not fail readiness; the detection check uses this while a fallback backend
// is covering for an open primary.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/mouthpiece/internal/resilience"
)

// checkTimeout bounds one readiness check.
const checkTimeout = 5 * time.Second

// ErrDegraded marks a check that is impaired but still able to serve.
var ErrDegraded = errors.New("degraded")

// Probe statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFail     = "fail"
)

// Checker is one named readiness check. Check must honour ctx.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// CheckReport is the outcome of one [Checker].
type CheckReport struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Report is the /readyz response body.
type Report struct {
	Status string                 `json:"status"`
	Checks map[string]CheckReport `json:"checks,omitempty"`
}

// Handler serves the probes. The checker list is fixed at construction.
type Handler struct {
	checkers []Checker
}

// New returns a Handler evaluating checkers on each readiness request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Register mounts /healthz and /readyz on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Report{Status: StatusOK})
}

// Readyz answers 200 unless a check failed outright.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := h.Evaluate(r.Context())
	code := http.StatusOK
	if rep.Status == StatusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, rep)
}

// Evaluate runs every checker concurrently, each under its own timeout, and
// folds the results into a [Report]. The overall status is the worst
// individual status.
func (h *Handler) Evaluate(ctx context.Context) Report {
	rep := Report{Status: StatusOK, Checks: make(map[string]CheckReport, len(h.checkers))}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, c := range h.checkers {
		g.Go(func() error {
			cr := run(ctx, c)
			mu.Lock()
			rep.Checks[c.Name] = cr
			rep.Status = worse(rep.Status, cr.Status)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

func run(ctx context.Context, c Checker) CheckReport {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := c.Check(ctx)
	cr := CheckReport{Status: StatusOK, LatencyMs: time.Since(start).Milliseconds()}
	switch {
	case err == nil:
	case errors.Is(err, ErrDegraded):
		cr.Status, cr.Error = StatusDegraded, err.Error()
	default:
		cr.Status, cr.Error = StatusFail, err.Error()
	}
	return cr
}

func worse(a, b string) string {
	rank := map[string]int{StatusOK: 0, StatusDegraded: 1, StatusFail: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Pinger reports whether a dependency is reachable. The attempt stores
// implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker checks p.Ping.
func PingChecker(name string, p Pinger) Checker {
	return Checker{Name: name, Check: p.Ping}
}

// BreakerReporter lists detection backends and their breaker states.
// [resilience.DetectFallback] implements it.
type BreakerReporter interface {
	Backends() []string
	BreakerState(name string) (resilience.State, bool)
}

// BackendsChecker fails when every backend's breaker is open and reports
// [ErrDegraded] when only some of them are.
func BackendsChecker(name string, b BreakerReporter) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		backends := b.Backends()
		if len(backends) == 0 {
			return errors.New("no detection backends configured")
		}
		var open []string
		for _, n := range backends {
			if st, ok := b.BreakerState(n); ok && st == resilience.StateOpen {
				open = append(open, n)
			}
		}
		switch len(open) {
		case 0:
			return nil
		case len(backends):
			return fmt.Errorf("every backend is cooling down: %s", strings.Join(open, ", "))
		default:
			return fmt.Errorf("%w: open: %s", ErrDegraded, strings.Join(open, ", "))
		}
	}}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
