// Package resilience keeps practice sessions scoring when a detection backend
// misbehaves.
//
// [CircuitBreaker] stops sending recordings to a backend after repeated
// outages and probes it again once a cool-down has passed. [Retry] gives a
// single detection call a bounded number of attempts. [FallbackGroup] orders
// backends, each behind its own breaker, and [DetectFallback] puts the pieces
// together as a detect.Provider.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the backend is
// cooling down or its probe budget is used up.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota
	// StateOpen rejects calls with [ErrCircuitOpen] until the reset timeout
	// has passed.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through. Enough
	// successes close the breaker; a single failure opens it again.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Breaker defaults used for zero config fields.
const (
	DefaultMaxFailures  = 5
	DefaultResetTimeout = 30 * time.Second
	DefaultHalfOpenMax  = 3
)

// CircuitBreakerConfig tunes a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name labels the backend in logs and callbacks.
	Name string

	// MaxFailures is the number of consecutive failures that open the
	// breaker. Default: [DefaultMaxFailures].
	MaxFailures int

	// ResetTimeout is the cool-down before probing. Default:
	// [DefaultResetTimeout].
	ResetTimeout time.Duration

	// HalfOpenMax is both the probe budget and the number of successful
	// probes needed to close. Default: [DefaultHalfOpenMax].
	HalfOpenMax int

	// IsFailure reports whether err counts against the backend. Other errors
	// pass through untouched. Nil counts every non-nil error.
	IsFailure func(error) bool

	// OnStateChange runs after each transition with the breaker locked. It
	// must not call back into the breaker.
	OnStateChange func(name string, from, to State)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *CircuitBreakerConfig) withDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = DefaultHalfOpenMax
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// CircuitBreaker guards one detection backend.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	probeWins int
}

// NewCircuitBreaker returns a closed breaker configured by cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.withDefaults()
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Name returns the breaker's label.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Execute calls fn unless the breaker rejects it with [ErrCircuitOpen]. The
// error from fn is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.settle(probe, err)
	return err
}

// admit decides whether a call may proceed and whether it is a probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.coolingDown() {
			return false, ErrCircuitOpen
		}
		cb.probes, cb.probeWins = 0, 0
		cb.moveTo(StateHalfOpen)
	}
	if cb.state != StateHalfOpen {
		return false, nil
	}
	if cb.probes >= cb.cfg.HalfOpenMax {
		return false, ErrCircuitOpen
	}
	cb.probes++
	return true, nil
}

// settle records the outcome of an admitted call.
func (cb *CircuitBreaker) settle(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && cb.cfg.IsFailure(err)

	if probe {
		// A concurrent probe may already have reopened or closed the breaker.
		if cb.state != StateHalfOpen {
			return
		}
		if failed {
			cb.failures = cb.cfg.MaxFailures
			cb.trip()
			return
		}
		cb.probeWins++
		if cb.probeWins >= cb.cfg.HalfOpenMax {
			cb.failures = 0
			cb.moveTo(StateClosed)
		}
		return
	}

	if !failed {
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.state == StateClosed && cb.failures >= cb.cfg.MaxFailures {
		cb.trip()
	}
}

func (cb *CircuitBreaker) coolingDown() bool {
	return cb.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.moveTo(StateOpen)
}

// moveTo switches state and reports the transition. cb.mu must be held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	log := cb.cfg.Logger.With("backend", cb.cfg.Name, "from", from.String(), "to", to.String())
	switch to {
	case StateOpen:
		log.Warn("detection backend breaker opened", "consecutive_failures", cb.failures, "retry_after", cb.cfg.ResetTimeout)
	case StateClosed:
		log.Info("detection backend recovered")
	default:
		log.Info("probing detection backend")
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

// State returns the current state. An open breaker whose cool-down has passed
// reports [StateHalfOpen]; the transition itself happens on the next call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && !cb.coolingDown() {
		return StateHalfOpen
	}
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures, cb.probes, cb.probeWins = 0, 0, 0
	cb.moveTo(StateClosed)
}
