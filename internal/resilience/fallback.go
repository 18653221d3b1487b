package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when no entry of a [FallbackGroup] could serve a
// call.
var ErrAllFailed = errors.New("resilience: all providers failed")

// FallbackConfig configures a [FallbackGroup]. CircuitBreaker is the template
// for the breaker each entry gets; its Name is replaced by the entry name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig

	// ShouldFallback reports whether err moves on to the next entry. Other
	// errors end the call. Nil moves on after every error.
	ShouldFallback func(error) bool

	Logger *slog.Logger
}

type member[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup is an ordered list of interchangeable backends. Calls go to
// the first entry whose breaker admits them and move down the list on
// failure.
//
// Register every entry before sharing the group between goroutines.
type FallbackGroup[T any] struct {
	members []member[T]
	cfg     FallbackConfig
}

// NewFallbackGroup returns a group whose first entry is primary.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	if cfg.ShouldFallback == nil {
		cfg.ShouldFallback = func(error) bool { return true }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CircuitBreaker.Logger == nil {
		cfg.CircuitBreaker.Logger = cfg.Logger
	}
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends an entry behind the existing ones.
func (fg *FallbackGroup[T]) AddFallback(name string, value T) {
	bc := fg.cfg.CircuitBreaker
	bc.Name = name
	fg.members = append(fg.members, member[T]{name: name, value: value, breaker: NewCircuitBreaker(bc)})
}

// Names lists the entries in call order.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, 0, len(fg.members))
	for _, m := range fg.members {
		names = append(names, m.name)
	}
	return names
}

// Breaker returns the breaker of the named entry, or nil.
func (fg *FallbackGroup[T]) Breaker(name string) *CircuitBreaker {
	for _, m := range fg.members {
		if m.name == name {
			return m.breaker
		}
	}
	return nil
}

// Execute runs fn against the entries in order until one succeeds. When none
// does, the error wraps [ErrAllFailed] and every entry's own error.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, _, err := Call(fg, func(v T) (struct{}, error) { return struct{}{}, fn(v) })
	return err
}

// Call is [FallbackGroup.Execute] for operations that return a value. It also
// returns the name of the entry that served the call.
func Call[T, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, string, error) {
	var (
		zero   R
		causes = []error{ErrAllFailed}
	)
	for _, m := range fg.members {
		var out R
		err := m.breaker.Execute(func() (err error) {
			out, err = fn(m.value)
			return err
		})
		switch {
		case err == nil:
			return out, m.name, nil
		case errors.Is(err, ErrCircuitOpen):
			fg.cfg.Logger.Debug("backend skipped, breaker open", "backend", m.name)
		case !fg.cfg.ShouldFallback(err):
			return zero, m.name, fmt.Errorf("%s: %w", m.name, err)
		default:
			fg.cfg.Logger.Warn("backend failed, trying next", "backend", m.name, "err", err)
		}
		causes = append(causes, fmt.Errorf("%s: %w", m.name, err))
	}
	return zero, "", errors.Join(causes...)
}
