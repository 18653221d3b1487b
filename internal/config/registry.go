package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

// ErrProviderNotRegistered is returned by [Registry.CreateDetector] when no
// factory has been registered under the requested backend name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// DetectorFactory builds a detection backend from its config entry.
type DetectorFactory func(ProviderEntry) (detect.Provider, error)

// Registry maps backend names to their constructor functions. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	detector map[string]DetectorFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{detector: make(map[string]DetectorFactory)}
}

// RegisterDetector registers a detection backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterDetector(name string, factory DetectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detector[name] = factory
}

// CreateDetector instantiates a detection backend using the factory
// registered under entry.Name. Returns [ErrProviderNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateDetector(entry ProviderEntry) (detect.Provider, error) {
	r.mu.RLock()
	factory, ok := r.detector[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: detect/%q", ErrProviderNotRegistered, entry.Name)
	}
	p, err := factory(entry)
	if err != nil {
		return nil, fmt.Errorf("config: create detector %q: %w", entry.Name, err)
	}
	return p, nil
}

// Detectors returns the registered backend names in sorted order.
func (r *Registry) Detectors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.detector))
	for name := range r.detector {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
