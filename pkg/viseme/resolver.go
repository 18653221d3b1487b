package viseme

import (
	"log/slog"
	"maps"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// DefaultMaxDepth bounds fallback recursion independently of the visited set.
const DefaultMaxDepth = 8

// Resolver maps tokens to frames. A Resolver is immutable after construction
// and safe for concurrent use.
type Resolver struct {
	primary   map[string]Frame
	fallbacks map[string]string
	maxDepth  int
	logger    *slog.Logger
	onUnknown func(token string)
}

// Option is a functional option for [NewResolver].
type Option func(*Resolver)

// WithPrimary replaces the built-in primary table.
func WithPrimary(table map[string]Frame) Option {
	return func(r *Resolver) { r.primary = normaliseKeys(table) }
}

// WithFallbacks replaces the built-in fallback table. The table is treated as
// untrusted: it may contain cycles.
func WithFallbacks(table map[string]string) Option {
	return func(r *Resolver) { r.fallbacks = normaliseKeys(table) }
}

// WithMaxDepth sets the fallback recursion bound. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for unknown-token diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithOnUnknown registers a hook called with every token that resolves to
// [Neutral] after the fallback chain is exhausted. Used for metrics.
func WithOnUnknown(fn func(token string)) Option {
	return func(r *Resolver) { r.onUnknown = fn }
}

// NewResolver returns a Resolver over the built-in tables.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		primary:   defaultPrimary,
		fallbacks: defaultFallbacks,
		maxDepth:  DefaultMaxDepth,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the frame for token. It never fails: pause tokens map to
// [Neutral] silently, unknown tokens map to [Neutral] with a warning.
func (r *Resolver) Resolve(token string) Frame {
	t := normaliseToken(token)
	if phoneme.IsPause(t) {
		return Neutral
	}
	if f, ok := r.lookup(t, make(map[string]struct{}), 0); ok {
		return f
	}
	r.logger.Warn("viseme: unknown token, using neutral frame", "token", token)
	if r.onUnknown != nil {
		r.onUnknown(token)
	}
	return Neutral
}

func (r *Resolver) lookup(t string, visited map[string]struct{}, depth int) (Frame, bool) {
	if t == "" {
		return Neutral, false
	}
	if f, ok := r.primary[t]; ok {
		return f, true
	}
	if sub, ok := r.fallbacks[t]; ok {
		if _, seen := visited[t]; seen || depth >= r.maxDepth {
			return Neutral, false
		}
		visited[t] = struct{}{}
		return r.lookup(normaliseToken(sub), visited, depth+1)
	}
	if utf8.RuneCountInString(t) > 1 {
		first, _ := utf8.DecodeRuneInString(t)
		return r.lookup(string(first), visited, depth+1)
	}
	return Neutral, false
}

func normaliseToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normaliseKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[normaliseToken(k)] = v
	}
	return out
}

// Cache memoises resolutions for one owner, typically a practice session.
// It is safe for concurrent use.
type Cache struct {
	r *Resolver

	mu     sync.Mutex
	frames map[string]Frame
	hits   int
	misses int
}

// NewCache returns an empty cache in front of r.
func NewCache(r *Resolver) *Cache {
	return &Cache{r: r, frames: make(map[string]Frame)}
}

// Resolve returns the cached frame for token, resolving it on first use.
func (c *Cache) Resolve(token string) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.frames[token]; ok {
		c.hits++
		return f
	}
	c.misses++
	f := c.r.Resolve(token)
	c.frames[token] = f
	return f
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached tokens.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Reset drops every cached entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.frames)
	c.hits, c.misses = 0, 0
}

// Snapshot returns a copy of the cached token→frame map.
func (c *Cache) Snapshot() map[string]Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.frames)
}
