package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Compile-time interface assertion.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory [Store]. Data is lost when the process exits.
type MemStore struct {
	mu       sync.RWMutex
	attempts map[string]Attempt
	clients  map[string]Client
	settings map[string]string
	now      func() time.Time
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		attempts: make(map[string]Attempt),
		clients:  make(map[string]Client),
		settings: make(map[string]string),
		now:      time.Now,
	}
}

func (m *MemStore) SaveAttempt(_ context.Context, a *Attempt) error {
	if err := PrepareAttempt(a, m.now()); err != nil {
		return fmt.Errorf("store: save attempt: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; ok {
		return fmt.Errorf("store: save attempt %s: %w", a.ID, ErrAlreadyExists)
	}
	m.attempts[a.ID] = cloneAttempt(*a)
	return nil
}

func (m *MemStore) GetAttempt(_ context.Context, id string) (*Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, fmt.Errorf("store: get attempt %s: %w", id, ErrNotFound)
	}
	a = cloneAttempt(a)
	return &a, nil
}

func (m *MemStore) ListAttempts(_ context.Context, f AttemptFilter) ([]Attempt, error) {
	m.mu.RLock()
	out := make([]Attempt, 0)
	for _, a := range m.attempts {
		if f.ClientID != "" && a.ClientID != f.ClientID {
			continue
		}
		if f.Target != "" && !strings.EqualFold(a.Target, f.Target) {
			continue
		}
		if f.Language != "" && a.Language != f.Language {
			continue
		}
		if !f.Since.IsZero() && a.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, cloneAttempt(a))
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Attempt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if n := Limit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemStore) DeleteAttempt(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[id]; !ok {
		return fmt.Errorf("store: delete attempt %s: %w", id, ErrNotFound)
	}
	delete(m.attempts, id)
	return nil
}

func (m *MemStore) CreateClient(_ context.Context, c *Client) error {
	if err := PrepareClient(c, m.now()); err != nil {
		return fmt.Errorf("store: create client: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; ok {
		return fmt.Errorf("store: create client %s: %w", c.ID, ErrAlreadyExists)
	}
	m.clients[c.ID] = *c
	return nil
}

func (m *MemStore) GetClient(_ context.Context, id string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, fmt.Errorf("store: get client %s: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (m *MemStore) ListClients(_ context.Context, f ClientFilter) ([]Client, error) {
	m.mu.RLock()
	out := make([]Client, 0, len(m.clients))
	name := strings.ToLower(f.Name)
	for _, c := range m.clients {
		if name != "" && !strings.Contains(strings.ToLower(c.Name), name) {
			continue
		}
		if f.Language != "" && c.Language != f.Language {
			continue
		}
		out = append(out, c)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Client) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n := Limit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemStore) UpdateClient(_ context.Context, c *Client) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("store: update client: %w", ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.clients[c.ID]
	if !ok {
		return fmt.Errorf("store: update client %s: %w", c.ID, ErrNotFound)
	}
	cur.Name, cur.Language, cur.Notes = c.Name, c.Language, c.Notes
	cur.UpdatedAt = m.now().UTC()
	m.clients[c.ID] = cur
	*c = cur
	return nil
}

func (m *MemStore) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return fmt.Errorf("store: delete client %s: %w", id, ErrNotFound)
	}
	delete(m.clients, id)
	return nil
}

func (m *MemStore) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	if !ok {
		return "", fmt.Errorf("store: get setting %q: %w", key, ErrNotFound)
	}
	return v, nil
}

func (m *MemStore) SetSetting(_ context.Context, key, value string) error {
	if err := ValidateSettingKey(key); err != nil {
		return fmt.Errorf("store: set setting: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Ping always succeeds.
func (m *MemStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemStore) Close() error { return nil }

func cloneAttempt(a Attempt) Attempt {
	a.Expected = slices.Clone(a.Expected)
	a.Detected = slices.Clone(a.Detected)
	a.Feedback = slices.Clone(a.Feedback)
	return a
}
