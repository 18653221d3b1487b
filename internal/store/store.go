// Package store persists practice history: scored attempts, registered
// clients and server settings.
//
// The store keeps a record of what happened; it is never the source of truth
// for a live practice session. [MemStore] keeps everything in memory; the
// sqlite and postgres subpackages persist to disk.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrWong99/mouthpiece/internal/id"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

// Sentinel errors.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrInvalidInput  = errors.New("store: invalid input")
)

// DefaultListLimit caps list results when a filter sets no limit.
const DefaultListLimit = 100

// Mode distinguishes word practice from letter practice.
type Mode string

const (
	ModeWord   Mode = "word"
	ModeLetter Mode = "letter"
)

// Attempt is one scored recording.
type Attempt struct {
	ID         string           `json:"id"`
	ClientID   string           `json:"client_id"`
	Mode       Mode             `json:"mode"`
	Target     string           `json:"target"`
	Language   phoneme.Language `json:"language"`
	Policy     string           `json:"policy"`
	Expected   []string         `json:"expected"`
	Detected   []string         `json:"detected"`
	Score      float64          `json:"score"`
	Accepted   bool             `json:"accepted"`
	Feedback   []string         `json:"feedback"`
	Transcript string           `json:"transcript,omitempty"`
	Backend    string           `json:"backend,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Client is a learner whose attempts are tracked.
type Client struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Language  phoneme.Language `json:"language"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AttemptFilter narrows [Store.ListAttempts]. Zero fields match everything.
type AttemptFilter struct {
	ClientID string
	Target   string
	Language phoneme.Language
	Since    time.Time
	Limit    int
}

// ClientFilter narrows [Store.ListClients]. Name matches case-insensitively
// as a substring.
type ClientFilter struct {
	Name     string
	Language phoneme.Language
	Limit    int
}

// Store is the persistence boundary. Lists are ordered newest first for
// attempts and by name for clients. Implementations must be safe for
// concurrent use.
type Store interface {
	// SaveAttempt inserts a. An empty ID and zero CreatedAt are filled in.
	SaveAttempt(ctx context.Context, a *Attempt) error
	GetAttempt(ctx context.Context, id string) (*Attempt, error)
	ListAttempts(ctx context.Context, f AttemptFilter) ([]Attempt, error)
	DeleteAttempt(ctx context.Context, id string) error

	// CreateClient inserts c. An empty ID and zero timestamps are filled in.
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context, f ClientFilter) ([]Client, error)
	// UpdateClient replaces the name, language and notes of an existing
	// client and bumps UpdatedAt.
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, id string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Ping(ctx context.Context) error
	Close() error
}

// PrepareAttempt validates a and fills in its ID and timestamp.
func PrepareAttempt(a *Attempt, now time.Time) error {
	if a == nil || strings.TrimSpace(a.Target) == "" {
		return errors.Join(ErrInvalidInput, errors.New("attempt target must not be empty"))
	}
	if a.Score < 0 || a.Score > 1 {
		return errors.Join(ErrInvalidInput, errors.New("attempt score must be within [0, 1]"))
	}
	if a.ID == "" {
		s, err := id.New(id.Attempt)
		if err != nil {
			return err
		}
		a.ID = s
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
	if a.Mode == "" {
		a.Mode = ModeWord
	}
	return nil
}

// PrepareClient validates c and fills in its ID and timestamps.
func PrepareClient(c *Client, now time.Time) error {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return errors.Join(ErrInvalidInput, errors.New("client name must not be empty"))
	}
	if c.ID == "" {
		s, err := id.New(id.Client)
		if err != nil {
			return err
		}
		c.ID = s
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now.UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return nil
}

// ValidateSettingKey rejects empty keys.
func ValidateSettingKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.Join(ErrInvalidInput, errors.New("setting key must not be empty"))
	}
	return nil
}

// Limit returns the effective list limit for n.
func Limit(n int) int {
	if n <= 0 || n > 1000 {
		return DefaultListLimit
	}
	return n
}
